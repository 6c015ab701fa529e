package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/pkg/config"
)

// RunResult is the outcome of a watchlist revaluation
type RunResult struct {
	RunID      string                      `json:"runId,omitempty"`
	Valuations []contracts.TickerValuation `json:"valuations"`
	Failed     map[string]string           `json:"failed,omitempty"` // ticker → error
}

// Revalue values every watchlist entry with live inputs and stores the batch under one run ID.
// Entries are valued sequentially; market clients are rate limited anyway.
func (a *Analyzer) Revalue(ctx context.Context, watchlist []config.WatchlistEntry) (*RunResult, error) {
	result := &RunResult{Failed: map[string]string{}}

	for _, entry := range watchlist {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		v, err := a.Value(ctx, Request{Ticker: entry.Ticker, Sector: entry.Sector, Live: true})
		if err != nil {
			result.Failed[entry.Ticker] = err.Error()
			a.logger.WithError(err).WithField("ticker", entry.Ticker).Warn("Revaluation failed")
			continue
		}
		result.Valuations = append(result.Valuations, v)
	}

	if len(result.Valuations) == 0 {
		if len(watchlist) == 0 {
			return result, nil
		}
		return result, errors.New("no watchlist entry could be valued")
	}

	if a.snapshots == nil {
		return result, nil
	}

	runID, err := a.snapshots.SaveBatch(ctx, result.Valuations)
	if err != nil {
		return result, fmt.Errorf("save snapshots: %w", err)
	}
	result.RunID = runID

	a.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"valued": len(result.Valuations),
		"failed": len(result.Failed),
	}).Info("Watchlist revalued")
	return result, nil
}
