package jobs

import (
	"context"

	"github.com/wonny/moat/backend/internal/analyzer"
	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/logger"
)

// Revaluer values a watchlist and stores the snapshot batch
type Revaluer interface {
	Revalue(ctx context.Context, watchlist []config.WatchlistEntry) (*analyzer.RunResult, error)
}

// WatchlistRevalueJob revalues the configured watchlist with live market inputs
type WatchlistRevalueJob struct {
	revaluer  Revaluer
	watchlist []config.WatchlistEntry
	schedule  string
	logger    *logger.Logger
}

// NewWatchlistRevalueJob creates a new revaluation job
func NewWatchlistRevalueJob(r Revaluer, watchlist []config.WatchlistEntry, schedule string, log *logger.Logger) *WatchlistRevalueJob {
	return &WatchlistRevalueJob{
		revaluer:  r,
		watchlist: watchlist,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *WatchlistRevalueJob) Name() string {
	return "watchlist_revalue"
}

// Schedule returns the cron schedule (REVALUE_SCHEDULE, weekdays after the US close by default)
func (j *WatchlistRevalueJob) Schedule() string {
	return j.schedule
}

// Run executes the revaluation
func (j *WatchlistRevalueJob) Run(ctx context.Context) error {
	if len(j.watchlist) == 0 {
		j.logger.Debug("Watchlist is empty, nothing to revalue")
		return nil
	}

	j.logger.WithField("tickers", len(j.watchlist)).Info("Starting watchlist revaluation")

	result, err := j.revaluer.Revalue(ctx, j.watchlist)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"valued": len(result.Valuations),
		"failed": len(result.Failed),
	}).Info("Watchlist revaluation completed")
	return nil
}
