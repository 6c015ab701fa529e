// Package snapshot persists ticker valuations per revaluation run.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/moat/backend/internal/contracts"
)

// ErrEmptyBatch is returned by SaveBatch for an empty slice
var ErrEmptyBatch = errors.New("empty snapshot batch")

// MaxListLimit caps ListByTicker
const MaxListLimit = 500

// Repository stores snapshots in app.valuation_snapshots
// ⭐ SSOT: 밸류에이션 스냅샷 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

var _ contracts.SnapshotRepository = (*Repository)(nil)

// NewRepository creates a new snapshot repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveBatch inserts all valuations in one transaction under a fresh run ID
func (r *Repository) SaveBatch(ctx context.Context, valuations []contracts.TickerValuation) (string, error) {
	if len(valuations) == 0 {
		return "", ErrEmptyBatch
	}

	runID := uuid.New()
	query := `
		INSERT INTO app.valuation_snapshots (
			run_id, ticker, sector, factors, inputs, result, tier, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, v := range valuations {
		factorsJSON, inputsJSON, resultJSON, err := marshalParts(v)
		if err != nil {
			return "", fmt.Errorf("snapshot %s: %w", v.Ticker, err)
		}
		batch.Queue(query, runID, v.Ticker, v.Sector, factorsJSON, inputsJSON, resultJSON,
			string(v.Result.Tier), v.ComputedAt)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("failed to save snapshots: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit snapshots: %w", err)
	}

	return runID.String(), nil
}

// ListByTicker returns the newest snapshots of a ticker (newest first)
func (r *Repository) ListByTicker(ctx context.Context, ticker string, limit int) ([]contracts.ValuationSnapshot, error) {
	query := `
		SELECT id, run_id, ticker, sector, factors, inputs, result, computed_at
		FROM app.valuation_snapshots
		WHERE ticker = $1
		ORDER BY computed_at DESC, id DESC
		LIMIT $2
	`
	return r.list(ctx, query, ticker, clampLimit(limit))
}

// ListRun returns all snapshots of one run (ticker order)
func (r *Repository) ListRun(ctx context.Context, runID string) ([]contracts.ValuationSnapshot, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	query := `
		SELECT id, run_id, ticker, sector, factors, inputs, result, computed_at
		FROM app.valuation_snapshots
		WHERE run_id = $1
		ORDER BY ticker
	`
	return r.list(ctx, query, id)
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]contracts.ValuationSnapshot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []contracts.ValuationSnapshot
	for rows.Next() {
		var s contracts.ValuationSnapshot
		var runID uuid.UUID
		var factorsJSON, inputsJSON, resultJSON []byte

		if err := rows.Scan(&s.ID, &runID, &s.Ticker, &s.Sector,
			&factorsJSON, &inputsJSON, &resultJSON, &s.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		if err := json.Unmarshal(factorsJSON, &s.Factors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal factors: %w", err)
		}
		if err := json.Unmarshal(inputsJSON, &s.Inputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
		}
		if err := json.Unmarshal(resultJSON, &s.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		s.RunID = runID.String()
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

func marshalParts(v contracts.TickerValuation) (factorsJSON, inputsJSON, resultJSON []byte, err error) {
	if factorsJSON, err = json.Marshal(v.Factors); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal factors: %w", err)
	}
	if inputsJSON, err = json.Marshal(v.Inputs); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal inputs: %w", err)
	}
	if resultJSON, err = json.Marshal(v.Result); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return factorsJSON, inputsJSON, resultJSON, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
