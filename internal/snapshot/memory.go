package snapshot

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wonny/moat/backend/internal/contracts"
)

// MemoryRepository keeps snapshots in process (tests; the CLI requires Postgres for history)
type MemoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	snapshots []contracts.ValuationSnapshot
}

var _ contracts.SnapshotRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// SaveBatch stores valuations under a fresh run ID
func (m *MemoryRepository) SaveBatch(_ context.Context, valuations []contracts.TickerValuation) (string, error) {
	if len(valuations) == 0 {
		return "", ErrEmptyBatch
	}

	runID := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range valuations {
		m.nextID++
		m.snapshots = append(m.snapshots, contracts.ValuationSnapshot{
			ID:              m.nextID,
			RunID:           runID,
			TickerValuation: v,
		})
	}
	return runID, nil
}

// ListByTicker returns the newest snapshots of a ticker (newest first)
func (m *MemoryRepository) ListByTicker(_ context.Context, ticker string, limit int) ([]contracts.ValuationSnapshot, error) {
	ticker = strings.ToUpper(ticker)

	m.mu.RLock()
	var out []contracts.ValuationSnapshot
	for _, s := range m.snapshots {
		if s.Ticker == ticker {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ComputedAt.Equal(out[j].ComputedAt) {
			return out[i].ComputedAt.After(out[j].ComputedAt)
		}
		return out[i].ID > out[j].ID
	})

	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
