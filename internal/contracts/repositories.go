package contracts

import "context"

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// SnapshotRepository persists valuation snapshots
type SnapshotRepository interface {
	// SaveBatch stores valuations under a single run ID and returns it
	SaveBatch(ctx context.Context, valuations []TickerValuation) (string, error)
	// ListByTicker returns the newest snapshots of a ticker (newest first)
	ListByTicker(ctx context.Context, ticker string, limit int) ([]ValuationSnapshot, error)
}
