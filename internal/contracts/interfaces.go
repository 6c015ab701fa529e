package contracts

import "context"

// ⭐ SSOT: 협력자(collaborator) 인터페이스 정의는 여기서만
// 계산 코어(internal/moat)는 아래 인터페이스에 의존하지 않음

// BlobStore is a key/value store of named blobs (override persistence backend)
type BlobStore interface {
	// Get returns the blob stored under key; found=false when absent
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	// Set replaces the blob stored under key
	Set(ctx context.Context, key string, data []byte) error
}

// MarketDataProvider supplies raw market inputs for a ticker
type MarketDataProvider interface {
	Quote(ctx context.Context, ticker string) (MarketQuote, error)
}

// OverrideSource supplies the currently loaded override set
type OverrideSource interface {
	Load(ctx context.Context) OverrideSet
}
