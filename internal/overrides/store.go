// Package overrides persists PM overrides of factor ratings.
//
// The whole OverrideSet is serialized as one JSON blob
// {"sectors": {...}, "tickers": {...}} under a single key of a BlobStore.
// Loading never fails: a missing, unreadable or malformed blob yields the
// empty set.
package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/factors"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
)

// DefaultKey is the blob key of the override set
const DefaultKey = "pm_overrides"

// Errors
var (
	ErrEmptyOverride = errors.New("override has no fields")
	ErrInvalidTicker = errors.New("invalid ticker")
)

// Load outcomes (metrics label)
const (
	outcomeOK       = "ok"
	outcomeMissing  = "missing"
	outcomePartial  = "partial"
	outcomeFallback = "fallback"
)

// Listener is called with the new set after every successful mutation
type Listener func(contracts.OverrideSet)

var _ contracts.OverrideSource = (*Store)(nil)

// Store serializes override mutations over a BlobStore
// ⭐ SSOT: 오버라이드 읽기/쓰기는 이 Store를 통해서만
type Store struct {
	blobs   contracts.BlobStore
	key     string
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex // serializes read-modify-write
	listeners map[int]Listener
	nextID    int
	lmu       sync.RWMutex
}

// NewStore creates a store; key defaults to DefaultKey, m may be nil
func NewStore(blobs contracts.BlobStore, key string, log *logger.Logger, m *metrics.Metrics) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		blobs:     blobs,
		key:       key,
		logger:    log.WithField("component", "overrides"),
		metrics:   m,
		listeners: make(map[int]Listener),
	}
}

// Key returns the blob key
func (s *Store) Key() string {
	return s.key
}

// Load reads the current set. Never fails: see package doc.
func (s *Store) Load(ctx context.Context) contracts.OverrideSet {
	set, outcome, err := s.load(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("override load failed, using empty set")
	}
	s.metrics.IncOverrideLoad(outcome)
	return set
}

// load returns the stored set; err is set only when the backend itself failed
func (s *Store) load(ctx context.Context) (contracts.OverrideSet, string, error) {
	data, found, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return contracts.EmptyOverrides(), outcomeFallback, err
	}
	if !found {
		return contracts.EmptyOverrides(), outcomeMissing, nil
	}

	set, dropped, err := Decode(data)
	if err != nil {
		s.logger.WithError(err).Warn("stored overrides are malformed, using empty set")
		return contracts.EmptyOverrides(), outcomeFallback, nil
	}
	if len(dropped) > 0 {
		s.logger.WithField("dropped", dropped).Warn("dropped invalid stored overrides")
		return set, outcomePartial, nil
	}
	return set, outcomeOK, nil
}

// Save validates and replaces the whole set
func (s *Store) Save(ctx context.Context, set contracts.OverrideSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set = set.Normalize()
	if err := validateKeys(set); err != nil {
		s.metrics.IncOverrideWrite("save", err)
		return err
	}
	if err := set.Validate(); err != nil {
		s.metrics.IncOverrideWrite("save", err)
		return err
	}
	return s.write(ctx, "save", set)
}

// validateKeys rejects keys that lookups would never match:
// sectors must exist in the table, tickers must already be normalized.
func validateKeys(set contracts.OverrideSet) error {
	for name := range set.Sectors {
		if _, ok := factors.Lookup(name); !ok {
			return fmt.Errorf("%w: %q", factors.ErrUnknownSector, name)
		}
	}
	for symbol := range set.Tickers {
		normalized, err := NormalizeTicker(symbol)
		if err != nil {
			return err
		}
		if normalized != symbol {
			return fmt.Errorf("%w: %q (use %q)", ErrInvalidTicker, symbol, normalized)
		}
	}
	return nil
}

// SetSector layers p over the sector's current override
func (s *Store) SetSector(ctx context.Context, sector string, p contracts.PartialFactorRecord) (contracts.OverrideSet, error) {
	if _, ok := factors.Lookup(sector); !ok {
		return contracts.OverrideSet{}, fmt.Errorf("%w: %q", factors.ErrUnknownSector, sector)
	}
	return s.mutate(ctx, "set_sector", &p, func(set contracts.OverrideSet) {
		set.Sectors[sector] = set.Sectors[sector].Combine(p)
	})
}

// SetTicker layers p over the ticker's current override
func (s *Store) SetTicker(ctx context.Context, ticker string, p contracts.PartialFactorRecord) (contracts.OverrideSet, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return contracts.OverrideSet{}, err
	}
	return s.mutate(ctx, "set_ticker", &p, func(set contracts.OverrideSet) {
		set.Tickers[symbol] = set.Tickers[symbol].Combine(p)
	})
}

// ClearSector removes a sector override
func (s *Store) ClearSector(ctx context.Context, sector string) (contracts.OverrideSet, error) {
	return s.mutate(ctx, "clear_sector", nil, func(set contracts.OverrideSet) {
		delete(set.Sectors, sector)
	})
}

// ClearTicker removes a ticker override
func (s *Store) ClearTicker(ctx context.Context, ticker string) (contracts.OverrideSet, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return contracts.OverrideSet{}, err
	}
	return s.mutate(ctx, "clear_ticker", nil, func(set contracts.OverrideSet) {
		delete(set.Tickers, symbol)
	})
}

// Reset replaces the stored set with the empty set
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, "reset", contracts.EmptyOverrides())
}

// mutate runs a validated read-modify-write under the store lock
func (s *Store) mutate(ctx context.Context, op string, p *contracts.PartialFactorRecord, apply func(contracts.OverrideSet)) (contracts.OverrideSet, error) {
	if p != nil {
		if p.IsEmpty() {
			s.metrics.IncOverrideWrite(op, ErrEmptyOverride)
			return contracts.OverrideSet{}, ErrEmptyOverride
		}
		if err := p.Validate(); err != nil {
			s.metrics.IncOverrideWrite(op, err)
			return contracts.OverrideSet{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a backend read failure must not clobber the stored set
	set, _, err := s.load(ctx)
	if err != nil {
		s.metrics.IncOverrideWrite(op, err)
		return contracts.OverrideSet{}, fmt.Errorf("load overrides: %w", err)
	}
	set = set.Clone()
	apply(set)

	if err := s.write(ctx, op, set); err != nil {
		return contracts.OverrideSet{}, err
	}
	return set, nil
}

// write persists set and notifies listeners; caller holds s.mu
func (s *Store) write(ctx context.Context, op string, set contracts.OverrideSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		s.metrics.IncOverrideWrite(op, err)
		return fmt.Errorf("marshal overrides: %w", err)
	}

	if err := s.blobs.Set(ctx, s.key, data); err != nil {
		s.metrics.IncOverrideWrite(op, err)
		s.logger.WithError(err).WithField("op", op).Error("override save failed")
		return fmt.Errorf("save overrides: %w", err)
	}

	s.metrics.IncOverrideWrite(op, nil)
	sectors, tickers := set.Count()
	s.logger.WithFields(map[string]interface{}{
		"op":      op,
		"sectors": sectors,
		"tickers": tickers,
	}).Info("overrides saved")

	s.notify(set)
	return nil
}

// Subscribe registers l for change notifications; call the returned func to unsubscribe.
// Listeners run synchronously on the writer's goroutine and must not block.
func (s *Store) Subscribe(l Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(set contracts.OverrideSet) {
	s.lmu.RLock()
	defer s.lmu.RUnlock()

	for _, l := range s.listeners {
		l(set.Clone())
	}
}

// Decode parses a stored blob. Entries with out-of-range ratings are dropped
// and reported by name; structurally malformed JSON is an error.
func Decode(data []byte) (contracts.OverrideSet, []string, error) {
	var set contracts.OverrideSet
	if err := json.Unmarshal(data, &set); err != nil {
		return contracts.OverrideSet{}, nil, err
	}
	set = set.Normalize()

	var dropped []string
	for name, p := range set.Sectors {
		if p.Validate() != nil {
			delete(set.Sectors, name)
			dropped = append(dropped, "sectors."+name)
		}
	}
	for symbol, p := range set.Tickers {
		if p.Validate() != nil {
			delete(set.Tickers, symbol)
			dropped = append(dropped, "tickers."+symbol)
		}
	}
	return set, dropped, nil
}

// NormalizeTicker upper-cases and checks a ticker symbol
func NormalizeTicker(ticker string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" || len(symbol) > 12 || strings.ContainsAny(symbol, " /\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	return symbol, nil
}
