// Package analyzer values individual tickers and sectors against the
// current override set, optionally pulling live market inputs.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/factors"
	"github.com/wonny/moat/backend/internal/moat"
	"github.com/wonny/moat/backend/internal/overrides"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
)

// Errors
var (
	ErrSectorRequired = errors.New("sector is required")
	ErrInvalidInput   = errors.New("invalid valuation input")
	ErrNoSnapshots    = errors.New("snapshot storage not configured")
)

// Valuation sources (metric label)
const (
	SourceManual = "manual"
	SourceLive   = "live"
)

// SectorResolver maps a ticker to its reference sector
type SectorResolver interface {
	Sector(ctx context.Context, ticker string) (string, error)
}

// Request is a single ticker valuation request
type Request struct {
	Ticker string
	Sector string                    // empty → resolved from the market provider when Live
	Quote  *contracts.MarketQuote    // explicit market inputs (win over live data)
	Risk   *contracts.RiskAdjustment // business-model risk
	Live   bool                      // fetch missing market inputs
}

// Analyzer combines the engine, the override store and market data
// ⭐ SSOT: 티커 밸류에이션 조립(팩터 병합 → 시장 입력 → 계산)은 여기서만
type Analyzer struct {
	engine    *moat.Engine
	overrides contracts.OverrideSource
	market    contracts.MarketDataProvider
	sectors   SectorResolver
	snapshots contracts.SnapshotRepository
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New creates an analyzer without market data or snapshot storage
func New(engine *moat.Engine, source contracts.OverrideSource, log *logger.Logger, m *metrics.Metrics) *Analyzer {
	if engine == nil {
		engine = moat.Default()
	}
	return &Analyzer{
		engine:    engine,
		overrides: source,
		logger:    log.WithField("component", "analyzer"),
		metrics:   m,
		now:       time.Now,
	}
}

// WithMarket enables live market inputs
func (a *Analyzer) WithMarket(p contracts.MarketDataProvider) *Analyzer {
	a.market = p
	if r, ok := p.(SectorResolver); ok {
		a.sectors = r
	}
	return a
}

// WithSnapshots enables snapshot persistence and history
func (a *Analyzer) WithSnapshots(repo contracts.SnapshotRepository) *Analyzer {
	a.snapshots = repo
	return a
}

// Engine returns the calibrated engine
func (a *Analyzer) Engine() *moat.Engine {
	return a.engine
}

// Overrides loads the current override set
func (a *Analyzer) Overrides(ctx context.Context) contracts.OverrideSet {
	if a.overrides == nil {
		return contracts.EmptyOverrides()
	}
	return a.overrides.Load(ctx)
}

// Sectors computes the composites of all sectors with the stored overrides
func (a *Analyzer) Sectors(ctx context.Context) *contracts.CompositeSet {
	set := a.engine.ComputeSectors(a.Overrides(ctx))
	a.metrics.IncSectorRun()
	return set
}

// Compute runs a full valuation of explicit inputs (no sector table, no overrides)
func (a *Analyzer) Compute(quote contracts.MarketQuote, f contracts.FactorRecord, risk *contracts.RiskAdjustment) (contracts.ValuationResult, error) {
	if err := f.Validate(); err != nil {
		return contracts.ValuationResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validateInputs(&quote, risk); err != nil {
		return contracts.ValuationResult{}, err
	}

	start := time.Now()
	result := a.engine.Compute(a.engine.Input(quote, f, risk))
	a.metrics.ObserveValuation(string(result.Tier), SourceManual, time.Since(start))
	return result, nil
}

// Value runs a full valuation of one ticker
func (a *Analyzer) Value(ctx context.Context, req Request) (contracts.TickerValuation, error) {
	ticker, err := overrides.NormalizeTicker(req.Ticker)
	if err != nil {
		return contracts.TickerValuation{}, err
	}
	if err := validateInputs(req.Quote, req.Risk); err != nil {
		return contracts.TickerValuation{}, err
	}

	start := time.Now()
	log := a.logger.WithField("ticker", ticker)

	sector, err := a.resolveSector(ctx, ticker, req)
	if err != nil {
		return contracts.TickerValuation{}, err
	}

	// base ← sector override ← ticker override
	f, err := moat.TickerFactors(sector, ticker, a.Overrides(ctx))
	if err != nil {
		return contracts.TickerValuation{}, err
	}

	var quote contracts.MarketQuote
	if req.Quote != nil {
		quote = *req.Quote
	}

	source := SourceManual
	if req.Live && a.market != nil && !quote.Complete() {
		source = SourceLive
		fetched, err := a.market.Quote(ctx, ticker)
		if err != nil {
			// 시장 데이터 실패 시 기본값으로 계속 진행
			log.WithError(err).Warn("Live market inputs unavailable, using defaults")
		}
		quote = quote.Fill(fetched)
	}

	in := a.engine.Input(quote, f, req.Risk)
	result := a.engine.Compute(in)
	a.metrics.ObserveValuation(string(result.Tier), source, time.Since(start))

	log.WithFields(map[string]interface{}{
		"sector":  sector,
		"source":  source,
		"tier":    result.Tier,
		"haircut": result.Haircut,
	}).Debug("Valued ticker")

	return contracts.TickerValuation{
		Ticker:     ticker,
		Sector:     sector,
		Factors:    f,
		Inputs:     in.Market,
		Result:     result,
		ComputedAt: a.now().UTC(),
	}, nil
}

// History returns stored snapshots of a ticker (newest first)
func (a *Analyzer) History(ctx context.Context, ticker string, limit int) ([]contracts.ValuationSnapshot, error) {
	if a.snapshots == nil {
		return nil, ErrNoSnapshots
	}
	ticker, err := overrides.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	return a.snapshots.ListByTicker(ctx, ticker, limit)
}

func (a *Analyzer) resolveSector(ctx context.Context, ticker string, req Request) (string, error) {
	if req.Sector != "" {
		if _, err := factors.Get(req.Sector); err != nil {
			return "", err
		}
		return req.Sector, nil
	}

	if !req.Live || a.sectors == nil {
		return "", ErrSectorRequired
	}

	sector, err := a.sectors.Sector(ctx, ticker)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSectorRequired, err)
	}
	return sector, nil
}

// validateInputs rejects non-finite market inputs and negative risk
func validateInputs(quote *contracts.MarketQuote, risk *contracts.RiskAdjustment) error {
	if quote != nil {
		if quote.Beta != nil && !finite(*quote.Beta) {
			return fmt.Errorf("%w: beta must be finite", ErrInvalidInput)
		}
		if quote.AvgRevGrowth != nil && !finite(*quote.AvgRevGrowth) {
			return fmt.Errorf("%w: avgRevGrowth must be finite", ErrInvalidInput)
		}
	}
	if v := risk.Value(); !finite(v) || v < 0 {
		return fmt.Errorf("%w: compositeRisk must be a finite value >= 0", ErrInvalidInput)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
