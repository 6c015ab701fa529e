// Package market resolves per-ticker market inputs (beta, revenue growth)
// from FMP with a Finviz beta fallback, cached in Redis.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/external/fmp"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
	"github.com/wonny/moat/backend/pkg/redis"
)

// ErrNoData is returned when no source produced any field for a ticker
var ErrNoData = errors.New("no market data available")

// Metric source labels
const (
	SourceFMP    = "fmp"
	SourceFinviz = "finviz"
	SourceCache  = "cache"
)

// Fundamentals supplies company profile and revenue growth (FMP)
type Fundamentals interface {
	Enabled() bool
	Profile(ctx context.Context, ticker string) (*fmp.Profile, error)
	AvgRevenueGrowth(ctx context.Context, ticker string) (float64, bool, error)
}

// BetaSource supplies a beta when fundamentals have none (Finviz)
type BetaSource interface {
	Enabled() bool
	Beta(ctx context.Context, ticker string) (float64, error)
}

// Provider implements contracts.MarketDataProvider
// ⭐ SSOT: 시장 데이터 조회 순서(FMP → Finviz)와 캐시 정책은 여기서만
type Provider struct {
	fundamentals Fundamentals
	betas        BetaSource
	cache        *redis.Cache
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

var _ contracts.MarketDataProvider = (*Provider)(nil)

// NewProvider creates a provider. Any source may be nil; a nil cache disables caching.
func NewProvider(fundamentals Fundamentals, betas BetaSource, cache *redis.Cache, log *logger.Logger, m *metrics.Metrics) *Provider {
	return &Provider{
		fundamentals: fundamentals,
		betas:        betas,
		cache:        cache,
		logger:       log.WithField("component", "market"),
		metrics:      m,
	}
}

// Quote returns the market inputs of a ticker. Fields no source could supply stay nil.
func (p *Provider) Quote(ctx context.Context, ticker string) (contracts.MarketQuote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if p.cache == nil {
		return p.fetch(ctx, ticker)
	}

	var cached contracts.MarketQuote
	if found, err := p.cache.Get(ctx, redis.QuoteKey(ticker), &cached); err == nil && found {
		p.metrics.IncMarketFetch(SourceCache, nil)
		return cached, nil
	}

	quote, err := p.fetch(ctx, ticker)
	if err != nil {
		return quote, err
	}
	if err := p.cache.Set(ctx, redis.QuoteKey(ticker), quote, redis.TTLMedium); err != nil {
		p.logger.WithError(err).Warn("Failed to cache market quote")
	}
	return quote, nil
}

// Sector returns the reference sector of a ticker from its FMP profile
func (p *Provider) Sector(ctx context.Context, ticker string) (string, error) {
	if p.fundamentals == nil || !p.fundamentals.Enabled() {
		return "", fmt.Errorf("sector lookup for %s: %w", ticker, fmp.ErrNoAPIKey)
	}

	profile, err := p.profile(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
	if err != nil {
		return "", err
	}

	sector, ok := fmp.MapSector(profile.Sector)
	if !ok {
		return "", fmt.Errorf("sector lookup for %s: unmapped sector %q", ticker, profile.Sector)
	}
	return sector, nil
}

// fetch queries the sources in order without the quote cache
func (p *Provider) fetch(ctx context.Context, ticker string) (contracts.MarketQuote, error) {
	var quote contracts.MarketQuote
	var errs []error

	if p.fundamentals != nil && p.fundamentals.Enabled() {
		profile, err := p.profile(ctx, ticker)
		p.metrics.IncMarketFetch(SourceFMP, err)
		if err != nil {
			errs = append(errs, err)
		} else if profile.Beta != nil {
			beta := *profile.Beta
			quote.Beta = &beta
		}

		growth, ok, err := p.fundamentals.AvgRevenueGrowth(ctx, ticker)
		p.metrics.IncMarketFetch(SourceFMP, err)
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			quote.AvgRevGrowth = &growth
		}
	}

	if quote.Beta == nil && p.betas != nil && p.betas.Enabled() {
		beta, err := p.betas.Beta(ctx, ticker)
		p.metrics.IncMarketFetch(SourceFinviz, err)
		if err != nil {
			errs = append(errs, err)
		} else {
			quote.Beta = &beta
		}
	}

	log := p.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"has_beta":   quote.Beta != nil,
		"has_growth": quote.AvgRevGrowth != nil,
	})

	if quote.Beta == nil && quote.AvgRevGrowth == nil {
		err := ErrNoData
		if len(errs) > 0 {
			err = fmt.Errorf("%w: %w", ErrNoData, errors.Join(errs...))
		}
		log.WithError(err).Warn("Market data unavailable")
		return quote, err
	}

	if len(errs) > 0 {
		log.WithError(errors.Join(errs...)).Warn("Market data partially available")
	} else {
		log.Debug("Fetched market data")
	}
	return quote, nil
}

func (p *Provider) profile(ctx context.Context, ticker string) (*fmp.Profile, error) {
	if p.cache == nil {
		return p.fundamentals.Profile(ctx, ticker)
	}
	return redis.GetOrSet(ctx, p.cache, redis.ProfileKey(ticker), redis.TTLLong, func() (*fmp.Profile, error) {
		return p.fundamentals.Profile(ctx, ticker)
	})
}
