package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/factors"
	"github.com/wonny/moat/backend/internal/overrides"
	"github.com/wonny/moat/backend/internal/snapshot"
	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
)

type fakeMarket struct {
	quote  contracts.MarketQuote
	sector string
	err    error
	calls  int
}

func (f *fakeMarket) Quote(context.Context, string) (contracts.MarketQuote, error) {
	f.calls++
	return f.quote, f.err
}

func (f *fakeMarket) Sector(context.Context, string) (string, error) {
	if f.sector == "" {
		return "", errors.New("no profile")
	}
	return f.sector, nil
}

func fptr(v float64) *float64 { return &v }

func newAnalyzer(t *testing.T) (*Analyzer, *overrides.Store) {
	t.Helper()
	store := overrides.NewStore(overrides.NewMemoryBlobStore(), "", logger.Nop(), nil)
	a := New(nil, store, logger.Nop(), metrics.New())
	a.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.FixedZone("KST", 9*3600)) }
	return a, store
}

func TestValue_Defaults(t *testing.T) {
	a, _ := newAnalyzer(t)

	v, err := a.Value(context.Background(), Request{Ticker: "msft", Sector: factors.InformationTechnology})
	require.NoError(t, err)

	assert.Equal(t, "MSFT", v.Ticker)
	assert.Equal(t, contracts.DefaultMarketInputs(), v.Inputs)
	assert.Equal(t, contracts.TierLowMedium, v.Result.Tier)
	assert.Equal(t, 14, v.Result.AdjCAP)
	assert.Equal(t, 100, v.Result.AIPremBps)
	assert.Equal(t, 12, v.Result.Haircut)
	assert.Equal(t, time.UTC, v.ComputedAt.Location())
}

func TestValue_TickerOverride(t *testing.T) {
	a, store := newAnalyzer(t)
	ctx := context.Background()

	_, err := store.SetSector(ctx, factors.InformationTechnology, contracts.PartialFactorRecord{SC: fptr(5), LS: fptr(1)})
	require.NoError(t, err)
	_, err = store.SetTicker(ctx, "MSFT", contracts.PartialFactorRecord{SC: fptr(2)})
	require.NoError(t, err)

	v, err := a.Value(ctx, Request{Ticker: "MSFT", Sector: factors.InformationTechnology})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.Factors.SC, "ticker override wins")
	assert.Equal(t, 1.0, v.Factors.LS, "sector override applies")
	assert.Equal(t, 4.0, v.Factors.NE, "base value kept")

	other, err := a.Value(ctx, Request{Ticker: "AAPL", Sector: factors.InformationTechnology})
	require.NoError(t, err)
	assert.Equal(t, 5.0, other.Factors.SC)
}

func TestValue_Live(t *testing.T) {
	a, _ := newAnalyzer(t)
	market := &fakeMarket{quote: contracts.MarketQuote{Beta: fptr(1.5), AvgRevGrowth: fptr(0.08)}}
	a.WithMarket(market)
	ctx := context.Background()

	v, err := a.Value(ctx, Request{Ticker: "NVDA", Sector: factors.InformationTechnology, Live: true})
	require.NoError(t, err)
	assert.Equal(t, 1.5, v.Inputs.Beta)
	assert.InDelta(t, 0.12, v.Result.WACC, 1e-12)
	assert.InDelta(t, 0.032, v.Result.LTGrowth, 1e-12)

	// explicit fields win over fetched ones
	v, err = a.Value(ctx, Request{
		Ticker: "NVDA", Sector: factors.InformationTechnology, Live: true,
		Quote: &contracts.MarketQuote{Beta: fptr(0.8)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.8, v.Inputs.Beta)
	assert.Equal(t, 0.08, v.Inputs.AvgRevGrowth)

	// a complete quote skips the provider
	calls := market.calls
	_, err = a.Value(ctx, Request{
		Ticker: "NVDA", Sector: factors.InformationTechnology, Live: true,
		Quote: &contracts.MarketQuote{Beta: fptr(0.8), AvgRevGrowth: fptr(0.1)},
	})
	require.NoError(t, err)
	assert.Equal(t, calls, market.calls)

	// not live: provider untouched
	_, err = a.Value(ctx, Request{Ticker: "NVDA", Sector: factors.InformationTechnology})
	require.NoError(t, err)
	assert.Equal(t, calls, market.calls)
}

func TestValue_LiveFailureUsesDefaults(t *testing.T) {
	a, _ := newAnalyzer(t)
	a.WithMarket(&fakeMarket{err: errors.New("upstream down")})

	v, err := a.Value(context.Background(), Request{Ticker: "KO", Sector: factors.ConsumerStaples, Live: true})
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultMarketInputs(), v.Inputs)
}

func TestValue_SectorResolution(t *testing.T) {
	a, _ := newAnalyzer(t)
	ctx := context.Background()

	_, err := a.Value(ctx, Request{Ticker: "XOM"})
	assert.ErrorIs(t, err, ErrSectorRequired)

	a.WithMarket(&fakeMarket{sector: factors.Energy})
	v, err := a.Value(ctx, Request{Ticker: "XOM", Live: true})
	require.NoError(t, err)
	assert.Equal(t, factors.Energy, v.Sector)

	a.WithMarket(&fakeMarket{})
	_, err = a.Value(ctx, Request{Ticker: "XOM", Live: true})
	assert.ErrorIs(t, err, ErrSectorRequired)
}

func TestValue_Errors(t *testing.T) {
	a, _ := newAnalyzer(t)
	ctx := context.Background()

	_, err := a.Value(ctx, Request{Ticker: "XOM", Sector: "Crypto"})
	assert.ErrorIs(t, err, factors.ErrUnknownSector)

	_, err = a.Value(ctx, Request{Ticker: "", Sector: factors.Energy})
	assert.ErrorIs(t, err, overrides.ErrInvalidTicker)

	_, err = a.Value(ctx, Request{Ticker: "XOM", Sector: factors.Energy,
		Risk: &contracts.RiskAdjustment{CompositeRisk: fptr(-1)}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.Value(ctx, Request{Ticker: "XOM", Sector: factors.Energy,
		Quote: &contracts.MarketQuote{Beta: fptr(math.NaN())}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompute(t *testing.T) {
	a, _ := newAnalyzer(t)
	f, _ := factors.Lookup(factors.InformationTechnology)

	res, err := a.Compute(contracts.MarketQuote{}, f, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Haircut)

	f.SC = 7
	_, err = a.Compute(contracts.MarketQuote{}, f, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSectors(t *testing.T) {
	a, store := newAnalyzer(t)
	ctx := context.Background()

	set := a.Sectors(ctx)
	assert.Equal(t, factors.Count(), set.Count())

	_, err := store.SetSector(ctx, factors.InformationTechnology, contracts.PartialFactorRecord{SC: fptr(5), LS: fptr(1)})
	require.NoError(t, err)

	it, ok := a.Sectors(ctx).Get(factors.InformationTechnology)
	require.True(t, ok)
	assert.InDelta(t, 3.8, it.MoatScore, 1e-9)
	assert.InDelta(t, 2.45, it.AIScore, 1e-9)
}

func TestRevalue(t *testing.T) {
	a, _ := newAnalyzer(t)
	repo := snapshot.NewMemoryRepository()
	a.WithSnapshots(repo).WithMarket(&fakeMarket{quote: contracts.MarketQuote{Beta: fptr(1.2)}})
	ctx := context.Background()

	res, err := a.Revalue(ctx, []config.WatchlistEntry{
		{Ticker: "MSFT", Sector: factors.InformationTechnology},
		{Ticker: "XOM", Sector: factors.Energy},
		{Ticker: "BAD", Sector: "Crypto"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Valuations, 2)
	assert.Contains(t, res.Failed, "BAD")

	history, err := a.History(ctx, "msft", 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.RunID, history[0].RunID)
	assert.Equal(t, 1.2, history[0].Inputs.Beta)
}

func TestRevalue_AllFailed(t *testing.T) {
	a, _ := newAnalyzer(t)
	_, err := a.Revalue(context.Background(), []config.WatchlistEntry{{Ticker: "BAD", Sector: "Crypto"}})
	assert.Error(t, err)

	res, err := a.Revalue(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Valuations)
}

func TestHistory_NotConfigured(t *testing.T) {
	a, _ := newAnalyzer(t)
	_, err := a.History(context.Background(), "MSFT", 5)
	assert.ErrorIs(t, err, ErrNoSnapshots)
}
