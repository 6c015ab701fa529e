package moat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/backend/internal/calibration"
	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/factors"
)

const eps = 1e-9

func itRecord() contracts.FactorRecord {
	return contracts.FactorRecord{SC: 4, NE: 4, IA: 4, CA: 3, ES: 2, LS: 3, VCD: 2, DME: 3, ANC: 4, CIR: 3}
}

func uniform(moat, ai float64) contracts.FactorRecord {
	return contracts.FactorRecord{
		SC: moat, NE: moat, IA: moat, CA: moat, ES: moat,
		LS: ai, VCD: ai, DME: ai, ANC: ai, CIR: ai,
	}
}

func TestScores(t *testing.T) {
	f := itRecord()
	assert.InDelta(t, 3.55, MoatScore(f), eps)
	assert.InDelta(t, 2.95, AIScore(f), eps)

	// weights sum to 1: uniform ratings score to the rating itself
	for r := 1.0; r <= 5; r++ {
		u := uniform(r, r)
		assert.InDelta(t, r, MoatScore(u), eps, "moat rating %v", r)
		assert.InDelta(t, r, AIScore(u), eps, "ai rating %v", r)
	}
}

func TestCAP(t *testing.T) {
	tests := []struct {
		moat float64
		want int
	}{
		{5, 22}, {4, 22}, {3.99, 18}, {3.5, 18}, {3.2, 14}, {3, 14},
		{2.5, 10}, {2.2, 7}, {2, 7}, {1.99, 4}, {1, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CAP(tt.moat), "CAP(%v)", tt.moat)
	}
}

func TestAdjustedCAP(t *testing.T) {
	tests := []struct {
		name   string
		cap    int
		ai     float64
		bmRisk float64
		want   int
	}{
		{"ai below threshold", 18, 1.0, 0, 18},
		{"ai at threshold", 18, 1.5, 0, 18},
		{"it sector", 18, 2.95, 0, 14},
		{"max ai", 22, 5, 0, 10},
		{"bm risk", 18, 2.95, 2, 12},
		{"floored", 4, 5, 10, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustedCAP(tt.cap, tt.ai, tt.bmRisk))
		})
	}
}

func TestAdjustedCAP_NeverBelowFloor(t *testing.T) {
	for cap := 4; cap <= 22; cap++ {
		for ai := 1.0; ai <= 5; ai += 0.25 {
			for bm := 0.0; bm <= 10; bm++ {
				got := AdjustedCAP(cap, ai, bm)
				assert.GreaterOrEqual(t, got, 2)
				assert.LessOrEqual(t, got, cap)
			}
		}
	}
}

func TestAIPremium(t *testing.T) {
	tests := []struct {
		ai, bmRisk float64
		want       int
	}{
		{1, 0, 0},
		{1.99, 0, 0},
		{2, 0, 50},
		{2.2, 2, 80},
		{2.5, 0, 100},
		{2.95, 0, 100},
		{2.95, 0.5, 108}, // 107.5 rounds up
		{3, 1, 165},
		{3.5, 0, 225},
		{4, 0, 300},
		{5, 10, 400}, // capped
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AIPremium(tt.ai, tt.bmRisk), "AIPremium(%v, %v)", tt.ai, tt.bmRisk)
	}
}

func TestJustifiedPE(t *testing.T) {
	assert.InDelta(t, 13.3605, JustifiedPE(0.10, 0.03, 10), 1e-4)

	// r <= g → fallback
	assert.Equal(t, 30.0, JustifiedPE(0.05, 0.05, 10))
	assert.Equal(t, 30.0, JustifiedPE(0.03, 0.05, 10))

	// clamped to [5, 50]
	assert.Equal(t, 50.0, JustifiedPE(0.021, 0.0205, 50))
	assert.Equal(t, 5.0, JustifiedPE(0.5, 0.01, 1))
}

func TestJustifiedPE_Bounded(t *testing.T) {
	for r := 0.06; r <= 0.2; r += 0.01 {
		for g := 0.015; g <= 0.04; g += 0.005 {
			for c := 2; c <= 22; c += 4 {
				pe := JustifiedPE(r, g, c)
				assert.False(t, math.IsNaN(pe))
				assert.GreaterOrEqual(t, pe, 5.0)
				assert.LessOrEqual(t, pe, 50.0)
			}
		}
	}
}

// randomRecord draws every factor independently from {1, 1.5, ..., 5}
func randomRecord(rng *rand.Rand) contracts.FactorRecord {
	r := func() float64 { return 1 + 0.5*float64(rng.Intn(9)) }
	return contracts.FactorRecord{
		SC: r(), NE: r(), IA: r(), CA: r(), ES: r(),
		LS: r(), VCD: r(), DME: r(), ANC: r(), CIR: r(),
	}
}

func TestCompute_MixedRecordsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		in := contracts.ValuationInput{
			Factors: randomRecord(rng),
			BMRisk:  0.5 * float64(rng.Intn(21)), // 0..10
			Market: contracts.MarketInputs{
				Beta:         rng.Float64() * 3,
				AvgRevGrowth: rng.Float64()*0.6 - 0.2,
			},
		}
		r := Compute(in)

		assert.True(t, r.MoatScore >= 1-eps && r.MoatScore <= 5+eps, "moat %v for %+v", r.MoatScore, in.Factors)
		assert.True(t, r.AIScore >= 1-eps && r.AIScore <= 5+eps, "ai %v for %+v", r.AIScore, in.Factors)
		assert.True(t, r.Tier.Valid(), "tier %q", r.Tier)
		assert.Equal(t, ClassifyTier(r.NetScore), r.Tier)

		assert.GreaterOrEqual(t, r.AdjCAP, 2)
		assert.LessOrEqual(t, r.AdjCAP, r.BaseCAP)
		assert.GreaterOrEqual(t, r.AIPremBps, 0)
		assert.LessOrEqual(t, r.AIPremBps, 400)

		for _, pe := range []float64{r.BasePE, r.AdjPE} {
			assert.False(t, math.IsNaN(pe))
			assert.GreaterOrEqual(t, pe, 5.0)
			assert.LessOrEqual(t, pe, 50.0)
		}
		assert.Equal(t, Haircut(r.BasePE, r.AdjPE), r.Haircut)
	}
}

func TestComputeSector_MixedRecordsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		f := randomRecord(rng)
		c := Default().ComputeSector("Mixed", f)

		assert.True(t, c.MoatScore >= 1-eps && c.MoatScore <= 5+eps, "moat %v", c.MoatScore)
		assert.True(t, c.AIScore >= 1-eps && c.AIScore <= 5+eps, "ai %v", c.AIScore)
		assert.True(t, c.Tier.Valid(), "tier %q", c.Tier)
		assert.GreaterOrEqual(t, c.AdjCAP, 2)
		assert.LessOrEqual(t, c.AdjCAP, c.BaseCAP)
		assert.GreaterOrEqual(t, c.AIPremBps, 0)
		assert.LessOrEqual(t, c.AIPremBps, 400)
	}
}

func TestAIPremium_GridBoundedAndMonotone(t *testing.T) {
	// ai 1..5 step 0.05, bm 0..10 step 0.25
	for j := 0; j <= 40; j++ {
		bm := 0.25 * float64(j)
		prev := -1
		for i := 0; i <= 80; i++ {
			ai := 1 + 0.05*float64(i)
			got := AIPremium(ai, bm)

			assert.GreaterOrEqual(t, got, 0, "AIPremium(%v, %v)", ai, bm)
			assert.LessOrEqual(t, got, 400, "AIPremium(%v, %v)", ai, bm)
			assert.GreaterOrEqual(t, got, prev, "not monotone in ai at (%v, %v)", ai, bm)
			if j > 0 {
				assert.GreaterOrEqual(t, got, AIPremium(ai, bm-0.25), "not monotone in bm at (%v, %v)", ai, bm)
			}
			prev = got
		}
	}
}

func TestAdjustedCAP_GridMonotone(t *testing.T) {
	for _, cap := range []int{4, 7, 10, 14, 18, 22} {
		for j := 0; j <= 40; j++ {
			bm := 0.25 * float64(j)
			prev := cap
			for i := 0; i <= 80; i++ {
				ai := 1 + 0.05*float64(i)
				got := AdjustedCAP(cap, ai, bm)

				assert.GreaterOrEqual(t, got, 2)
				assert.LessOrEqual(t, got, prev, "not monotone in ai at cap=%d (%v, %v)", cap, ai, bm)
				prev = got
			}
		}
	}
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		net  float64
		want contracts.Tier
	}{
		{-5, contracts.TierCritical},
		{-2, contracts.TierCritical},
		{-1.99, contracts.TierHigh},
		{-0.5, contracts.TierHigh},
		{0, contracts.TierMedium},
		{0.5, contracts.TierMedium},
		{0.6, contracts.TierLowMedium},
		{1.5, contracts.TierLowMedium},
		{2, contracts.TierLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTier(tt.net), "ClassifyTier(%v)", tt.net)
	}
}

func TestCompute_Defaults(t *testing.T) {
	in := contracts.NewValuationInput(contracts.MarketQuote{}, itRecord(), nil)
	r := Compute(in)

	assert.InDelta(t, 3.55, r.MoatScore, eps)
	assert.InDelta(t, 2.95, r.AIScore, eps)
	assert.InDelta(t, 0.6, r.NetScore, eps)
	assert.Equal(t, contracts.TierLowMedium, r.Tier)
	assert.Equal(t, 18, r.BaseCAP)
	assert.Equal(t, 14, r.AdjCAP)
	assert.Equal(t, 100, r.AIPremBps)
	assert.InDelta(t, 0.095, r.WACC, eps)
	assert.InDelta(t, 0.02, r.LTGrowth, eps)
	assert.InDelta(t, 13.3333, r.BasePE, 1e-4)
	assert.InDelta(t, 11.7647, r.AdjPE, 1e-4)
	assert.Equal(t, 12, r.Haircut)
	assert.Equal(t, 0.0, r.BMRisk)
}

func TestCompute_MarketAndRisk(t *testing.T) {
	in := contracts.NewValuationInput(
		contracts.MarketQuote{Beta: ptr(1.5), AvgRevGrowth: ptr(0.08)},
		itRecord(),
		&contracts.RiskAdjustment{CompositeRisk: ptr(2)},
	)
	r := Compute(in)

	assert.InDelta(t, 0, r.NetScore, eps)
	assert.Equal(t, contracts.TierMedium, r.Tier)
	assert.Equal(t, 18, r.BaseCAP)
	assert.Equal(t, 12, r.AdjCAP)
	assert.Equal(t, 130, r.AIPremBps)
	assert.InDelta(t, 0.12, r.WACC, eps)
	assert.InDelta(t, 0.032, r.LTGrowth, eps)
	assert.InDelta(t, 11.0510, r.BasePE, 1e-4)
	assert.InDelta(t, 9.5581, r.AdjPE, 1e-4)
	assert.Equal(t, 14, r.Haircut)
	assert.Equal(t, 2.0, r.BMRisk)
}

func TestCompute_WACCFloorAndGrowthClamp(t *testing.T) {
	in := contracts.NewValuationInput(
		contracts.MarketQuote{Beta: ptr(0.2), AvgRevGrowth: ptr(0.01)},
		itRecord(),
		nil,
	)
	r := Compute(in)

	assert.InDelta(t, 0.06, r.WACC, eps)
	assert.InDelta(t, 0.015, r.LTGrowth, eps)
	assert.InDelta(t, 23.4945, r.BasePE, 1e-4)
	assert.InDelta(t, 19.0504, r.AdjPE, 1e-4)
	assert.Equal(t, 19, r.Haircut)
}

func TestCompute_Extremes(t *testing.T) {
	strong := Compute(contracts.NewValuationInput(contracts.MarketQuote{}, uniform(5, 1), nil))
	assert.Equal(t, contracts.TierLow, strong.Tier)
	assert.Equal(t, 22, strong.AdjCAP)
	assert.Equal(t, 0, strong.AIPremBps)
	assert.Equal(t, 0, strong.Haircut)

	weak := Compute(contracts.NewValuationInput(contracts.MarketQuote{}, uniform(1, 5), &contracts.RiskAdjustment{CompositeRisk: ptr(10)}))
	assert.Equal(t, contracts.TierCritical, weak.Tier)
	assert.InDelta(t, -7, weak.NetScore, eps)
	assert.Equal(t, 4, weak.BaseCAP)
	assert.Equal(t, 2, weak.AdjCAP)
	assert.Equal(t, 400, weak.AIPremBps)
	assert.Equal(t, 35, weak.Haircut)
}

func TestHaircut(t *testing.T) {
	assert.Equal(t, 0, Haircut(0, 10))
	assert.Equal(t, 50, Haircut(20, 10))
	// adjPE above basePE is reported, not clamped
	assert.Equal(t, -50, Haircut(20, 30))
}

func TestComputeSectors_NoOverrides(t *testing.T) {
	set := ComputeSectors(contracts.EmptyOverrides())

	require.Equal(t, factors.Count(), set.Count())
	assert.Equal(t, factors.Names(), set.Sectors)

	for _, s := range factors.Sectors() {
		c, ok := set.Get(s.Name)
		require.True(t, ok, s.Name)

		ms := MoatScore(s.Factors)
		ai := AIScore(s.Factors)
		assert.Equal(t, ms, c.MoatScore, s.Name)
		assert.Equal(t, ai, c.AIScore, s.Name)
		assert.Equal(t, ms-ai, c.NetScore, s.Name)
		assert.Equal(t, ClassifyTier(ms-ai), c.Tier, s.Name)
		assert.Equal(t, CAP(ms), c.BaseCAP, s.Name)
		assert.Equal(t, AdjustedCAP(CAP(ms), ai, 0), c.AdjCAP, s.Name)
		assert.Equal(t, AIPremium(ai, 0), c.AIPremBps, s.Name)
		assert.Equal(t, s.Factors, c.FactorRecord, s.Name)
	}
}

func TestComputeSectors_Reference(t *testing.T) {
	set := ComputeSectors(contracts.OverrideSet{})

	tests := []struct {
		sector  string
		tier    contracts.Tier
		baseCap int
		adjCap  int
		prem    int
	}{
		{factors.InformationTechnology, contracts.TierLowMedium, 18, 14, 100},
		{factors.CommunicationServices, contracts.TierMedium, 18, 13, 150},
		{factors.HealthCare, contracts.TierLowMedium, 10, 9, 50},
		{factors.Financials, contracts.TierHigh, 10, 6, 300},
		{factors.ConsumerDiscretionary, contracts.TierHigh, 7, 5, 150},
		{factors.Utilities, contracts.TierLow, 10, 10, 0},
		{factors.RealEstate, contracts.TierHigh, 4, 3, 150},
	}
	for _, tt := range tests {
		t.Run(tt.sector, func(t *testing.T) {
			c, ok := set.Get(tt.sector)
			require.True(t, ok)
			assert.Equal(t, tt.tier, c.Tier)
			assert.Equal(t, tt.baseCap, c.BaseCAP)
			assert.Equal(t, tt.adjCap, c.AdjCAP)
			assert.Equal(t, tt.prem, c.AIPremBps)
		})
	}
}

func TestComputeSectors_SectorOverride(t *testing.T) {
	ov := contracts.EmptyOverrides()
	ov.Sectors[factors.InformationTechnology] = contracts.PartialFactorRecord{SC: ptr(5), LS: ptr(1)}

	set := ComputeSectors(ov)
	c, ok := set.Get(factors.InformationTechnology)
	require.True(t, ok)

	assert.Equal(t, 5.0, c.SC)
	assert.Equal(t, 1.0, c.LS)
	assert.Equal(t, 4.0, c.NE, "untouched fields come from the base record")
	assert.InDelta(t, 3.8, c.MoatScore, eps)
	assert.InDelta(t, 2.45, c.AIScore, eps)

	// other sectors unaffected
	fin, _ := set.Get(factors.Financials)
	assert.Equal(t, contracts.TierHigh, fin.Tier)
}

func TestTickerFactors(t *testing.T) {
	ov := contracts.EmptyOverrides()
	ov.Sectors[factors.InformationTechnology] = contracts.PartialFactorRecord{SC: ptr(5), NE: ptr(5)}
	ov.Tickers["MSFT"] = contracts.PartialFactorRecord{NE: ptr(2)}

	f, err := TickerFactors(factors.InformationTechnology, "MSFT", ov)
	require.NoError(t, err)
	assert.Equal(t, 5.0, f.SC)
	assert.Equal(t, 2.0, f.NE, "ticker override wins over sector override")
	assert.Equal(t, 4.0, f.IA)

	_, err = TickerFactors("Crypto", "BTC", ov)
	assert.ErrorIs(t, err, factors.ErrUnknownSector)
}

func TestNew_RejectsInvalidCalibration(t *testing.T) {
	cfg := calibration.Default()
	cfg.Weights.Moat.SC = 0.5

	_, err := New(cfg)
	assert.Error(t, err)

	cfg = calibration.Default()
	cfg.Premium.MaxBps = 250
	e, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, 250, e.AIPremium(4, 0))
}

func TestEngine_MarketDefaults(t *testing.T) {
	cfg := calibration.Default()
	cfg.Market.DefaultBeta = 1.2
	e, err := New(cfg)
	require.NoError(t, err)

	in := e.Input(contracts.MarketQuote{AvgRevGrowth: ptr(0.07)}, itRecord(), nil)
	assert.Equal(t, 1.2, in.Market.Beta)
	assert.Equal(t, 0.07, in.Market.AvgRevGrowth)
	assert.InDelta(t, 0.105, e.Compute(in).WACC, eps)
}

func ptr(v float64) *float64 { return &v }
