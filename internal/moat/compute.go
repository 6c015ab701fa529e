package moat

import (
	"math"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/factors"
)

// WACC returns the required return: max(floor, rf + beta*erp)
func (e *Engine) WACC(beta float64) float64 {
	m := e.cal.Market
	return math.Max(m.WACCFloor, m.RiskFreeBase+float64(beta*m.EquityPremium))
}

// LTGrowth returns the long-term growth rate derived from average revenue growth
func (e *Engine) LTGrowth(avgRevGrowth float64) float64 {
	m := e.cal.Market
	return clamp(float64(avgRevGrowth*m.GrowthMultiplier), m.GrowthMin, m.GrowthMax)
}

// NetScore returns moat - ai - bmRisk*weight
func (e *Engine) NetScore(moat, ai, bmRisk float64) float64 {
	return moat - ai - float64(bmRisk*e.cal.Composite.BMNetWeight)
}

// Haircut returns the percentage discount of adjPE against basePE.
// adjPE > basePE yields a negative haircut; it is reported as is.
func Haircut(basePE, adjPE float64) int {
	if basePE <= 0 {
		return 0
	}
	return roundHalfUp((1 - adjPE/basePE) * 100)
}

// Compute runs the full valuation pipeline on a fully populated input
func (e *Engine) Compute(in contracts.ValuationInput) contracts.ValuationResult {
	ms := e.MoatScore(in.Factors)
	ai := e.AIScore(in.Factors)
	bmr := in.BMRisk
	net := e.NetScore(ms, ai, bmr)

	baseCap := e.CAP(ms)
	adjCap := e.AdjustedCAP(baseCap, ai, bmr)
	prem := e.AIPremium(ai, bmr)

	wacc := e.WACC(in.Market.Beta)
	ltg := e.LTGrowth(in.Market.AvgRevGrowth)

	basePE := e.JustifiedPE(wacc, ltg, baseCap)
	adjPE := e.JustifiedPE(wacc+float64(prem)/10000, ltg, adjCap)

	return contracts.ValuationResult{
		MoatScore: ms,
		AIScore:   ai,
		NetScore:  net,
		Tier:      e.ClassifyTier(net),
		BaseCAP:   baseCap,
		AdjCAP:    adjCap,
		AIPremBps: prem,
		WACC:      wacc,
		LTGrowth:  ltg,
		BasePE:    basePE,
		AdjPE:     adjPE,
		Haircut:   Haircut(basePE, adjPE),
		BMRisk:    bmr,
	}
}

// ComputeSector scores one factor record on the simplified sector path
// (no market inputs, no business-model risk)
func (e *Engine) ComputeSector(name string, f contracts.FactorRecord) contracts.SectorComposite {
	ms := e.MoatScore(f)
	ai := e.AIScore(f)
	net := e.NetScore(ms, ai, 0)
	baseCap := e.CAP(ms)

	return contracts.SectorComposite{
		Sector:       name,
		MoatScore:    ms,
		AIScore:      ai,
		NetScore:     net,
		Tier:         e.ClassifyTier(net),
		BaseCAP:      baseCap,
		AdjCAP:       e.AdjustedCAP(baseCap, ai, 0),
		AIPremBps:    e.AIPremium(ai, 0),
		FactorRecord: f,
	}
}

// ComputeSectors computes every sector of the reference table,
// merging sector-level overrides over the base record first
func (e *Engine) ComputeSectors(overrides contracts.OverrideSet) *contracts.CompositeSet {
	sectors := factors.Sectors()
	set := &contracts.CompositeSet{
		Sectors: make([]string, 0, len(sectors)),
		Results: make(map[string]contracts.SectorComposite, len(sectors)),
	}

	for _, s := range sectors {
		merged := s.Factors.Merge(overrides.Sector(s.Name))
		set.Sectors = append(set.Sectors, s.Name)
		set.Results[s.Name] = e.ComputeSector(s.Name, merged)
	}

	return set
}

// TickerFactors resolves the factor record for a ticker:
// sector base ← sector override ← ticker override
func TickerFactors(sector, ticker string, overrides contracts.OverrideSet) (contracts.FactorRecord, error) {
	base, err := factors.Get(sector)
	if err != nil {
		return contracts.FactorRecord{}, err
	}
	return base.Merge(overrides.Sector(sector).Combine(overrides.Ticker(ticker))), nil
}
