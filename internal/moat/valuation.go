package moat

import (
	"math"

	"github.com/wonny/moat/backend/internal/calibration"
	"github.com/wonny/moat/backend/internal/contracts"
)

// CAP returns the competitive advantage period (years) for a moat score.
// First step (highest threshold) the score reaches wins; below all steps → floor.
func (e *Engine) CAP(moat float64) int {
	return stepValue(e.cal.CAP.Steps, moat, e.cal.CAP.FloorYears)
}

// AdjustedCAP shortens the CAP by AI exposure above the threshold and by
// business-model risk. Never below MinAdjustedYears.
func (e *Engine) AdjustedCAP(cap int, ai, bmRisk float64) int {
	c := e.cal.CAP
	aiCut := math.Max(0, float64((ai-c.AIThreshold)*c.AIHaircutPerPoint))
	factor := 1 - aiCut - float64(bmRisk*c.BMHaircutPerUnit)
	years := roundHalfUp(float64(float64(cap) * factor))
	if years < c.MinAdjustedYears {
		return c.MinAdjustedYears
	}
	return years
}

// AIPremium returns the discount-rate premium in whole bps: AI step + bm risk, capped, rounded half-up
func (e *Engine) AIPremium(ai, bmRisk float64) int {
	p := e.cal.Premium
	bps := float64(stepValue(p.Steps, ai, 0)) + float64(bmRisk*p.BMBpsPerUnit)
	return roundHalfUp(math.Min(float64(p.MaxBps), bps))
}

// JustifiedPE approximates a two-stage DDM P/E.
// r=required return, g=long-term growth, c=competitive advantage period (years)
//
//	PE = (1/(r-g))*(1-((1+g)/(1+r))^c) + ((1+g)/(1+r))^c * (1/(r-spread))
//
// r <= g does not converge and returns the fallback. Output is clamped to [min, max].
func (e *Engine) JustifiedPE(r, g float64, c int) float64 {
	pe := e.cal.PE
	if r <= g {
		return pe.Fallback
	}

	decay := math.Pow((1+g)/(1+r), float64(c))
	growthStage := float64((1 / (r - g)) * (1 - decay))
	terminalStage := float64(decay * (1 / (r - pe.TerminalSpread)))

	return clamp(growthStage+terminalStage, pe.Min, pe.Max)
}

// ClassifyTier maps a net score to a tier; each bound is inclusive on the severe side
func (e *Engine) ClassifyTier(net float64) contracts.Tier {
	t := e.cal.Tiers
	switch {
	case net <= t.CriticalMax:
		return contracts.TierCritical
	case net <= t.HighMax:
		return contracts.TierHigh
	case net <= t.MediumMax:
		return contracts.TierMedium
	case net <= t.LowMediumMax:
		return contracts.TierLowMedium
	default:
		return contracts.TierLow
	}
}

// stepValue returns the value of the first step whose threshold x reaches
func stepValue(steps []calibration.Step, x float64, fallback int) int {
	for _, s := range steps {
		if x >= s.Min {
			return s.Value
		}
	}
	return fallback
}

// roundHalfUp rounds to the nearest integer, halves toward +Inf (-2.5 → -2)
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
