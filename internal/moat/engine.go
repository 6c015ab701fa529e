// Package moat implements the moat / AI-disruption scoring and valuation core.
//
// Every function here is pure: no I/O, no shared mutable state, no logging.
// Callers build fully populated inputs (contracts.NewValuationInput or
// Engine.Input) before invoking the core.
package moat

import (
	"github.com/wonny/moat/backend/internal/calibration"
	"github.com/wonny/moat/backend/internal/contracts"
)

// Engine evaluates the scoring model under one calibration
// ⭐ SSOT: 스코어링/밸류에이션 공식은 이 패키지에서만
type Engine struct {
	cal *calibration.Config
}

// New creates an engine for a validated calibration
func New(cal *calibration.Config) (*Engine, error) {
	if err := calibration.Validate(cal); err != nil {
		return nil, err
	}
	return &Engine{cal: cal}, nil
}

var defaultEngine = &Engine{cal: calibration.Default()}

// Default returns the engine with the reference calibration
func Default() *Engine {
	return defaultEngine
}

// Calibration returns the engine's calibration (read-only by convention)
func (e *Engine) Calibration() *calibration.Config {
	return e.cal
}

// MarketDefaults returns the market inputs used when a quote has gaps
func (e *Engine) MarketDefaults() contracts.MarketInputs {
	return contracts.MarketInputs{
		Beta:         e.cal.Market.DefaultBeta,
		AvgRevGrowth: e.cal.Market.DefaultGrowth,
	}
}

// Input builds a fully populated ValuationInput using this engine's market defaults
func (e *Engine) Input(quote contracts.MarketQuote, f contracts.FactorRecord, risk *contracts.RiskAdjustment) contracts.ValuationInput {
	return contracts.ValuationInput{
		Market:  quote.ResolveWith(e.MarketDefaults()),
		Factors: f,
		BMRisk:  risk.Value(),
	}
}

// Package-level functions evaluate the reference calibration.

// MoatScore returns the weighted moat score of f
func MoatScore(f contracts.FactorRecord) float64 { return defaultEngine.MoatScore(f) }

// AIScore returns the weighted AI disruption score of f
func AIScore(f contracts.FactorRecord) float64 { return defaultEngine.AIScore(f) }

// CAP returns the competitive advantage period for a moat score
func CAP(moat float64) int { return defaultEngine.CAP(moat) }

// AdjustedCAP returns the AI/risk-adjusted competitive advantage period
func AdjustedCAP(cap int, ai, bmRisk float64) int { return defaultEngine.AdjustedCAP(cap, ai, bmRisk) }

// AIPremium returns the discount-rate premium in basis points
func AIPremium(ai, bmRisk float64) int { return defaultEngine.AIPremium(ai, bmRisk) }

// JustifiedPE returns the two-stage justified P/E
func JustifiedPE(r, g float64, c int) float64 { return defaultEngine.JustifiedPE(r, g, c) }

// ClassifyTier maps a net score to a risk tier
func ClassifyTier(net float64) contracts.Tier { return defaultEngine.ClassifyTier(net) }

// Compute runs the full valuation
func Compute(in contracts.ValuationInput) contracts.ValuationResult { return defaultEngine.Compute(in) }

// ComputeSectors computes the composite of every sector
func ComputeSectors(overrides contracts.OverrideSet) *contracts.CompositeSet {
	return defaultEngine.ComputeSectors(overrides)
}
