package moat

import "github.com/wonny/moat/backend/internal/contracts"

// Products are wrapped in float64() so the compiler never fuses them into FMA
// instructions; scores must be bit-identical across platforms.

// MoatScore returns sc*w + ne*w + ia*w + ca*w + es*w (1~5 when inputs are 1~5)
func (e *Engine) MoatScore(f contracts.FactorRecord) float64 {
	w := e.cal.Weights.Moat
	return float64(f.SC*w.SC) +
		float64(f.NE*w.NE) +
		float64(f.IA*w.IA) +
		float64(f.CA*w.CA) +
		float64(f.ES*w.ES)
}

// AIScore returns ls*w + vcd*w + dme*w + anc*w + cir*w
func (e *Engine) AIScore(f contracts.FactorRecord) float64 {
	w := e.cal.Weights.AI
	return float64(f.LS*w.LS) +
		float64(f.VCD*w.VCD) +
		float64(f.DME*w.DME) +
		float64(f.ANC*w.ANC) +
		float64(f.CIR*w.CIR)
}
