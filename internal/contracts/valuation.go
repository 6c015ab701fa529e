package contracts

import "time"

// Tier is the risk tier derived from the net score
type Tier string

// Tiers ordered by descending risk
const (
	TierCritical  Tier = "CRITICAL"
	TierHigh      Tier = "HIGH"
	TierMedium    Tier = "MEDIUM"
	TierLowMedium Tier = "LOW-MEDIUM"
	TierLow       Tier = "LOW"
)

// AllTiers lists tiers from most to least severe
var AllTiers = []Tier{TierCritical, TierHigh, TierMedium, TierLowMedium, TierLow}

// Rank returns the severity rank (0 = CRITICAL, 4 = LOW, -1 = unknown)
func (t Tier) Rank() int {
	for i, tier := range AllTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is one of the five tiers
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// ValuationResult is the output of a full valuation
// ⭐ SSOT: 밸류에이션 결과 → API/CLI/스냅샷
type ValuationResult struct {
	MoatScore float64 `json:"moatScore"`
	AIScore   float64 `json:"aiScore"`
	NetScore  float64 `json:"netScore"`
	Tier      Tier    `json:"tier"`
	BaseCAP   int     `json:"baseCap"`   // years
	AdjCAP    int     `json:"adjCap"`    // years
	AIPremBps int     `json:"aiPremBps"` // basis points
	WACC      float64 `json:"wacc"`
	LTGrowth  float64 `json:"ltGrowth"`
	BasePE    float64 `json:"basePE"`
	AdjPE     float64 `json:"adjPE"`
	Haircut   int     `json:"haircut"` // percent, may be negative
	BMRisk    float64 `json:"bmRisk"`
}

// SectorComposite is the simplified (no market inputs, no bm risk) score of a sector.
// The merged factor values are flattened into the same JSON object.
type SectorComposite struct {
	Sector    string  `json:"sector"`
	MoatScore float64 `json:"moatScore"`
	AIScore   float64 `json:"aiScore"`
	NetScore  float64 `json:"netScore"`
	Tier      Tier    `json:"tier"`
	BaseCAP   int     `json:"baseCap"`
	AdjCAP    int     `json:"adjCap"`
	AIPremBps int     `json:"aiPremBps"`
	FactorRecord
}

// CompositeSet holds the composites of all sectors
// Sectors keeps table order; Results is keyed by sector name.
type CompositeSet struct {
	Sectors []string                   `json:"sectors"`
	Results map[string]SectorComposite `json:"results"`
}

// Get returns the composite for a sector
func (s *CompositeSet) Get(sector string) (SectorComposite, bool) {
	c, ok := s.Results[sector]
	return c, ok
}

// Count returns the number of sectors
func (s *CompositeSet) Count() int {
	return len(s.Results)
}

// Ordered returns the composites in table order
func (s *CompositeSet) Ordered() []SectorComposite {
	out := make([]SectorComposite, 0, len(s.Sectors))
	for _, name := range s.Sectors {
		if c, ok := s.Results[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// TickerValuation is a full valuation of a single ticker with its resolved inputs
type TickerValuation struct {
	Ticker     string          `json:"ticker"`
	Sector     string          `json:"sector"`
	Factors    FactorRecord    `json:"factors"`
	Inputs     MarketInputs    `json:"inputs"`
	Result     ValuationResult `json:"result"`
	ComputedAt time.Time       `json:"computedAt"`
}

// ValuationSnapshot is a persisted TickerValuation
type ValuationSnapshot struct {
	ID    int64  `json:"id"`
	RunID string `json:"runId"`
	TickerValuation
}
