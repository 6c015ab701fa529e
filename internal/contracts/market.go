package contracts

// Market input defaults applied when a quote field is missing (or zero)
const (
	DefaultBeta         = 1.0
	DefaultAvgRevGrowth = 0.05
)

// MarketQuote is raw per-ticker market data as delivered by a data source
// nil 필드 = 데이터 없음 (Resolve 단계에서 기본값 적용)
type MarketQuote struct {
	Beta         *float64 `json:"beta,omitempty"`
	AvgRevGrowth *float64 `json:"avgRevGrowth,omitempty"`
}

// MarketInputs is the fully populated market input of a valuation
type MarketInputs struct {
	Beta         float64 `json:"beta"`
	AvgRevGrowth float64 `json:"avgRevGrowth"`
}

// DefaultMarketInputs returns the inputs used when nothing is known about a ticker
func DefaultMarketInputs() MarketInputs {
	return MarketInputs{Beta: DefaultBeta, AvgRevGrowth: DefaultAvgRevGrowth}
}

// Resolve fills missing fields with the package defaults
func (q MarketQuote) Resolve() MarketInputs {
	return q.ResolveWith(DefaultMarketInputs())
}

// ResolveWith fills missing fields from defaults.
// A zero value counts as missing: a beta or growth of exactly 0 is treated as "no data".
func (q MarketQuote) ResolveWith(defaults MarketInputs) MarketInputs {
	in := defaults
	if q.Beta != nil && *q.Beta != 0 {
		in.Beta = *q.Beta
	}
	if q.AvgRevGrowth != nil && *q.AvgRevGrowth != 0 {
		in.AvgRevGrowth = *q.AvgRevGrowth
	}
	return in
}

// Fill returns q with missing fields taken from other
func (q MarketQuote) Fill(other MarketQuote) MarketQuote {
	if q.Beta == nil && other.Beta != nil {
		v := *other.Beta
		q.Beta = &v
	}
	if q.AvgRevGrowth == nil && other.AvgRevGrowth != nil {
		v := *other.AvgRevGrowth
		q.AvgRevGrowth = &v
	}
	return q
}

// Complete reports whether both fields are present
func (q MarketQuote) Complete() bool {
	return q.Beta != nil && q.AvgRevGrowth != nil
}

// RiskAdjustment carries business-model risk independent of the moat/AI factors
type RiskAdjustment struct {
	CompositeRisk *float64 `json:"compositeRisk,omitempty"`
}

// Value returns the composite risk, 0 when absent
func (r *RiskAdjustment) Value() float64 {
	if r == nil || r.CompositeRisk == nil {
		return 0
	}
	return *r.CompositeRisk
}

// ValuationInput is the fully populated input of a full valuation
// ⭐ SSOT: 기본값 처리는 NewValuationInput에서만 (계산 함수는 nil 처리 없음)
type ValuationInput struct {
	Market  MarketInputs `json:"market"`
	Factors FactorRecord `json:"factors"`
	BMRisk  float64      `json:"bmRisk"`
}

// NewValuationInput builds a ValuationInput from raw, possibly incomplete data
func NewValuationInput(quote MarketQuote, factors FactorRecord, risk *RiskAdjustment) ValuationInput {
	return ValuationInput{
		Market:  quote.Resolve(),
		Factors: factors,
		BMRisk:  risk.Value(),
	}
}
