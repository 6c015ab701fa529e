package calibration

import "time"

// Config는 스코어링/밸류에이션 모델의 보정 상수 전체
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Weights   Weights   `yaml:"weights" json:"weights"`
	CAP       CAP       `yaml:"cap" json:"cap"`
	Premium   Premium   `yaml:"premium" json:"premium"`
	Tiers     Tiers     `yaml:"tiers" json:"tiers"`
	PE        PE        `yaml:"pe" json:"pe"`
	Market    Market    `yaml:"market" json:"market"`
	Composite Composite `yaml:"composite" json:"composite"`
}

// Meta 메타 정보
type Meta struct {
	ModelID string `yaml:"model_id" json:"model_id"`
	Version string `yaml:"version" json:"version"`
}

// Weights 팩터 가중치 (각 그룹 합 = 1.0)
type Weights struct {
	Moat MoatWeights `yaml:"moat" json:"moat"`
	AI   AIWeights   `yaml:"ai" json:"ai"`
}

type MoatWeights struct {
	SC float64 `yaml:"sc" json:"sc"`
	NE float64 `yaml:"ne" json:"ne"`
	IA float64 `yaml:"ia" json:"ia"`
	CA float64 `yaml:"ca" json:"ca"`
	ES float64 `yaml:"es" json:"es"`
}

// Slice returns the weights in factor order (sc, ne, ia, ca, es)
func (w MoatWeights) Slice() []float64 {
	return []float64{w.SC, w.NE, w.IA, w.CA, w.ES}
}

type AIWeights struct {
	LS  float64 `yaml:"ls" json:"ls"`
	VCD float64 `yaml:"vcd" json:"vcd"`
	DME float64 `yaml:"dme" json:"dme"`
	ANC float64 `yaml:"anc" json:"anc"`
	CIR float64 `yaml:"cir" json:"cir"`
}

// Slice returns the weights in factor order (ls, vcd, dme, anc, cir)
func (w AIWeights) Slice() []float64 {
	return []float64{w.LS, w.VCD, w.DME, w.ANC, w.CIR}
}

// Step maps a score threshold (inclusive, checked from the highest down) to a value
type Step struct {
	Min   float64 `yaml:"min" json:"min"`
	Value int     `yaml:"value" json:"value"`
}

// CAP competitive advantage period
type CAP struct {
	Steps             []Step  `yaml:"steps" json:"steps"`                             // moat score → years
	FloorYears        int     `yaml:"floor_years" json:"floor_years"`                 // below the lowest step
	MinAdjustedYears  int     `yaml:"min_adjusted_years" json:"min_adjusted_years"`   // adjusted CAP floor
	AIThreshold       float64 `yaml:"ai_threshold" json:"ai_threshold"`               // no haircut below
	AIHaircutPerPoint float64 `yaml:"ai_haircut_per_point" json:"ai_haircut_per_point"`
	BMHaircutPerUnit  float64 `yaml:"bm_haircut_per_unit" json:"bm_haircut_per_unit"`
}

// Premium AI 리스크 할인율 프리미엄 (bps)
type Premium struct {
	Steps        []Step  `yaml:"steps" json:"steps"` // ai score → bps
	BMBpsPerUnit float64 `yaml:"bm_bps_per_unit" json:"bm_bps_per_unit"`
	MaxBps       int     `yaml:"max_bps" json:"max_bps"`
}

// Tiers net score upper bounds (inclusive); anything above LowMediumMax is LOW
type Tiers struct {
	CriticalMax  float64 `yaml:"critical_max" json:"critical_max"`
	HighMax      float64 `yaml:"high_max" json:"high_max"`
	MediumMax    float64 `yaml:"medium_max" json:"medium_max"`
	LowMediumMax float64 `yaml:"low_medium_max" json:"low_medium_max"`
}

// PE justified P/E band
type PE struct {
	Fallback       float64 `yaml:"fallback" json:"fallback"` // r <= g
	Min            float64 `yaml:"min" json:"min"`
	Max            float64 `yaml:"max" json:"max"`
	TerminalSpread float64 `yaml:"terminal_spread" json:"terminal_spread"`
}

// Market WACC / long-term growth 파라미터
type Market struct {
	RiskFreeBase     float64 `yaml:"risk_free_base" json:"risk_free_base"`
	EquityPremium    float64 `yaml:"equity_premium" json:"equity_premium"`
	WACCFloor        float64 `yaml:"wacc_floor" json:"wacc_floor"`
	GrowthMultiplier float64 `yaml:"growth_multiplier" json:"growth_multiplier"`
	GrowthMin        float64 `yaml:"growth_min" json:"growth_min"`
	GrowthMax        float64 `yaml:"growth_max" json:"growth_max"`
	DefaultBeta      float64 `yaml:"default_beta" json:"default_beta"`
	DefaultGrowth    float64 `yaml:"default_growth" json:"default_growth"`
}

// Composite net score 구성
type Composite struct {
	BMNetWeight float64 `yaml:"bm_net_weight" json:"bm_net_weight"`
}

// Snapshot 보정 설정 스냅샷 (재현성용)
type Snapshot struct {
	Hash      string    `json:"hash"`
	ModelID   string    `json:"model_id"`
	Version   string    `json:"version"`
	Source    string    `json:"source"` // file path or "default"
	CreatedAt time.Time `json:"created_at"`
}
