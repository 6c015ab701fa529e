package calibration

import (
	"errors"
	"fmt"
	"math"
)

// weightEpsilon 가중치 합 허용 오차
const weightEpsilon = 1e-9

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Weights ===
	if err := validateWeightsSum(cfg.Weights.Moat.Slice(), 1.0, weightEpsilon); err != nil {
		return ValidationError{"weights.moat", err.Error()}
	}
	if err := validateWeightsSum(cfg.Weights.AI.Slice(), 1.0, weightEpsilon); err != nil {
		return ValidationError{"weights.ai", err.Error()}
	}

	// === CAP ===
	if err := validateSteps(cfg.CAP.Steps); err != nil {
		return ValidationError{"cap.steps", err.Error()}
	}
	if cfg.CAP.FloorYears <= 0 {
		return ValidationError{"cap.floor_years", "must be > 0"}
	}
	if cfg.CAP.MinAdjustedYears <= 0 {
		return ValidationError{"cap.min_adjusted_years", "must be > 0"}
	}
	if cfg.CAP.AIHaircutPerPoint < 0 || cfg.CAP.BMHaircutPerUnit < 0 {
		return ValidationError{"cap", "haircut rates must be >= 0"}
	}

	// === Premium ===
	if err := validateSteps(cfg.Premium.Steps); err != nil {
		return ValidationError{"premium.steps", err.Error()}
	}
	if cfg.Premium.MaxBps <= 0 {
		return ValidationError{"premium.max_bps", "must be > 0"}
	}
	if cfg.Premium.BMBpsPerUnit < 0 {
		return ValidationError{"premium.bm_bps_per_unit", "must be >= 0"}
	}

	// === Tiers: critical < high < medium < low_medium ===
	t := cfg.Tiers
	if !(t.CriticalMax < t.HighMax && t.HighMax < t.MediumMax && t.MediumMax < t.LowMediumMax) {
		return ValidationError{"tiers", "bounds must be strictly ascending"}
	}

	// === PE ===
	if cfg.PE.Min <= 0 || cfg.PE.Min >= cfg.PE.Max {
		return ValidationError{"pe", "must satisfy 0 < min < max"}
	}
	if cfg.PE.Fallback <= 0 {
		return ValidationError{"pe.fallback", "must be > 0"}
	}
	if cfg.PE.TerminalSpread < 0 {
		return ValidationError{"pe.terminal_spread", "must be >= 0"}
	}

	// === Market ===
	m := cfg.Market
	if m.WACCFloor <= 0 {
		return ValidationError{"market.wacc_floor", "must be > 0"}
	}
	if m.GrowthMin > m.GrowthMax {
		return ValidationError{"market", "growth_min must be <= growth_max"}
	}
	if m.GrowthMultiplier <= 0 {
		return ValidationError{"market.growth_multiplier", "must be > 0"}
	}
	if m.DefaultBeta <= 0 {
		return ValidationError{"market.default_beta", "must be > 0"}
	}

	// === Composite ===
	if cfg.Composite.BMNetWeight < 0 {
		return ValidationError{"composite.bm_net_weight", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 프리미엄 상한이 최고 구간보다 낮으면 구간이 무의미
	if len(cfg.Premium.Steps) > 0 && cfg.Premium.MaxBps < cfg.Premium.Steps[0].Value {
		warnings = append(warnings, Warning{
			Code:    "PREMIUM_CAP_BELOW_TOP_STEP",
			Message: fmt.Sprintf("max_bps=%d < top step=%d", cfg.Premium.MaxBps, cfg.Premium.Steps[0].Value),
		})
	}

	// WACC 하한 >= 성장률 상한이 아니면 r <= g fallback 발생 가능
	if cfg.Market.WACCFloor <= cfg.Market.GrowthMax {
		warnings = append(warnings, Warning{
			Code:    "WACC_FLOOR_BELOW_GROWTH",
			Message: "wacc_floor <= growth_max: justified P/E may hit the r <= g fallback",
		})
	}

	// terminal spread가 WACC 하한 이상이면 terminal 항 발산
	if cfg.PE.TerminalSpread >= cfg.Market.WACCFloor {
		warnings = append(warnings, Warning{
			Code:    "TERMINAL_SPREAD_TOO_WIDE",
			Message: "terminal_spread >= wacc_floor: terminal stage diverges",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return errors.New("weights must be >= 0")
		}
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validateSteps는 구간 임계값이 엄격히 내림차순인지 검증
func validateSteps(steps []Step) error {
	if len(steps) == 0 {
		return errors.New("must not be empty")
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Min >= steps[i-1].Min {
			return fmt.Errorf("thresholds must be strictly descending at [%d]", i)
		}
	}
	return nil
}
