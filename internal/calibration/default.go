package calibration

// Default returns the reference calibration.
// ⭐ SSOT: 기준 보정 상수는 여기서만 (config/calibration/default.yaml과 동일해야 함)
func Default() *Config {
	return &Config{
		Meta: Meta{
			ModelID: "moat_ai_v3",
			Version: "3.0.0",
		},
		Weights: Weights{
			Moat: MoatWeights{SC: 0.25, NE: 0.20, IA: 0.25, CA: 0.15, ES: 0.15},
			AI:   AIWeights{LS: 0.25, VCD: 0.25, DME: 0.15, ANC: 0.20, CIR: 0.15},
		},
		CAP: CAP{
			Steps: []Step{
				{Min: 4, Value: 22},
				{Min: 3.5, Value: 18},
				{Min: 3, Value: 14},
				{Min: 2.5, Value: 10},
				{Min: 2, Value: 7},
			},
			FloorYears:        4,
			MinAdjustedYears:  2,
			AIThreshold:       1.5,
			AIHaircutPerPoint: 0.15,
			BMHaircutPerUnit:  0.05,
		},
		Premium: Premium{
			Steps: []Step{
				{Min: 4, Value: 300},
				{Min: 3.5, Value: 225},
				{Min: 3, Value: 150},
				{Min: 2.5, Value: 100},
				{Min: 2, Value: 50},
			},
			BMBpsPerUnit: 15,
			MaxBps:       400,
		},
		Tiers: Tiers{
			CriticalMax:  -2,
			HighMax:      -0.5,
			MediumMax:    0.5,
			LowMediumMax: 1.5,
		},
		PE: PE{
			Fallback:       30,
			Min:            5,
			Max:            50,
			TerminalSpread: 0.02,
		},
		Market: Market{
			RiskFreeBase:     0.045,
			EquityPremium:    0.05,
			WACCFloor:        0.06,
			GrowthMultiplier: 0.4,
			GrowthMin:        0.015,
			GrowthMax:        0.04,
			DefaultBeta:      1,
			DefaultGrowth:    0.05,
		},
		Composite: Composite{
			BMNetWeight: 0.3,
		},
	}
}
