package calibration

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() should be valid: %v", err)
	}
	if w := Warn(Default()); len(w) != 0 {
		t.Errorf("Default() should produce no warnings, got %v", w)
	}
}

func TestLoad_DefaultFileMatchesDefault(t *testing.T) {
	path := "../../config/calibration/default.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("calibration file not found")
	}

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want, _ := Hash(Default())
	got, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if got != want {
		t.Errorf("default.yaml drifted from Default(): hash %s != %s", got, want)
	}

	t.Logf("calibration hash: %s", got)
	t.Logf("yaml size: %d bytes", len(yamlData))
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("meta:\n  model_id: x\n  typo_field: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"moat weights off", func(c *Config) { c.Weights.Moat.SC = 0.3 }, "weights.moat"},
		{"ai weights off", func(c *Config) { c.Weights.AI.CIR = 0.1 }, "weights.ai"},
		{"negative weight", func(c *Config) { c.Weights.AI.LS = -0.25; c.Weights.AI.VCD = 0.75 }, "weights.ai"},
		{"cap steps ascending", func(c *Config) { c.CAP.Steps[1].Min = 4.5 }, "cap.steps"},
		{"cap steps empty", func(c *Config) { c.CAP.Steps = nil }, "cap.steps"},
		{"adjusted floor", func(c *Config) { c.CAP.MinAdjustedYears = 0 }, "cap.min_adjusted_years"},
		{"premium cap", func(c *Config) { c.Premium.MaxBps = 0 }, "premium.max_bps"},
		{"tiers order", func(c *Config) { c.Tiers.HighMax = -3 }, "tiers"},
		{"pe band", func(c *Config) { c.PE.Min = 60 }, "pe"},
		{"growth clamp", func(c *Config) { c.Market.GrowthMin = 0.05 }, "market"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Premium.MaxBps = 200     // < 300 top step
	cfg.Market.WACCFloor = 0.03  // <= growth_max 0.04
	cfg.PE.TerminalSpread = 0.03 // >= wacc_floor

	warnings := Warn(cfg)
	if len(warnings) != 3 {
		t.Errorf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestHash_Deterministic(t *testing.T) {
	h1, _ := Hash(Default())
	h2, _ := Hash(Default())
	if h1 != h2 {
		t.Error("hash not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(h1))
	}

	changed := Default()
	changed.Composite.BMNetWeight = 0.4
	h3, _ := Hash(changed)
	if h3 == h1 {
		t.Error("hash should change with calibration")
	}
}

func TestNewSnapshot(t *testing.T) {
	snap, err := NewSnapshot(Default(), "default")
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	if snap.ModelID != "moat_ai_v3" {
		t.Errorf("model_id = %s", snap.ModelID)
	}
	if !strings.EqualFold(snap.Source, "default") {
		t.Errorf("source = %s", snap.Source)
	}
}

func TestLoadOrDefault_EmptyPath(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.PE.Max != 50 {
		t.Errorf("expected default calibration, got pe.max=%v", cfg.PE.Max)
	}
}
