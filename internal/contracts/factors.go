package contracts

import (
	"fmt"
	"math"
)

// Factor rating bounds (1~5 척도)
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// FactorRecord holds the ten qualitative factor ratings of a sector or ticker
// ⭐ SSOT: 팩터 레코드 정의는 여기서만
//
// Moat factors: SC, NE, IA, CA, ES
// AI-risk factors: LS, VCD, DME, ANC, CIR
type FactorRecord struct {
	SC  float64 `json:"sc" yaml:"sc"`   // switching costs
	NE  float64 `json:"ne" yaml:"ne"`   // network effects
	IA  float64 `json:"ia" yaml:"ia"`   // intangible assets
	CA  float64 `json:"ca" yaml:"ca"`   // cost advantage
	ES  float64 `json:"es" yaml:"es"`   // efficient scale
	LS  float64 `json:"ls" yaml:"ls"`   // labor substitution
	VCD float64 `json:"vcd" yaml:"vcd"` // value chain disruption
	DME float64 `json:"dme" yaml:"dme"` // data/model edge
	ANC float64 `json:"anc" yaml:"anc"` // autonomous/new competition
	CIR float64 `json:"cir" yaml:"cir"` // customer interaction risk
}

// FactorKeys lists the short factor keys in canonical order
var FactorKeys = []string{"sc", "ne", "ia", "ca", "es", "ls", "vcd", "dme", "anc", "cir"}

// Fields returns the ratings keyed by short factor key
func (f FactorRecord) Fields() map[string]float64 {
	return map[string]float64{
		"sc": f.SC, "ne": f.NE, "ia": f.IA, "ca": f.CA, "es": f.ES,
		"ls": f.LS, "vcd": f.VCD, "dme": f.DME, "anc": f.ANC, "cir": f.CIR,
	}
}

// Validate checks that every rating lies in [1,5]
// Scoring functions never call this; boundary code (API, override store) does.
func (f FactorRecord) Validate() error {
	fields := f.Fields()
	for _, key := range FactorKeys {
		if err := validateRating(key, fields[key]); err != nil {
			return err
		}
	}
	return nil
}

// Merge applies a partial override on top of the record (shallow, override wins)
func (f FactorRecord) Merge(ov PartialFactorRecord) FactorRecord {
	merged := f
	if ov.SC != nil {
		merged.SC = *ov.SC
	}
	if ov.NE != nil {
		merged.NE = *ov.NE
	}
	if ov.IA != nil {
		merged.IA = *ov.IA
	}
	if ov.CA != nil {
		merged.CA = *ov.CA
	}
	if ov.ES != nil {
		merged.ES = *ov.ES
	}
	if ov.LS != nil {
		merged.LS = *ov.LS
	}
	if ov.VCD != nil {
		merged.VCD = *ov.VCD
	}
	if ov.DME != nil {
		merged.DME = *ov.DME
	}
	if ov.ANC != nil {
		merged.ANC = *ov.ANC
	}
	if ov.CIR != nil {
		merged.CIR = *ov.CIR
	}
	return merged
}

// PartialFactorRecord is a FactorRecord with every field optional (override payload)
type PartialFactorRecord struct {
	SC  *float64 `json:"sc,omitempty" yaml:"sc,omitempty"`
	NE  *float64 `json:"ne,omitempty" yaml:"ne,omitempty"`
	IA  *float64 `json:"ia,omitempty" yaml:"ia,omitempty"`
	CA  *float64 `json:"ca,omitempty" yaml:"ca,omitempty"`
	ES  *float64 `json:"es,omitempty" yaml:"es,omitempty"`
	LS  *float64 `json:"ls,omitempty" yaml:"ls,omitempty"`
	VCD *float64 `json:"vcd,omitempty" yaml:"vcd,omitempty"`
	DME *float64 `json:"dme,omitempty" yaml:"dme,omitempty"`
	ANC *float64 `json:"anc,omitempty" yaml:"anc,omitempty"`
	CIR *float64 `json:"cir,omitempty" yaml:"cir,omitempty"`
}

// Rating returns a pointer to v, for building partial records
func Rating(v float64) *float64 {
	return &v
}

// fieldPtrs returns the optional ratings keyed by short factor key
func (p PartialFactorRecord) fieldPtrs() map[string]*float64 {
	return map[string]*float64{
		"sc": p.SC, "ne": p.NE, "ia": p.IA, "ca": p.CA, "es": p.ES,
		"ls": p.LS, "vcd": p.VCD, "dme": p.DME, "anc": p.ANC, "cir": p.CIR,
	}
}

// IsEmpty reports whether no field is set
func (p PartialFactorRecord) IsEmpty() bool {
	for _, v := range p.fieldPtrs() {
		if v != nil {
			return false
		}
	}
	return true
}

// Validate checks that every present rating lies in [1,5]
func (p PartialFactorRecord) Validate() error {
	fields := p.fieldPtrs()
	for _, key := range FactorKeys {
		if v := fields[key]; v != nil {
			if err := validateRating(key, *v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Combine layers another partial on top of p (other wins)
func (p PartialFactorRecord) Combine(other PartialFactorRecord) PartialFactorRecord {
	out := p.Clone()
	pick := func(dst **float64, src *float64) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	pick(&out.SC, other.SC)
	pick(&out.NE, other.NE)
	pick(&out.IA, other.IA)
	pick(&out.CA, other.CA)
	pick(&out.ES, other.ES)
	pick(&out.LS, other.LS)
	pick(&out.VCD, other.VCD)
	pick(&out.DME, other.DME)
	pick(&out.ANC, other.ANC)
	pick(&out.CIR, other.CIR)
	return out
}

// Clone deep-copies the pointer fields
func (p PartialFactorRecord) Clone() PartialFactorRecord {
	cp := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		c := *v
		return &c
	}
	return PartialFactorRecord{
		SC: cp(p.SC), NE: cp(p.NE), IA: cp(p.IA), CA: cp(p.CA), ES: cp(p.ES),
		LS: cp(p.LS), VCD: cp(p.VCD), DME: cp(p.DME), ANC: cp(p.ANC), CIR: cp(p.CIR),
	}
}

// ValidationError 입력 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateRating(key string, v float64) error {
	if math.IsNaN(v) || v < MinRating || v > MaxRating {
		return ValidationError{key, fmt.Sprintf("must be in [%.0f, %.0f], got %g", MinRating, MaxRating, v)}
	}
	return nil
}
