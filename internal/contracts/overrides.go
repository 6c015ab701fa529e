package contracts

// OverrideSet holds user (PM) overrides of factor ratings
// ⭐ SSOT: 오버라이드 직렬화 포맷 {sectors:{}, tickers:{}}
type OverrideSet struct {
	Sectors map[string]PartialFactorRecord `json:"sectors"`
	Tickers map[string]PartialFactorRecord `json:"tickers"`
}

// EmptyOverrides returns an override set with empty (non-nil) maps
func EmptyOverrides() OverrideSet {
	return OverrideSet{
		Sectors: map[string]PartialFactorRecord{},
		Tickers: map[string]PartialFactorRecord{},
	}
}

// Normalize replaces nil maps with empty ones
func (o OverrideSet) Normalize() OverrideSet {
	if o.Sectors == nil {
		o.Sectors = map[string]PartialFactorRecord{}
	}
	if o.Tickers == nil {
		o.Tickers = map[string]PartialFactorRecord{}
	}
	return o
}

// Clone deep-copies the set
func (o OverrideSet) Clone() OverrideSet {
	out := EmptyOverrides()
	for k, v := range o.Sectors {
		out.Sectors[k] = v.Clone()
	}
	for k, v := range o.Tickers {
		out.Tickers[k] = v.Clone()
	}
	return out
}

// Sector returns the override of a sector (zero value when none)
func (o OverrideSet) Sector(name string) PartialFactorRecord {
	return o.Sectors[name]
}

// Ticker returns the override of a ticker (zero value when none)
func (o OverrideSet) Ticker(symbol string) PartialFactorRecord {
	return o.Tickers[symbol]
}

// Validate checks every stored rating
func (o OverrideSet) Validate() error {
	for name, p := range o.Sectors {
		if err := p.Validate(); err != nil {
			return ValidationError{"sectors." + name, err.Error()}
		}
	}
	for symbol, p := range o.Tickers {
		if err := p.Validate(); err != nil {
			return ValidationError{"tickers." + symbol, err.Error()}
		}
	}
	return nil
}

// Count returns the number of sector and ticker overrides
func (o OverrideSet) Count() (sectors int, tickers int) {
	return len(o.Sectors), len(o.Tickers)
}
