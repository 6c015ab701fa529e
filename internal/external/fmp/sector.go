package fmp

import (
	"strings"

	"github.com/wonny/moat/backend/internal/factors"
)

// FMP reports Morningstar-style sector names; map them onto the GICS table
var sectorNames = map[string]string{
	"technology":             factors.InformationTechnology,
	"information technology": factors.InformationTechnology,
	"communication services": factors.CommunicationServices,
	"healthcare":             factors.HealthCare,
	"health care":            factors.HealthCare,
	"financial services":     factors.Financials,
	"financials":             factors.Financials,
	"consumer defensive":     factors.ConsumerStaples,
	"consumer staples":       factors.ConsumerStaples,
	"industrials":            factors.Industrials,
	"consumer cyclical":      factors.ConsumerDiscretionary,
	"consumer discretionary": factors.ConsumerDiscretionary,
	"energy":                 factors.Energy,
	"utilities":              factors.Utilities,
	"real estate":            factors.RealEstate,
	"basic materials":        factors.Materials,
	"materials":              factors.Materials,
}

// MapSector converts an FMP profile sector to a reference table sector
func MapSector(name string) (string, bool) {
	s, ok := sectorNames[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}
