package factors

import (
	"errors"
	"fmt"

	"github.com/wonny/moat/backend/internal/contracts"
)

// ErrUnknownSector is returned when a sector is not in the reference table
var ErrUnknownSector = errors.New("unknown sector")

// Sector names (GICS)
const (
	InformationTechnology = "Information Technology"
	CommunicationServices = "Communication Services"
	HealthCare            = "Health Care"
	Financials            = "Financials"
	ConsumerStaples       = "Consumer Staples"
	Industrials           = "Industrials"
	ConsumerDiscretionary = "Consumer Discretionary"
	Energy                = "Energy"
	Utilities             = "Utilities"
	RealEstate            = "Real Estate"
	Materials             = "Materials"
)

type entry struct {
	name    string
	factors contracts.FactorRecord
}

// sectorTable is the reference factor table (calibration constants)
// ⭐ SSOT: 섹터 팩터 기준표는 여기서만 (순서 = 표시 순서)
var sectorTable = []entry{
	{InformationTechnology, contracts.FactorRecord{SC: 4, NE: 4, IA: 4, CA: 3, ES: 2, LS: 3, VCD: 2, DME: 3, ANC: 4, CIR: 3}},
	{CommunicationServices, contracts.FactorRecord{SC: 3, NE: 5, IA: 4, CA: 2, ES: 3, LS: 3, VCD: 3, DME: 4, ANC: 3, CIR: 4}},
	{HealthCare, contracts.FactorRecord{SC: 3, NE: 1, IA: 5, CA: 2, ES: 3, LS: 2, VCD: 2, DME: 2, ANC: 3, CIR: 2}},
	{Financials, contracts.FactorRecord{SC: 3, NE: 2, IA: 3, CA: 3, ES: 3, LS: 5, VCD: 4, DME: 3, ANC: 4, CIR: 4}},
	{ConsumerStaples, contracts.FactorRecord{SC: 2, NE: 1, IA: 4, CA: 4, ES: 2, LS: 2, VCD: 2, DME: 1, ANC: 2, CIR: 1}},
	{Industrials, contracts.FactorRecord{SC: 3, NE: 1, IA: 3, CA: 4, ES: 3, LS: 3, VCD: 2, DME: 2, ANC: 2, CIR: 2}},
	{ConsumerDiscretionary, contracts.FactorRecord{SC: 2, NE: 2, IA: 3, CA: 2, ES: 1, LS: 3, VCD: 4, DME: 3, ANC: 3, CIR: 3}},
	{Energy, contracts.FactorRecord{SC: 1, NE: 1, IA: 2, CA: 4, ES: 4, LS: 1, VCD: 1, DME: 1, ANC: 1, CIR: 1}},
	{Utilities, contracts.FactorRecord{SC: 2, NE: 1, IA: 3, CA: 3, ES: 5, LS: 1, VCD: 1, DME: 1, ANC: 1, CIR: 1}},
	{RealEstate, contracts.FactorRecord{SC: 2, NE: 1, IA: 2, CA: 2, ES: 3, LS: 3, VCD: 4, DME: 2, ANC: 3, CIR: 3}},
	{Materials, contracts.FactorRecord{SC: 1, NE: 1, IA: 2, CA: 4, ES: 3, LS: 2, VCD: 1, DME: 1, ANC: 1, CIR: 1}},
}

// Sector is a named base factor record
type Sector struct {
	Name    string
	Factors contracts.FactorRecord
}

// Sectors returns all sectors in table order (copy; callers may not mutate the table)
func Sectors() []Sector {
	out := make([]Sector, len(sectorTable))
	for i, e := range sectorTable {
		out[i] = Sector{Name: e.name, Factors: e.factors}
	}
	return out
}

// Names returns the sector names in table order
func Names() []string {
	names := make([]string, len(sectorTable))
	for i, e := range sectorTable {
		names[i] = e.name
	}
	return names
}

// Lookup returns the base factor record of a sector
func Lookup(name string) (contracts.FactorRecord, bool) {
	for _, e := range sectorTable {
		if e.name == name {
			return e.factors, true
		}
	}
	return contracts.FactorRecord{}, false
}

// Get is Lookup returning ErrUnknownSector instead of a bool
func Get(name string) (contracts.FactorRecord, error) {
	f, ok := Lookup(name)
	if !ok {
		return contracts.FactorRecord{}, fmt.Errorf("%w: %q", ErrUnknownSector, name)
	}
	return f, nil
}

// Count returns the number of sectors in the table
func Count() int {
	return len(sectorTable)
}
