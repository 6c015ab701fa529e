package factors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/backend/internal/contracts"
)

func TestSectors_Count(t *testing.T) {
	assert.Equal(t, 11, Count())
	assert.Len(t, Sectors(), 11)
	assert.Len(t, Names(), 11)
}

func TestSectors_Order(t *testing.T) {
	names := Names()
	assert.Equal(t, InformationTechnology, names[0])
	assert.Equal(t, Materials, names[len(names)-1])
}

func TestSectors_AllRatingsInRange(t *testing.T) {
	for _, s := range Sectors() {
		assert.NoError(t, s.Factors.Validate(), "sector %s", s.Name)
	}
}

func TestLookup(t *testing.T) {
	f, ok := Lookup(InformationTechnology)
	require.True(t, ok)
	assert.Equal(t, contracts.FactorRecord{SC: 4, NE: 4, IA: 4, CA: 3, ES: 2, LS: 3, VCD: 2, DME: 3, ANC: 4, CIR: 3}, f)

	_, ok = Lookup("Crypto")
	assert.False(t, ok)

	_, err := Get("Crypto")
	assert.True(t, errors.Is(err, ErrUnknownSector))
}

func TestSectors_ReturnsCopy(t *testing.T) {
	s := Sectors()
	s[0].Factors.SC = 1

	f, _ := Lookup(InformationTechnology)
	assert.Equal(t, 4.0, f.SC, "table must not be mutated through Sectors()")
}
