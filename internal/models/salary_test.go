package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCapHit(t *testing.T) {
	assert.Equal(t, 12500000.0, ParseCapHit("$12,500,000"))
	assert.Equal(t, 950000.0, ParseCapHit(" 950000 "))
	assert.Equal(t, 0.0, ParseCapHit("n/a"), "unparseable cap hits fall back to zero")
	assert.Equal(t, 0.0, ParseCapHit(""))
}

func TestSalaryRecord_EntryDefaultsYears(t *testing.T) {
	e := SalaryRecord{FullName: "Cale Makar", CapHit: "$9,000,000"}.Entry()

	assert.Equal(t, "$9,000,000", e.Display)
	assert.Equal(t, 9000000.0, e.Value)
	assert.Equal(t, "0", e.Years)
}

func TestSalaryTable_LookupIsCaseInsensitive(t *testing.T) {
	table := SalaryTable{
		NormalizeName("Connor McDavid"): {Display: "$12,500,000", Value: 12500000, Years: "2026"},
	}

	e, ok := table.Lookup("  connor MCDAVID ")
	assert.True(t, ok)
	assert.Equal(t, 12500000.0, e.Value)

	_, ok = table.Lookup("Connor")
	assert.False(t, ok, "matching is exact, not prefix")
}
