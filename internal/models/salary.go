package models

import (
	"strconv"
	"strings"
)

// SalaryRecord is one row of a user-supplied salary upload
type SalaryRecord struct {
	FullName  string `json:"full_name" yaml:"full_name"`
	CapHit    string `json:"cap_hit" yaml:"cap_hit"`
	YearsLeft string `json:"years_left" yaml:"years_left"`
}

// Entry converts the raw row into its stored form
func (r SalaryRecord) Entry() SalaryEntry {
	years := strings.TrimSpace(r.YearsLeft)
	if years == "" {
		years = "0"
	}
	return SalaryEntry{
		Display: strings.TrimSpace(r.CapHit),
		Value:   ParseCapHit(r.CapHit),
		Years:   years,
	}
}

// SalaryEntry holds the salary fields applied to a player
type SalaryEntry struct {
	Display string
	Value   float64
	Years   string
}

// SalaryTable is keyed by NormalizeName(full name)
type SalaryTable map[string]SalaryEntry

// Lookup matches a display name case-insensitively
func (t SalaryTable) Lookup(name string) (SalaryEntry, bool) {
	e, ok := t[NormalizeName(name)]
	return e, ok
}

// NormalizeName is the key form used for name-matched side channels
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseCapHit converts a display value such as "$12,500,000" to a number.
// Unparseable values yield 0.
func ParseCapHit(s string) float64 {
	clean := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return v
}
