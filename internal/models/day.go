package models

import (
	"fmt"
	"strconv"
	"time"
)

// DayLayout is the canonical text form of a Day
const DayLayout = "2006-01-02"

// Day is a calendar date in UTC. It is the snapshot partition key and is kept
// separate from the capture timestamp stored next to it.
type Day struct {
	year  int
	month time.Month
	day   int
}

// DayOf returns the UTC calendar day containing t
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{year: y, month: m, day: d}
}

// ParseDay parses a YYYY-MM-DD string
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// MustParseDay is ParseDay for literals known to be valid
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the day
func (d Day) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) Before(other Day) bool {
	return d.Time().Before(other.Time())
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalJSON encodes the day as a YYYY-MM-DD string
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string
func (d *Day) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid day json %s: %w", data, err)
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
