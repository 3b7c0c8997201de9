// Package calendar provides the monthly time domain used by every provider
// and by the projection engine.
//
// A Month is a value type normalized to the first day of a calendar month.
// Month indexes are ordered, gap-free sequences built from an anchor date and
// a horizon length; they are the iteration domain of the engine loop.
package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MonthFormat is the canonical string form of a Month (its first day).
const MonthFormat = "2006-01-02"

// Month identifies a calendar month. The zero value is not a valid month.
type Month struct {
	year  int
	month time.Month
}

// NewMonth returns the normalized Month for the given year and month.
// Out-of-range months roll over the way time.Date does.
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{year: t.Year(), month: t.Month()}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return NewMonth(t.Year(), t.Month())
}

// Year returns the calendar year.
func (m Month) Year() int { return m.year }

// Month returns the month of the year.
func (m Month) Month() time.Month { return m.month }

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool { return m.year == 0 && m.month == 0 }

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	return NewMonth(m.year, m.month+time.Month(n))
}

// Compare returns -1, 0 or +1 depending on whether m is before, equal to or after x.
func (m Month) Compare(x Month) int {
	switch {
	case m.year < x.year, m.year == x.year && m.month < x.month:
		return -1
	case m == x:
		return 0
	default:
		return 1
	}
}

// Before reports whether m is strictly before x.
func (m Month) Before(x Month) bool { return m.Compare(x) < 0 }

// After reports whether m is strictly after x.
func (m Month) After(x Month) bool { return m.Compare(x) > 0 }

// MonthsUntil returns the number of months from m to x (negative if x is earlier).
func (m Month) MonthsUntil(x Month) int {
	return (x.year-m.year)*12 + int(x.month-m.month)
}

// String formats the month as its first day, e.g. "2025-07-01".
func (m Month) String() string { return m.Start().Format(MonthFormat) }

// ParseMonth parses "2025-07-01", "2025-7-1" or "2025-07". Any day is
// truncated to the month start.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-1-2", "2006-1", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM or YYYY-MM-DD", s)
}

// MustParseMonth is like ParseMonth but panics on error. Intended for tests.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// MarshalJSON encodes the month as a JSON string.
func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a month from a JSON string.
func (m *Month) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// UnmarshalYAML decodes a month from the raw scalar text so that unquoted
// YAML timestamps like 2025-07-01 keep their literal form.
func (m *Month) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: month must be a scalar", node.Line)
	}
	parsed, err := ParseMonth(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}

// MarshalYAML encodes the month as its canonical string.
func (m Month) MarshalYAML() (any, error) {
	return m.String(), nil
}

var (
	_ json.Marshaler   = Month{}
	_ json.Unmarshaler = (*Month)(nil)
	_ yaml.Unmarshaler = (*Month)(nil)
	_ yaml.Marshaler   = Month{}
)
