package calendar

import (
	"fmt"
	"time"
)

// BuildIndex returns horizon consecutive months starting at the month that
// contains anchor.
func BuildIndex(anchor time.Time, horizon int) ([]Month, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be a positive number of months, got %d", horizon)
	}
	start := MonthOf(anchor)
	idx := make([]Month, horizon)
	for i := range idx {
		idx[i] = start.Add(i)
	}
	return idx, nil
}

// ValidateIndex checks that idx is non-empty and strictly increasing.
func ValidateIndex(idx []Month) error {
	if len(idx) == 0 {
		return fmt.Errorf("month index is empty")
	}
	for i, m := range idx {
		if m.IsZero() {
			return fmt.Errorf("month index[%d] is the zero month", i)
		}
		if i > 0 && !idx[i-1].Before(m) {
			return fmt.Errorf("month index not strictly increasing at %d: %s after %s", i, m, idx[i-1])
		}
	}
	return nil
}

// FiscalYear returns the US federal fiscal year of m. The fiscal year runs
// October through September: 2025-10 belongs to FY2026.
func FiscalYear(m Month) int {
	if m.month >= time.October {
		return m.year + 1
	}
	return m.year
}

// CalendarYear returns the calendar year of m.
func CalendarYear(m Month) int { return m.year }

// Years returns the sorted distinct years of idx under yearOf.
func Years(idx []Month, yearOf func(Month) int) []int {
	var years []int
	seen := make(map[int]bool)
	for _, m := range idx {
		y := yearOf(m)
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	// idx is increasing and both year functions are monotone, so years is sorted.
	return years
}

// Series maps months to values. Months absent from the map read as zero.
type Series map[Month]float64

// Constant returns a series holding v for every month of idx.
func Constant(idx []Month, v float64) Series {
	s := make(Series, len(idx))
	for _, m := range idx {
		s[m] = v
	}
	return s
}

// Reindex returns the values of s aligned to idx, zero-filling missing months.
func (s Series) Reindex(idx []Month) []float64 {
	out := make([]float64, len(idx))
	for i, m := range idx {
		out[i] = s[m]
	}
	return out
}
