// Package macro builds the exogenous monthly series that feed the projection
// engine: GDP levels, the primary deficit from revenue and outlays shares,
// optional additional revenue, and the "other interest" add-on.
//
// Annual inputs are maps from year to value under a fiscal (FY) or calendar
// (CY) frame. Monthly values are the annual value divided by 12.
package macro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/debtproj/internal/calendar"
)

// Frame selects how months are grouped into years.
type Frame string

const (
	FY Frame = "FY"
	CY Frame = "CY"
)

// ParseFrame accepts "FY" or "CY" in any case. The empty string is FY.
func ParseFrame(s string) (Frame, error) {
	switch Frame(strings.ToUpper(strings.TrimSpace(s))) {
	case FY, "":
		return FY, nil
	case CY:
		return CY, nil
	}
	return "", fmt.Errorf("frame must be FY or CY, got %q", s)
}

// YearOf returns the year m belongs to under frame f.
func (f Frame) YearOf(m calendar.Month) int {
	if f == CY {
		return calendar.CalendarYear(m)
	}
	return calendar.FiscalYear(m)
}

// Years returns the sorted distinct years of idx under frame f.
func (f Frame) Years(idx []calendar.Month) []int {
	return calendar.Years(idx, f.YearOf)
}

// FillYears resolves values for each needed year. A year present in values
// uses its entry; a missing year carries the latest earlier entry forward;
// years before the earliest entry use the earliest entry. An empty map
// resolves every year to zero.
func FillYears(values map[int]float64, needed []int) map[int]float64 {
	out := make(map[int]float64, len(needed))
	if len(values) == 0 {
		for _, y := range needed {
			out[y] = 0
		}
		return out
	}
	keys := make([]int, 0, len(values))
	for y := range values {
		keys = append(keys, y)
	}
	sort.Ints(keys)
	for _, y := range needed {
		i := sort.SearchInts(keys, y+1)
		if i == 0 {
			out[y] = values[keys[0]]
		} else {
			out[y] = values[keys[i-1]]
		}
	}
	return out
}
