package macro

import (
	"fmt"
	"strings"
)

// Index names an inflation measure used to index an anchored amount.
type Index string

const (
	IndexNone Index = "none"
	IndexPCE  Index = "pce"
	IndexCPI  Index = "cpi"
)

// ParseIndex accepts none, pce or cpi in any case.
func ParseIndex(s string) (Index, error) {
	switch Index(strings.ToLower(strings.TrimSpace(s))) {
	case IndexNone:
		return IndexNone, nil
	case IndexPCE:
		return IndexPCE, nil
	case IndexCPI:
		return IndexCPI, nil
	}
	return "", fmt.Errorf("index must be one of none, pce, cpi, got %q", s)
}

// InflationIndex carries an anchor-year amount through annual inflation.
//
// Factor(anchor) is 1. For later years the factor compounds the inflation of
// each year after the anchor; for earlier years it divides it out. Missing
// inflation years are filled with FillYears.
type InflationIndex struct {
	AnchorYear int

	// RatesPct maps year to annual inflation in percent. Nil means no indexing.
	RatesPct map[int]float64
}

// Factor returns the cumulative index factor of year relative to the anchor.
func (x InflationIndex) Factor(year int) float64 {
	if len(x.RatesPct) == 0 || year == x.AnchorYear {
		return 1
	}
	lo, hi := x.AnchorYear+1, year
	if year < x.AnchorYear {
		lo, hi = year+1, x.AnchorYear
	}
	needed := make([]int, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		needed = append(needed, y)
	}
	rates := FillYears(x.RatesPct, needed)

	f := 1.0
	for _, y := range needed {
		f *= 1 + rates[y]/100
	}
	if year < x.AnchorYear {
		return 1 / f
	}
	return f
}
