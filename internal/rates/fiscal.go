package rates

import (
	"fmt"
	"sort"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// FiscalYearVariable holds rates as a step function of fiscal year.
//
// Resolution for fiscal year y, per bucket:
//  1. the entry for y, if present
//  2. otherwise the entry of the latest year before y (carry forward)
//  3. for years before the earliest entry, the earliest entry
//
// Every month therefore resolves; only a bucket with no entries at all is an
// error, reported at construction.
type FiscalYearVariable struct {
	years  map[debt.Bucket][]int // sorted ascending
	values map[debt.Bucket]map[int]float64
}

// NewFiscalYearVariable builds a provider from decimal rates keyed by bucket
// and fiscal year.
func NewFiscalYearVariable(byBucket map[debt.Bucket]map[int]float64) (*FiscalYearVariable, error) {
	p := &FiscalYearVariable{
		years:  make(map[debt.Bucket][]int, len(debt.Buckets)),
		values: make(map[debt.Bucket]map[int]float64, len(debt.Buckets)),
	}
	for _, b := range debt.Buckets {
		m := byBucket[b]
		if len(m) == 0 {
			return nil, &debt.ConfigError{
				Code:    debt.ErrCodeMissingBucket,
				Field:   "rate." + string(b),
				Message: "no fiscal-year rates configured for bucket",
			}
		}
		vals := make(map[int]float64, len(m))
		years := make([]int, 0, len(m))
		for y, v := range m {
			if err := debt.ValidateRate(fmt.Sprintf("%s[FY%d]", b, y), v); err != nil {
				return nil, err
			}
			vals[y] = v
			years = append(years, y)
		}
		sort.Ints(years)
		p.years[b] = years
		p.values[b] = vals
	}
	return p, nil
}

// NewFiscalYearVariableFromPercent converts percent maps (4.25 means 4.25%)
// to decimals and builds the provider. Bucket keys are normalized with
// debt.ParseBucket.
func NewFiscalYearVariableFromPercent(pct map[string]map[int]float64) (*FiscalYearVariable, error) {
	byBucket := make(map[debt.Bucket]map[int]float64, len(pct))
	for name, m := range pct {
		b, err := debt.ParseBucket(name)
		if err != nil {
			return nil, &debt.ConfigError{Code: debt.ErrCodeInvalidParameter, Field: "variable_rates_annual", Message: err.Error()}
		}
		dec := make(map[int]float64, len(m))
		for y, v := range m {
			dec[y] = v / 100
		}
		byBucket[b] = dec
	}
	return NewFiscalYearVariable(byBucket)
}

// Rate returns the resolved decimal rate for bucket b in fiscal year fy.
func (p *FiscalYearVariable) Rate(b debt.Bucket, fy int) float64 {
	years := p.years[b]
	// First year strictly greater than fy; the one before it is the latest <= fy.
	i := sort.SearchInts(years, fy+1)
	if i == 0 {
		return p.values[b][years[0]]
	}
	return p.values[b][years[i-1]]
}

// Get returns the resolved rates for every month of idx.
func (p *FiscalYearVariable) Get(idx []calendar.Month) ([]debt.RateRow, error) {
	if err := debt.CheckIndex(idx); err != nil {
		return nil, err
	}
	out := make([]debt.RateRow, len(idx))
	for i, m := range idx {
		fy := calendar.FiscalYear(m)
		out[i] = debt.RateRow{
			Short: p.Rate(debt.Short, fy),
			NB:    p.Rate(debt.NB, fy),
			Tips:  p.Rate(debt.Tips, fy),
		}
	}
	return out, nil
}
