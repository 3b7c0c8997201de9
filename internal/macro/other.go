package macro

import (
	"fmt"

	"github.com/roach88/debtproj/internal/calendar"
)

// OtherInterestInputs configures the exogenous "other interest" add-on.
type OtherInterestInputs struct {
	Enabled bool
	Frame   Frame

	AnnualPctGDP map[int]float64 // percent of GDP
	AnnualUSD    map[int]float64 // USD millions; wins for years it names
}

// OtherInterestRow is one month of the other-interest preview.
type OtherInterestRow struct {
	Month   calendar.Month
	Frame   Frame
	Year    int
	Mode    string // ABS or PCT
	PctGDP  float64
	Annual  float64
	Monthly float64
}

// OtherInterestColumns is the CSV header of the other-interest preview.
var OtherInterestColumns = []string{"date", "frame", "year_key", "mode", "pct_gdp", "annual_usd_mn", "monthly_usd_mn"}

// BuildOtherInterest returns the monthly other-interest series over idx. An
// absolute amount applies only to years explicitly present in AnnualUSD;
// other years use the percent-of-GDP path. Disabled inputs yield zeros.
func BuildOtherInterest(in OtherInterestInputs, gdp *GDPModel, idx []calendar.Month) (calendar.Series, []OtherInterestRow, error) {
	series := make(calendar.Series, len(idx))
	if !in.Enabled {
		for _, m := range idx {
			series[m] = 0
		}
		return series, nil, nil
	}
	frame := in.Frame
	if frame == "" {
		frame = FY
	}
	years := frame.Years(idx)
	pct := FillYears(in.AnnualPctGDP, years)

	rows := make([]OtherInterestRow, 0, len(idx))
	for _, m := range idx {
		y := frame.YearOf(m)
		row := OtherInterestRow{Month: m, Frame: frame, Year: y, PctGDP: pct[y]}
		if abs, ok := in.AnnualUSD[y]; ok {
			row.Mode = "ABS"
			row.Annual = abs
		} else {
			level, err := gdp.Level(frame, y)
			if err != nil {
				return nil, nil, fmt.Errorf("other interest %s: %w", m, err)
			}
			row.Mode = "PCT"
			row.Annual = pct[y] / 100 * level
		}
		row.Monthly = row.Annual / 12
		series[m] = row.Monthly
		rows = append(rows, row)
	}
	return series, rows, nil
}
