// Package report derives annual and diagnostic views from a projection
// trace: calendar- and fiscal-year interest with GDP ratios, the year-over-year
// interest bridge, and the run QA checklist.
package report

import (
	"fmt"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/macro"
)

// AnnualRow is total interest (marketable plus other) for one year, with
// the additional revenue that offset the deficit in the same months.
type AnnualRow struct {
	Frame             macro.Frame `json:"frame"`
	Year              int         `json:"year"`
	Months            int         `json:"months"`
	Interest          float64     `json:"interest"`
	GDP               float64     `json:"gdp"`
	PctGDP            float64     `json:"pct_gdp"` // ratio, not percent
	AdditionalRevenue float64     `json:"additional_revenue"`
}

// AnnualColumns is the CSV header of an annual table.
var AnnualColumns = []string{"year", "months", "interest", "gdp", "pct_gdp", "additional_revenue"}

// GDPSource supplies annual GDP levels by frame.
type GDPSource interface {
	Level(f macro.Frame, year int) (float64, error)
}

// Annualize sums interest_total + other_interest by calendar and fiscal
// year and attaches the GDP level and interest/GDP ratio. Partial years at
// either end of the horizon are included with their month count.
func Annualize(tr *engine.Trace, gdp GDPSource) (cy, fy []AnnualRow, err error) {
	cy, err = annualize(tr, gdp, macro.CY)
	if err != nil {
		return nil, nil, err
	}
	fy, err = annualize(tr, gdp, macro.FY)
	if err != nil {
		return nil, nil, err
	}
	return cy, fy, nil
}

func annualize(tr *engine.Trace, gdp GDPSource, f macro.Frame) ([]AnnualRow, error) {
	var rows []AnnualRow
	for _, r := range tr.Rows {
		y := f.YearOf(r.Month)
		if n := len(rows); n == 0 || rows[n-1].Year != y {
			rows = append(rows, AnnualRow{Frame: f, Year: y})
		}
		cur := &rows[len(rows)-1]
		cur.Months++
		cur.Interest += r.InterestTotal + r.OtherInterest
	}
	for i := range rows {
		level, err := gdp.Level(f, rows[i].Year)
		if err != nil {
			return nil, fmt.Errorf("annualize %s%d: %w", f, rows[i].Year, err)
		}
		rows[i].GDP = level
		if level != 0 {
			rows[i].PctGDP = rows[i].Interest / level
		}
	}
	return rows, nil
}

// AddAdditionalRevenue sums the monthly additional revenue into rows by
// year, over the months of tr. rows must share one frame. Years absent from
// rows are ignored.
func AddAdditionalRevenue(rows []AnnualRow, tr *engine.Trace, additional calendar.Series) {
	if len(rows) == 0 || len(additional) == 0 {
		return
	}
	f := rows[0].Frame
	at := make(map[int]int, len(rows))
	for i, a := range rows {
		at[a.Year] = i
	}
	for _, r := range tr.Rows {
		if i, ok := at[f.YearOf(r.Month)]; ok {
			rows[i].AdditionalRevenue += additional[r.Month]
		}
	}
}
