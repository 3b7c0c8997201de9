package engine

import (
	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// NumericColumns names the numeric trace columns in output order. Downstream
// consumers (annualization, CSV, the run archive) address fields by these
// names.
var NumericColumns = []string{
	"stock_short", "stock_nb", "stock_tips",
	"interest_short", "interest_nb", "interest_tips", "interest_total",
	"other_interest",
	"shares_short", "shares_nb", "shares_tips",
	"gfn",
	"redemptions_short", "redemptions_nb", "redemptions_tips", "redemptions_total",
	"primary_deficit",
}

// Columns returns the full trace header: "date" followed by NumericColumns.
func Columns() []string {
	return append([]string{"date"}, NumericColumns...)
}

// TraceRow is one simulated month. Stocks are opening stocks, before the
// month's redemptions and issuance.
type TraceRow struct {
	Month calendar.Month `json:"date"`

	StockShort float64 `json:"stock_short"`
	StockNB    float64 `json:"stock_nb"`
	StockTips  float64 `json:"stock_tips"`

	InterestShort float64 `json:"interest_short"`
	InterestNB    float64 `json:"interest_nb"`
	InterestTips  float64 `json:"interest_tips"`
	InterestTotal float64 `json:"interest_total"`

	OtherInterest float64 `json:"other_interest"`

	SharesShort float64 `json:"shares_short"`
	SharesNB    float64 `json:"shares_nb"`
	SharesTips  float64 `json:"shares_tips"`

	GFN float64 `json:"gfn"`

	RedemptionsShort float64 `json:"redemptions_short"`
	RedemptionsNB    float64 `json:"redemptions_nb"`
	RedemptionsTips  float64 `json:"redemptions_tips"`
	RedemptionsTotal float64 `json:"redemptions_total"`

	PrimaryDeficit float64 `json:"primary_deficit"`
}

// Values returns the numeric fields in NumericColumns order.
func (r TraceRow) Values() []float64 {
	return []float64{
		r.StockShort, r.StockNB, r.StockTips,
		r.InterestShort, r.InterestNB, r.InterestTips, r.InterestTotal,
		r.OtherInterest,
		r.SharesShort, r.SharesNB, r.SharesTips,
		r.GFN,
		r.RedemptionsShort, r.RedemptionsNB, r.RedemptionsTips, r.RedemptionsTotal,
		r.PrimaryDeficit,
	}
}

// Opening returns the opening state of the month.
func (r TraceRow) Opening() debt.State {
	return debt.State{Short: r.StockShort, NB: r.StockNB, Tips: r.StockTips}
}

// Shares returns the issuance shares applied in the month.
func (r TraceRow) Shares() debt.ShareRow {
	return debt.ShareRow{Short: r.SharesShort, NB: r.SharesNB, Tips: r.SharesTips}
}

// Issuance returns the month's new issuance by bucket.
func (r TraceRow) Issuance() Issuance {
	return Allocate(r.GFN, r.Shares())
}

// RowFromValues rebuilds a row from NumericColumns-ordered values. It is the
// inverse of Values and is used when reading archived traces.
func RowFromValues(m calendar.Month, v []float64) (TraceRow, bool) {
	if len(v) != len(NumericColumns) {
		return TraceRow{}, false
	}
	return TraceRow{
		Month:            m,
		StockShort:       v[0],
		StockNB:          v[1],
		StockTips:        v[2],
		InterestShort:    v[3],
		InterestNB:       v[4],
		InterestTips:     v[5],
		InterestTotal:    v[6],
		OtherInterest:    v[7],
		SharesShort:      v[8],
		SharesNB:         v[9],
		SharesTips:       v[10],
		GFN:              v[11],
		RedemptionsShort: v[12],
		RedemptionsNB:    v[13],
		RedemptionsTips:  v[14],
		RedemptionsTotal: v[15],
		PrimaryDeficit:   v[16],
	}, true
}

// Trace is the ordered monthly output of a run. The caller owns it.
type Trace struct {
	Rows []TraceRow `json:"rows"`

	// Closing is the state after the last month.
	Closing debt.State `json:"closing"`
}

// Len returns the number of months.
func (t *Trace) Len() int { return len(t.Rows) }

// Final returns the closing state after the last simulated month.
func (t *Trace) Final() debt.State { return t.Closing }

// Months returns the month index of the trace.
func (t *Trace) Months() []calendar.Month {
	out := make([]calendar.Month, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Month
	}
	return out
}

// Column returns one numeric column by name, or false if the name is unknown.
func (t *Trace) Column(name string) ([]float64, bool) {
	pos := -1
	for i, c := range NumericColumns {
		if c == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values()[pos]
	}
	return out, true
}
