package report

import (
	"fmt"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/engine"
)

// BridgeRow attributes the change in total interest from one fiscal year to
// the next. StockEffect + RateEffect + MixEffect + OtherEffect equals
// DeltaInterest.
type BridgeRow struct {
	FYFrom        int     `json:"fy_from"`
	FYTo          int     `json:"fy_to"`
	DeltaInterest float64 `json:"delta_interest"`
	StockEffect   float64 `json:"stock_effect"`
	RateEffect    float64 `json:"rate_effect"`
	MixEffect     float64 `json:"mix_term_effect"`
	OtherEffect   float64 `json:"other_effect"`
}

// BridgeColumns is the CSV header of the bridge table.
var BridgeColumns = []string{"fy_from", "fy_to", "delta_interest", "stock_effect", "rate_effect", "mix_term_effect", "other_effect"}

// Values returns the row in BridgeColumns order.
func (b BridgeRow) Values() []float64 {
	return []float64{float64(b.FYFrom), float64(b.FYTo), b.DeltaInterest, b.StockEffect, b.RateEffect, b.MixEffect, b.OtherEffect}
}

type fySums struct {
	months   int
	interest float64
	other    float64
	stock    float64 // sum of monthly total opening stock
}

// Bridge decomposes the FY fy0 → fy0+1 interest change. The stock effect
// prices the change in average stock at the old effective rate, the rate
// effect prices the rate change on the old stock, and the mix effect is the
// residual. Both fiscal years must appear in the trace.
func Bridge(tr *engine.Trace, fy0 int) (BridgeRow, error) {
	sums := map[int]*fySums{fy0: {}, fy0 + 1: {}}
	for _, r := range tr.Rows {
		s, ok := sums[calendar.FiscalYear(r.Month)]
		if !ok {
			continue
		}
		s.months++
		s.interest += r.InterestTotal
		s.other += r.OtherInterest
		s.stock += r.StockShort + r.StockNB + r.StockTips
	}
	a, b := sums[fy0], sums[fy0+1]
	if a.months == 0 || b.months == 0 {
		return BridgeRow{}, fmt.Errorf("bridge needs FY%d and FY%d in the trace", fy0, fy0+1)
	}

	avg0 := a.stock / float64(a.months)
	avg1 := b.stock / float64(b.months)
	if avg0 == 0 {
		avg0 = 1
	}
	if avg1 == 0 {
		avg1 = 1
	}
	r0 := a.interest / avg0
	r1 := b.interest / avg1

	delta := (b.interest + b.other) - (a.interest + a.other)
	other := b.other - a.other
	stock := (avg1 - avg0) * r0
	rate := avg0 * (r1 - r0)
	return BridgeRow{
		FYFrom:        fy0,
		FYTo:          fy0 + 1,
		DeltaInterest: delta,
		StockEffect:   stock,
		RateEffect:    rate,
		MixEffect:     delta - other - stock - rate,
		OtherEffect:   other,
	}, nil
}
