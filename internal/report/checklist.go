package report

import (
	"math"
	"sort"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
)

// ChecklistInputs gathers the artifacts of a finished run.
type ChecklistInputs struct {
	Trace  *engine.Trace
	CY, FY []AnnualRow
	Bridge *BridgeRow

	Anchor         calendar.Month
	GDPAnchorFY    int
	GDPAnchorValue float64

	Shares debt.ShareRow // default issuance shares used by the run
}

// Checklist is the acceptance checklist written next to run outputs.
type Checklist struct {
	Checks map[string]bool `json:"checks"`
	Notes  map[string]any  `json:"notes"`
}

// Passed reports whether every check passed.
func (c *Checklist) Passed() bool {
	for _, ok := range c.Checks {
		if !ok {
			return false
		}
	}
	return true
}

// Failed returns the names of failed checks in sorted order.
func (c *Checklist) Failed() []string {
	var out []string
	for name, ok := range c.Checks {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

var requiredTraceFields = []string{
	"stock_short", "stock_nb", "stock_tips",
	"interest_short", "interest_nb", "interest_tips", "interest_total",
	"shares_short", "shares_nb", "shares_tips",
	"gfn",
	"redemptions_short", "redemptions_nb", "redemptions_tips", "redemptions_total",
}

// spliceWindow is the number of months either side of the anchor examined
// for month-over-month jumps.
const spliceWindow = 6

// BuildChecklist evaluates the run acceptance checks.
func BuildChecklist(in ChecklistInputs) *Checklist {
	c := &Checklist{Checks: map[string]bool{}, Notes: map[string]any{}}

	// GDP anchor reproduced in the FY table.
	c.Checks["gdp_anchor_matches"] = false
	for _, r := range in.FY {
		if r.Year == in.GDPAnchorFY {
			tol := math.Max(1e-6, 1e-6*in.GDPAnchorValue)
			c.Checks["gdp_anchor_matches"] = math.Abs(r.GDP-in.GDPAnchorValue) <= tol
			c.Notes["gdp_anchor_table"] = r.GDP
		}
	}
	c.Notes["gdp_anchor_config"] = in.GDPAnchorValue
	c.Notes["gdp_anchor_fy"] = in.GDPAnchorFY

	c.Checks["annual_has_gdp"] = hasGDP(in.CY) && hasGDP(in.FY)

	// Splice continuity: total interest should not jump by more than 100%
	// month over month near the anchor.
	maxMoM := 0.0
	var prev float64
	havePrev := false
	for _, r := range in.Trace.Rows {
		d := in.Anchor.MonthsUntil(r.Month)
		if d < -spliceWindow || d > spliceWindow {
			continue
		}
		total := r.InterestTotal + r.OtherInterest
		if havePrev && prev != 0 {
			maxMoM = math.Max(maxMoM, math.Abs(total/prev-1))
		}
		prev, havePrev = total, true
	}
	c.Checks["splice_continuity"] = maxMoM <= 1.0
	c.Notes["splice_window_mom_abs_max"] = maxMoM

	if in.Bridge != nil {
		b := in.Bridge
		sum := b.StockEffect + b.RateEffect + b.MixEffect + b.OtherEffect
		c.Checks["bridge_sums_to_delta"] = math.Abs(sum-b.DeltaInterest) <= math.Max(1, 1e-3*math.Abs(b.DeltaInterest))
		c.Notes["bridge_components_sum"] = sum
		c.Notes["bridge_delta_interest"] = b.DeltaInterest
	} else {
		c.Checks["bridge_sums_to_delta"] = false
		c.Notes["bridge_error"] = "horizon does not cover two fiscal years from the first projected fiscal year"
	}

	c.Checks["parameters_within_bounds"] = in.Shares.Validate() == nil
	c.Notes["parameters_issuance_shares"] = in.Shares

	var missing []string
	for _, name := range requiredTraceFields {
		if _, ok := in.Trace.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	c.Checks["monthly_trace_fields_present"] = len(in.Trace.Rows) > 0 && len(missing) == 0
	c.Notes["monthly_trace_missing_fields"] = missing
	c.Checks["monthly_trace_finite"] = traceFinite(in.Trace)
	return c
}

func hasGDP(rows []AnnualRow) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if !(r.GDP > 0) {
			return false
		}
	}
	return true
}

func traceFinite(tr *engine.Trace) bool {
	for _, r := range tr.Rows {
		for _, v := range r.Values() {
			if !debt.IsFinite(v) {
				return false
			}
		}
	}
	return true
}
