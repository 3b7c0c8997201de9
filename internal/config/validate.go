package config

import (
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/macro"
)

// Validate checks the semantic rules the schema cannot express. It does not
// touch the filesystem; referenced CSV files are read by the builders.
func (c *Config) Validate() error {
	if c.AnchorDate.IsZero() {
		return invalidf("anchor_date", "required")
	}
	if c.HorizonMonths <= 0 {
		return invalidf("horizon_months", "must be positive, got %d", c.HorizonMonths)
	}

	checks := []func() error{
		c.validateStartState,
		c.validateGDP,
		c.validateBudget,
		c.validateOtherInterest,
		c.validateRates,
		c.validateCoupons,
		c.validateIssuance,
		c.validateRedemptions,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateStartState() error {
	s := c.StartState
	set := 0
	for _, v := range []*float64{s.Short, s.NB, s.Tips} {
		if v != nil {
			set++
		}
	}
	switch {
	case s.StocksCSV != "" && set > 0:
		return invalidf("start_state", "give either stocks_csv or inline stocks, not both")
	case s.StocksCSV != "":
		return nil
	case set != 3:
		return invalidf("start_state", "short, nb and tips are required together")
	}
	if err := (debt.State{Short: *s.Short, NB: *s.NB, Tips: *s.Tips}).Validate(); err != nil {
		return invalid("start_state", err)
	}
	return nil
}

// validateGDP checks that growth rates reach every year the run will ask the
// GDP model for: the fiscal and calendar years of the horizon in every frame
// in use, plus annualization in both frames.
func (c *Config) validateGDP() error {
	gdp, err := c.GDPModel()
	if err != nil {
		return invalid("gdp", err)
	}
	idx, err := c.Index()
	if err != nil {
		return invalid("horizon_months", err)
	}
	for _, f := range []macro.Frame{macro.FY, macro.CY} {
		for _, y := range f.Years(idx) {
			if _, err := gdp.Level(f, y); err != nil {
				return invalid("gdp.annual_fy_growth_rate", err)
			}
		}
	}
	return nil
}

func (c *Config) validateBudget() error {
	b := c.Budget
	if _, err := macro.ParseFrame(b.Frame); err != nil {
		return invalid("budget.frame", err)
	}
	if len(b.AnnualRevenuePct) == 0 {
		return invalidf("budget.annual_revenue_pct_gdp", "at least one year is required")
	}
	if len(b.AnnualOutlaysPct) == 0 {
		return invalidf("budget.annual_outlays_pct_gdp", "at least one year is required")
	}

	add := b.AdditionalRevenue
	if add == nil || !add.Enabled {
		return nil
	}
	const field = "budget.additional_revenue"
	mode, err := macro.ParseAdditionalMode(add.Mode)
	if err != nil {
		return invalid(field+".mode", err)
	}

	anchorParts := 0
	if add.AnchorYear != nil {
		anchorParts++
	}
	if add.AnchorAmount != nil {
		anchorParts++
	}
	if add.Index != "" {
		anchorParts++
	}
	anchored := anchorParts == 3
	if anchorParts != 0 && !anchored {
		return invalidf(field, "anchor_year, anchor_amount and index are required together")
	}

	switch mode {
	case macro.ModePctGDP:
		if anchored {
			return invalidf(field, "anchor_year/anchor_amount/index require mode level")
		}
		if len(add.AnnualPctGDP) == 0 {
			return invalidf(field+".annual_pct_gdp", "required when mode is pct_gdp")
		}
		if len(add.AnnualLevelUSDMillions) > 0 {
			return invalidf(field+".annual_level_usd_millions", "not allowed when mode is pct_gdp")
		}
	case macro.ModeLevel:
		if len(add.AnnualPctGDP) > 0 {
			return invalidf(field+".annual_pct_gdp", "not allowed when mode is level")
		}
		if anchored && len(add.AnnualLevelUSDMillions) > 0 {
			return invalidf(field, "give either annual_level_usd_millions or an anchored amount, not both")
		}
		if !anchored && len(add.AnnualLevelUSDMillions) == 0 {
			return invalidf(field+".annual_level_usd_millions", "required when mode is level")
		}
	}

	if anchored {
		if !debt.IsFinite(*add.AnchorAmount) {
			return invalidf(field+".anchor_amount", "must be finite")
		}
		idx, err := macro.ParseIndex(add.Index)
		if err != nil {
			return invalid(field+".index", err)
		}
		if idx != macro.IndexNone && len(c.inflationFor(idx)) == 0 {
			return invalidf("inflation."+string(idx), "required when additional revenue is indexed by %s", idx)
		}
	}
	return nil
}

func (c *Config) validateOtherInterest() error {
	o := c.OtherInterest
	if !o.IsEnabled() {
		return nil
	}
	if o.Frame != "" {
		if _, err := macro.ParseFrame(o.Frame); err != nil {
			return invalid("other_interest.frame", err)
		}
	}
	return nil
}

func (c *Config) validateRates() error {
	r := c.Rates
	switch r.Type {
	case RatesConstant:
		if r.Values == nil {
			return invalidf("rates.values", "required when type is constant")
		}
	case RatesFiscalYear:
		if len(r.FiscalYear) == 0 {
			return invalidf("rates.fiscal_year", "required when type is fiscal_year")
		}
	case RatesMonthlyCSV:
		if r.MonthlyCSV == "" {
			return invalidf("rates.monthly_csv", "required when type is monthly_csv")
		}
		return nil
	default:
		return invalidf("rates.type", "must be constant, fiscal_year or monthly_csv, got %q", r.Type)
	}
	if _, err := c.RatesProvider(); err != nil {
		return invalid("rates", err)
	}
	return nil
}

func (c *Config) validateCoupons() error {
	if _, err := c.couponOverrides(); err != nil {
		return invalid("existing_coupons", err)
	}
	return nil
}

func (c *Config) validateIssuance() error {
	is := c.Issuance
	switch {
	case is.DefaultShares == nil && len(is.Segments) == 0:
		return invalidf("issuance", "default_shares or segments is required")
	case is.DefaultShares != nil && len(is.Segments) > 0:
		return invalidf("issuance", "give either default_shares or segments, not both")
	}
	if t := is.Transition; t != nil && t.Enabled {
		if is.DefaultShares == nil {
			return invalidf("issuance.transition", "requires default_shares as the target")
		}
		if t.From == nil {
			return invalidf("issuance.transition.from", "required when the transition is enabled")
		}
	}
	if _, err := c.IssuancePolicy(nil); err != nil {
		return invalid("issuance", err)
	}
	return nil
}

func (c *Config) validateRedemptions() error {
	nb, tips := c.Decay()
	for _, d := range []struct {
		field string
		v     float64
	}{{"redemptions.decay_nb", nb}, {"redemptions.decay_tips", tips}} {
		if !debt.IsFinite(d.v) || d.v < 0 || d.v > 1 {
			return invalidf(d.field, "must be in [0,1], got %v", d.v)
		}
	}
	return nil
}

func (c *Config) inflationFor(idx macro.Index) map[int]float64 {
	switch idx {
	case macro.IndexPCE:
		return c.Inflation.PCE
	case macro.IndexCPI:
		return c.Inflation.CPI
	}
	return nil
}
