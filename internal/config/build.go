package config

import (
	"fmt"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/issuance"
	"github.com/roach88/debtproj/internal/macro"
	"github.com/roach88/debtproj/internal/rates"
)

// Index returns the projection month index.
func (c *Config) Index() ([]calendar.Month, error) {
	return calendar.BuildIndex(c.AnchorDate.Start(), c.HorizonMonths)
}

// Start returns the opening debt state, reading stocks_csv when configured.
func (c *Config) Start() (debt.State, error) {
	s := c.StartState
	if s.StocksCSV != "" {
		return LoadStocksCSV(c.Resolve(s.StocksCSV))
	}
	if s.Short == nil || s.NB == nil || s.Tips == nil {
		return debt.State{}, invalidf("start_state", "short, nb and tips are required together")
	}
	st := debt.State{Short: *s.Short, NB: *s.NB, Tips: *s.Tips}
	return st, st.Validate()
}

// GDPModel builds the GDP model from the gdp block.
func (c *Config) GDPModel() (*macro.GDPModel, error) {
	return macro.NewGDPModelFromPercent(c.GDP.AnchorFY, c.GDP.AnchorValue, c.GDP.AnnualFYGrowthRate)
}

// BudgetInputs converts the budget block.
func (c *Config) BudgetInputs() (macro.BudgetInputs, error) {
	frame, err := macro.ParseFrame(c.Budget.Frame)
	if err != nil {
		return macro.BudgetInputs{}, err
	}
	in := macro.BudgetInputs{
		Frame:      frame,
		RevenuePct: c.Budget.AnnualRevenuePct,
		OutlaysPct: c.Budget.AnnualOutlaysPct,
	}

	add := c.Budget.AdditionalRevenue
	if add == nil || !add.Enabled {
		return in, nil
	}
	mode, err := macro.ParseAdditionalMode(add.Mode)
	if err != nil {
		return macro.BudgetInputs{}, err
	}
	in.Additional = &macro.AdditionalRevenue{
		Mode:         mode,
		AnnualPctGDP: add.AnnualPctGDP,
		AnnualLevel:  add.AnnualLevelUSDMillions,
	}
	if add.AnchorYear != nil && add.AnchorAmount != nil && add.Index != "" {
		idx, err := macro.ParseIndex(add.Index)
		if err != nil {
			return macro.BudgetInputs{}, err
		}
		in.Additional.Anchor = &macro.AnchoredAmount{
			Amount: *add.AnchorAmount,
			Index:  macro.InflationIndex{AnchorYear: *add.AnchorYear, RatesPct: c.inflationFor(idx)},
		}
	}
	return in, nil
}

// OtherInterestInputs converts the other_interest block. The add-on frame
// defaults to the budget frame.
func (c *Config) OtherInterestInputs() (macro.OtherInterestInputs, error) {
	o := c.OtherInterest
	frameName := o.Frame
	if frameName == "" {
		frameName = c.Budget.Frame
	}
	frame, err := macro.ParseFrame(frameName)
	if err != nil {
		return macro.OtherInterestInputs{}, err
	}
	return macro.OtherInterestInputs{
		Enabled:      o.IsEnabled(),
		Frame:        frame,
		AnnualPctGDP: o.AnnualPctGDP,
		AnnualUSD:    o.AnnualUSDMn,
	}, nil
}

// RatesProvider builds the configured rate provider.
func (c *Config) RatesProvider() (engine.RatesProvider, error) {
	r := c.Rates
	switch r.Type {
	case RatesConstant:
		if r.Values == nil {
			return nil, invalidf("rates.values", "required when type is constant")
		}
		return rates.NewConstant(debt.RateRow(*r.Values))
	case RatesFiscalYear:
		return rates.NewFiscalYearVariableFromPercent(r.FiscalYear)
	case RatesMonthlyCSV:
		return rates.LoadMonthlyCSV(c.Resolve(r.MonthlyCSV))
	}
	return nil, fmt.Errorf("unknown rates type %q", r.Type)
}

// IssuancePolicy builds the issuance share policy. A non-nil params file
// replaces the default shares.
func (c *Config) IssuancePolicy(params *Parameters) (engine.IssuancePolicy, error) {
	is := c.Issuance
	if len(is.Segments) > 0 {
		segs := make([]issuance.Segment, len(is.Segments))
		for i, s := range is.Segments {
			segs[i] = issuance.Segment{Start: s.Start, Shares: debt.ShareRow{Short: s.Short, NB: s.NB, Tips: s.Tips}}
		}
		return issuance.NewPiecewiseShares(segs)
	}

	if is.DefaultShares == nil && params == nil {
		return nil, invalidf("issuance.default_shares", "required")
	}
	var shares debt.ShareRow
	if is.DefaultShares != nil {
		shares = debt.ShareRow(*is.DefaultShares)
	}
	if params != nil && params.IssuanceShares != nil {
		shares = debt.ShareRow(*params.IssuanceShares)
	}

	if t := is.Transition; t != nil && t.Enabled && t.From != nil {
		from := debt.ShareRow(*t.From)
		if err := from.Validate(); err != nil {
			return nil, fmt.Errorf("transition.from: %w", err)
		}
		if err := shares.Validate(); err != nil {
			return nil, err
		}
		return issuance.Glide(from, shares, c.AnchorDate, t.Months)
	}
	return issuance.NewFixedShares(shares)
}

// Decay returns the nb and tips decay fractions, defaulted.
func (c *Config) Decay() (nb, tips float64) {
	nb, tips = engine.DefaultDecay, engine.DefaultDecay
	if d := c.Redemptions.DecayNB; d != nil {
		nb = *d
	}
	if d := c.Redemptions.DecayTips; d != nil {
		tips = *d
	}
	return nb, tips
}

func (c *Config) couponOverrides() (map[debt.Bucket]float64, error) {
	if len(c.ExistingCoupons) == 0 {
		return nil, nil
	}
	out := make(map[debt.Bucket]float64, len(c.ExistingCoupons))
	for name, r := range c.ExistingCoupons {
		b, err := debt.ParseBucket(name)
		if err != nil {
			return nil, err
		}
		if err := debt.ValidateRate("existing_coupons."+string(b), r); err != nil {
			return nil, err
		}
		out[b] = r
	}
	return out, nil
}

// EngineOptions returns the engine options implied by the config.
func (c *Config) EngineOptions() ([]engine.EngineOption, error) {
	opts := []engine.EngineOption{engine.WithDecay(c.Decay())}
	overrides, err := c.couponOverrides()
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		opts = append(opts, engine.WithCouponOverrides(overrides))
	}
	return opts, nil
}
