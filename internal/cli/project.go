package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/config"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/macro"
	"github.com/roach88/debtproj/internal/output"
	"github.com/roach88/debtproj/internal/report"
)

// projection holds every input series and derived table of one run.
type projection struct {
	Index  []calendar.Month
	Start  debt.State
	GDP    *macro.GDPModel
	Budget *macro.Budget

	OtherInterest calendar.Series
	OtherPreview  []macro.OtherInterestRow

	Rates  []debt.RateRow
	Shares []debt.ShareRow

	Trace     *engine.Trace
	CY, FY    []report.AnnualRow
	Bridge    *report.BridgeRow
	Checklist *report.Checklist
}

// project builds the inputs described by cfg, runs the engine and derives
// the annual tables, the interest bridge and the acceptance checklist.
func project(ctx context.Context, cfg *config.Config, params *config.Parameters, logger *slog.Logger) (*projection, error) {
	p := &projection{}
	var err error

	if p.Index, err = cfg.Index(); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if p.Start, err = cfg.Start(); err != nil {
		return nil, fmt.Errorf("start state: %w", err)
	}
	logger.Info("start state",
		"short", p.Start.Short,
		"nb", p.Start.NB,
		"tips", p.Start.Tips)

	if p.GDP, err = cfg.GDPModel(); err != nil {
		return nil, fmt.Errorf("gdp: %w", err)
	}

	budgetIn, err := cfg.BudgetInputs()
	if err != nil {
		return nil, fmt.Errorf("budget: %w", err)
	}
	if p.Budget, err = macro.BuildBudget(budgetIn, p.GDP, p.Index); err != nil {
		return nil, fmt.Errorf("budget: %w", err)
	}
	p.Budget.LogWarnings(logger)

	otherIn, err := cfg.OtherInterestInputs()
	if err != nil {
		return nil, fmt.Errorf("other interest: %w", err)
	}
	if p.OtherInterest, p.OtherPreview, err = macro.BuildOtherInterest(otherIn, p.GDP, p.Index); err != nil {
		return nil, fmt.Errorf("other interest: %w", err)
	}

	rp, err := cfg.RatesProvider()
	if err != nil {
		return nil, fmt.Errorf("rates: %w", err)
	}
	if p.Rates, err = rp.Get(p.Index); err != nil {
		return nil, fmt.Errorf("rates: %w", err)
	}
	policy, err := cfg.IssuancePolicy(params)
	if err != nil {
		return nil, fmt.Errorf("issuance: %w", err)
	}
	if p.Shares, err = policy.Get(p.Index); err != nil {
		return nil, fmt.Errorf("issuance: %w", err)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}
	eng, err := engine.New(rp, policy, opts...)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	nb, tips := eng.Decay()
	logger.Debug("engine ready", "months", len(p.Index), "decay_nb", nb, "decay_tips", tips)

	p.Trace, err = eng.Run(ctx, engine.Inputs{
		Index:          p.Index,
		Start:          p.Start,
		PrimaryDeficit: p.Budget.PrimaryDeficit,
		OtherInterest:  p.OtherInterest,
	})
	if err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}

	if p.CY, p.FY, err = report.Annualize(p.Trace, p.GDP); err != nil {
		return nil, fmt.Errorf("annualize: %w", err)
	}
	report.AddAdditionalRevenue(p.CY, p.Trace, p.Budget.Additional)
	report.AddAdditionalRevenue(p.FY, p.Trace, p.Budget.Additional)

	// The bridge compares the first two fiscal years of the projection.
	fy0 := calendar.FiscalYear(p.Index[0])
	if b, err := report.Bridge(p.Trace, fy0); err != nil {
		logger.Warn("bridge skipped", "error", err)
	} else {
		p.Bridge = &b
	}

	p.Checklist = report.BuildChecklist(report.ChecklistInputs{
		Trace:          p.Trace,
		CY:             p.CY,
		FY:             p.FY,
		Bridge:         p.Bridge,
		Anchor:         cfg.AnchorDate,
		GDPAnchorFY:    cfg.GDP.AnchorFY,
		GDPAnchorValue: cfg.GDP.AnchorValue,
		Shares:         p.Shares[len(p.Shares)-1],
	})
	return p, nil
}

type artifact struct {
	name  string
	write func() error
}

// write stores every artifact of p, plus the config echo, in w.
func (p *projection) write(w *output.Writer, echo config.Echo) error {
	artifacts := []artifact{
		{output.ConfigEchoFile, func() error { return w.WriteJSON(output.ConfigEchoFile, echo) }},
		{output.RatesPreviewFile, func() error { return w.WriteRatesPreview(p.Index, p.Rates) }},
		{output.SharesPreviewFile, func() error { return w.WriteSharesPreview(p.Index, p.Shares) }},
		{output.DeficitsFile, func() error { return w.WriteBudgetPreview(p.Budget.Preview) }},
		{output.OtherInterestFile, func() error { return w.WriteOtherInterestPreview(p.OtherPreview) }},
		{output.TraceFile, func() error { return w.WriteTrace(p.Trace) }},
		{output.AnnualFYFile, func() error { return w.WriteAnnual(p.CY, p.FY) }},
		{output.ChecklistFile, func() error { return w.WriteJSON(output.ChecklistFile, p.Checklist) }},
	}
	if p.Bridge != nil {
		b := *p.Bridge
		artifacts = append(artifacts, artifact{output.BridgeFile, func() error { return w.WriteBridge(b) }})
	}
	for _, a := range artifacts {
		if err := a.write(); err != nil {
			return fmt.Errorf("write %s: %w", a.name, err)
		}
	}
	return nil
}
