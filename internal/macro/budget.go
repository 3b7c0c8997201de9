package macro

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/roach88/debtproj/internal/calendar"
)

// AdditionalMode selects how additional revenue is specified.
type AdditionalMode string

const (
	ModePctGDP AdditionalMode = "pct_gdp"
	ModeLevel  AdditionalMode = "level"
)

// ParseAdditionalMode accepts pct_gdp or level in any case.
func ParseAdditionalMode(s string) (AdditionalMode, error) {
	switch AdditionalMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePctGDP:
		return ModePctGDP, nil
	case ModeLevel:
		return ModeLevel, nil
	}
	return "", fmt.Errorf("additional revenue mode must be pct_gdp or level, got %q", s)
}

// AdditionalRevenue is an optional revenue add-on that lowers the deficit.
// Exactly one of AnnualPctGDP, AnnualLevel or Anchor drives it.
type AdditionalRevenue struct {
	Mode AdditionalMode

	AnnualPctGDP map[int]float64 // percent of GDP, ModePctGDP
	AnnualLevel  map[int]float64 // USD millions per year, ModeLevel

	// Anchor, when set, indexes an anchor-year USD amount by inflation.
	Anchor *AnchoredAmount
}

// AnchoredAmount is an annual USD amount stated in anchor-year terms.
type AnchoredAmount struct {
	Amount float64
	Index  InflationIndex
}

// BudgetInputs are the annual budget assumptions.
type BudgetInputs struct {
	Frame      Frame
	RevenuePct map[int]float64 // percent of GDP
	OutlaysPct map[int]float64 // percent of GDP, primary (non-interest)
	Additional *AdditionalRevenue
}

// BudgetRow is one month of the budget preview.
type BudgetRow struct {
	Month            calendar.Month
	Frame            Frame
	Year             int
	GDP              float64
	RevenuePct       float64
	OutlaysPct       float64
	Revenue          float64 // monthly USD millions
	Outlays          float64
	Additional       float64
	DeficitBase      float64
	DeficitAdjusted  float64
	DeficitAdjPctGDP float64
}

// BudgetPreviewColumns is the CSV header of the budget preview.
var BudgetPreviewColumns = []string{
	"date", "frame", "year_key", "gdp",
	"revenue_pct_gdp", "primary_outlays_pct_gdp",
	"revenue_month_usd_mn", "primary_outlays_month_usd_mn",
	"additional_revenue_month_usd_mn",
	"primary_deficit_base_month_usd_mn", "primary_deficit_adj_month_usd_mn",
	"primary_deficit_adj_pct_gdp",
}

// Guardrail is a non-fatal plausibility warning on annual budget shares.
type Guardrail struct {
	Code  string
	Frame Frame
	Year  int
	Value float64 // percent of GDP
}

// Budget is the monthly budget build-up.
type Budget struct {
	Revenue        calendar.Series
	Outlays        calendar.Series
	Additional     calendar.Series
	DeficitBase    calendar.Series
	PrimaryDeficit calendar.Series // base minus additional revenue
	Preview        []BudgetRow
	Warnings       []Guardrail
}

// BuildBudget converts annual %-of-GDP budget shares into monthly revenue,
// outlays and primary deficit series over idx.
func BuildBudget(in BudgetInputs, gdp *GDPModel, idx []calendar.Month) (*Budget, error) {
	frame := in.Frame
	if frame == "" {
		frame = FY
	}
	years := frame.Years(idx)
	rev := FillYears(in.RevenuePct, years)
	out := FillYears(in.OutlaysPct, years)

	additional, err := additionalAnnual(in.Additional, frame, gdp, years)
	if err != nil {
		return nil, err
	}

	b := &Budget{
		Revenue:        make(calendar.Series, len(idx)),
		Outlays:        make(calendar.Series, len(idx)),
		Additional:     make(calendar.Series, len(idx)),
		DeficitBase:    make(calendar.Series, len(idx)),
		PrimaryDeficit: make(calendar.Series, len(idx)),
		Preview:        make([]BudgetRow, 0, len(idx)),
	}
	for _, m := range idx {
		y := frame.YearOf(m)
		level, err := gdp.Level(frame, y)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", m, err)
		}
		r := rev[y] / 100 * level / 12
		o := out[y] / 100 * level / 12
		a := additional[y] / 12
		base := o - r
		adj := base - a

		b.Revenue[m] = r
		b.Outlays[m] = o
		b.Additional[m] = a
		b.DeficitBase[m] = base
		b.PrimaryDeficit[m] = adj
		b.Preview = append(b.Preview, BudgetRow{
			Month:            m,
			Frame:            frame,
			Year:             y,
			GDP:              level,
			RevenuePct:       rev[y],
			OutlaysPct:       out[y],
			Revenue:          r,
			Outlays:          o,
			Additional:       a,
			DeficitBase:      base,
			DeficitAdjusted:  adj,
			DeficitAdjPctGDP: adj * 12 / level * 100,
		})
	}
	b.Warnings = guardrails(b.Preview)
	return b, nil
}

// additionalAnnual resolves annual additional revenue (USD millions) per year.
func additionalAnnual(add *AdditionalRevenue, frame Frame, gdp *GDPModel, years []int) (map[int]float64, error) {
	out := make(map[int]float64, len(years))
	if add == nil {
		return out, nil
	}
	if add.Anchor != nil {
		for _, y := range years {
			out[y] = add.Anchor.Amount * add.Anchor.Index.Factor(y)
		}
		return out, nil
	}
	switch add.Mode {
	case ModeLevel:
		for y, v := range FillYears(add.AnnualLevel, years) {
			out[y] = v
		}
	case ModePctGDP:
		pct := FillYears(add.AnnualPctGDP, years)
		for _, y := range years {
			level, err := gdp.Level(frame, y)
			if err != nil {
				return nil, fmt.Errorf("additional revenue: %w", err)
			}
			out[y] = pct[y] / 100 * level
		}
	default:
		return nil, fmt.Errorf("additional revenue mode %q not supported", add.Mode)
	}
	return out, nil
}

func guardrails(rows []BudgetRow) []Guardrail {
	var out []Guardrail
	seen := make(map[int]bool)
	for _, r := range rows {
		if seen[r.Year] {
			continue
		}
		seen[r.Year] = true
		if r.RevenuePct < 10 || r.RevenuePct > 25 {
			out = append(out, Guardrail{Code: "REVENUE_SHARE_RANGE", Frame: r.Frame, Year: r.Year, Value: r.RevenuePct})
		}
		if r.OutlaysPct < 15 || r.OutlaysPct > 30 {
			out = append(out, Guardrail{Code: "OUTLAYS_SHARE_RANGE", Frame: r.Frame, Year: r.Year, Value: r.OutlaysPct})
		}
		if math.Abs(r.DeficitAdjPctGDP) > 10 {
			out = append(out, Guardrail{Code: "DEFICIT_SHARE_MAG", Frame: r.Frame, Year: r.Year, Value: r.DeficitAdjPctGDP})
		}
	}
	return out
}

// LogWarnings emits one warning record per guardrail.
func (b *Budget) LogWarnings(logger *slog.Logger) {
	for _, w := range b.Warnings {
		logger.Warn(w.Code,
			"frame", string(w.Frame),
			"year", w.Year,
			"pct_gdp", w.Value)
	}
}
