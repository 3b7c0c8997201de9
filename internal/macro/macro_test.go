package macro

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/debtproj/internal/calendar"
)

func months(start string, n int) []calendar.Month {
	m := calendar.MustParseMonth(start)
	idx := make([]calendar.Month, n)
	for i := range idx {
		idx[i] = m.Add(i)
	}
	return idx
}

func testGDP(t *testing.T) *GDPModel {
	t.Helper()
	g, err := NewGDPModelFromPercent(2025, 30_000_000, map[int]float64{2026: 4, 2027: 4})
	require.NoError(t, err)
	return g
}

func TestFillYears(t *testing.T) {
	got := FillYears(map[int]float64{2026: 1, 2028: 3}, []int{2025, 2026, 2027, 2028, 2029})
	assert.Equal(t, map[int]float64{2025: 1, 2026: 1, 2027: 1, 2028: 3, 2029: 3}, got)

	assert.Equal(t, map[int]float64{2025: 0, 2026: 0}, FillYears(nil, []int{2025, 2026}))
}

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame("cy")
	require.NoError(t, err)
	assert.Equal(t, CY, f)

	f, err = ParseFrame("")
	require.NoError(t, err)
	assert.Equal(t, FY, f)

	_, err = ParseFrame("QY")
	assert.Error(t, err)
}

func TestFrame_YearOf(t *testing.T) {
	m := calendar.MustParseMonth("2025-10")
	assert.Equal(t, 2026, FY.YearOf(m))
	assert.Equal(t, 2025, CY.YearOf(m))
	assert.Equal(t, []int{2025, 2026}, FY.Years(months("2025-09", 3)))
}

func TestGDPModel(t *testing.T) {
	g := testGDP(t)

	fy, err := g.FY(2025)
	require.NoError(t, err)
	assert.Equal(t, 30_000_000.0, fy)

	fy, err = g.FY(2027)
	require.NoError(t, err)
	assert.InDelta(t, 32_448_000.0, fy, 1e-6)

	cy, err := g.CY(2025)
	require.NoError(t, err)
	assert.InDelta(t, 30_300_000.0, cy, 1e-6)

	_, err = g.FY(2024)
	assert.ErrorContains(t, err, "FY2025")

	_, err = g.CY(2027)
	assert.ErrorContains(t, err, "FY2028")
}

func TestGDPModel_Backward(t *testing.T) {
	g, err := NewGDPModelFromPercent(2025, 30_000_000, map[int]float64{2025: 5})
	require.NoError(t, err)

	fy, err := g.FY(2024)
	require.NoError(t, err)
	assert.InDelta(t, 30_000_000/1.05, fy, 1e-6)

	_, err = NewGDPModelFromPercent(2025, 0, nil)
	assert.Error(t, err)
}

func TestBuildBudget_FY(t *testing.T) {
	idx := months("2025-09", 2)
	b, err := BuildBudget(BudgetInputs{
		Frame:      FY,
		RevenuePct: map[int]float64{2026: 18},
		OutlaysPct: map[int]float64{2026: 21},
	}, testGDP(t), idx)
	require.NoError(t, err)

	assert.InDelta(t, 450_000.0, b.Revenue[idx[0]], 1e-6)
	assert.InDelta(t, 525_000.0, b.Outlays[idx[0]], 1e-6)
	assert.InDelta(t, 75_000.0, b.PrimaryDeficit[idx[0]], 1e-6)
	assert.InDelta(t, 468_000.0, b.Revenue[idx[1]], 1e-6)
	assert.InDelta(t, 78_000.0, b.PrimaryDeficit[idx[1]], 1e-6)

	require.Len(t, b.Preview, 2)
	assert.Equal(t, 2026, b.Preview[1].Year)
	assert.InDelta(t, 3.0, b.Preview[1].DeficitAdjPctGDP, 1e-9)
	assert.Empty(t, b.Warnings)
}

func TestBuildBudget_AdditionalRevenue(t *testing.T) {
	idx := months("2025-09", 2)
	g := testGDP(t)

	tests := []struct {
		name string
		add  *AdditionalRevenue
		want [2]float64 // monthly additional revenue
	}{
		{
			name: "level",
			add:  &AdditionalRevenue{Mode: ModeLevel, AnnualLevel: map[int]float64{2025: 1200, 2026: 2400}},
			want: [2]float64{100, 200},
		},
		{
			name: "pct of gdp",
			add:  &AdditionalRevenue{Mode: ModePctGDP, AnnualPctGDP: map[int]float64{2025: 1}},
			want: [2]float64{25_000, 26_000},
		},
		{
			name: "anchored and indexed",
			add: &AdditionalRevenue{Mode: ModeLevel, Anchor: &AnchoredAmount{
				Amount: 120,
				Index:  InflationIndex{AnchorYear: 2025, RatesPct: map[int]float64{2026: 2}},
			}},
			want: [2]float64{10, 10.2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := BuildBudget(BudgetInputs{
				Frame:      FY,
				RevenuePct: map[int]float64{2025: 18},
				OutlaysPct: map[int]float64{2025: 21},
				Additional: tt.add,
			}, g, idx)
			require.NoError(t, err)
			for i, m := range idx {
				assert.InDelta(t, tt.want[i], b.Additional[m], 1e-9)
				assert.InDelta(t, b.DeficitBase[m]-b.Additional[m], b.PrimaryDeficit[m], 1e-9)
			}
		})
	}
}

func TestBuildBudget_GuardrailsLogged(t *testing.T) {
	idx := months("2025-09", 1)
	b, err := BuildBudget(BudgetInputs{
		Frame:      FY,
		RevenuePct: map[int]float64{2025: 5},
		OutlaysPct: map[int]float64{2025: 21},
	}, testGDP(t), idx)
	require.NoError(t, err)

	require.Len(t, b.Warnings, 2)
	assert.Equal(t, "REVENUE_SHARE_RANGE", b.Warnings[0].Code)
	assert.Equal(t, "DEFICIT_SHARE_MAG", b.Warnings[1].Code)

	var buf bytes.Buffer
	b.LogWarnings(slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Contains(t, buf.String(), "REVENUE_SHARE_RANGE")
	assert.Contains(t, buf.String(), "year=2025")
}

func TestBuildBudget_MissingGrowth(t *testing.T) {
	_, err := BuildBudget(BudgetInputs{Frame: FY}, testGDP(t), months("2027-09", 2))
	assert.ErrorContains(t, err, "FY2028")
}

func TestInflationIndex_Factor(t *testing.T) {
	x := InflationIndex{AnchorYear: 2025, RatesPct: map[int]float64{2026: 2, 2027: 3}}

	assert.Equal(t, 1.0, x.Factor(2025))
	assert.InDelta(t, 1.02, x.Factor(2026), 1e-12)
	assert.InDelta(t, 1.02*1.03, x.Factor(2027), 1e-12)
	assert.InDelta(t, 1.02*1.03*1.03, x.Factor(2028), 1e-12)
	// 2025 is filled from the earliest entry.
	assert.InDelta(t, 1/1.02, x.Factor(2024), 1e-12)

	assert.Equal(t, 1.0, InflationIndex{AnchorYear: 2025}.Factor(2030))
}

func TestParseIndexAndMode(t *testing.T) {
	ix, err := ParseIndex("PCE")
	require.NoError(t, err)
	assert.Equal(t, IndexPCE, ix)
	_, err = ParseIndex("gdp")
	assert.Error(t, err)

	mode, err := ParseAdditionalMode("Level")
	require.NoError(t, err)
	assert.Equal(t, ModeLevel, mode)
	_, err = ParseAdditionalMode("both")
	assert.Error(t, err)
}

func TestBuildOtherInterest(t *testing.T) {
	idx := months("2025-09", 2)
	series, rows, err := BuildOtherInterest(OtherInterestInputs{
		Enabled:      true,
		Frame:        FY,
		AnnualPctGDP: map[int]float64{2025: 1},
		AnnualUSD:    map[int]float64{2026: 1200},
	}, testGDP(t), idx)
	require.NoError(t, err)

	assert.InDelta(t, 25_000.0, series[idx[0]], 1e-6)
	assert.Equal(t, 100.0, series[idx[1]])
	require.Len(t, rows, 2)
	assert.Equal(t, "PCT", rows[0].Mode)
	assert.Equal(t, "ABS", rows[1].Mode)
}

func TestBuildOtherInterest_Disabled(t *testing.T) {
	idx := months("2025-09", 3)
	series, rows, err := BuildOtherInterest(OtherInterestInputs{AnnualUSD: map[int]float64{2025: 1}}, testGDP(t), idx)
	require.NoError(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, []float64{0, 0, 0}, series.Reindex(idx))
}
