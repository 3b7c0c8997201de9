package macro

import "fmt"

// GDPModel derives annual GDP levels from one anchored fiscal-year level and
// fiscal-year growth rates.
type GDPModel struct {
	AnchorFY    int
	AnchorValue float64 // USD millions

	// GrowthFY maps fiscal year y to decimal growth from y-1 to y.
	GrowthFY map[int]float64
}

// NewGDPModelFromPercent builds a model from growth rates in percent.
func NewGDPModelFromPercent(anchorFY int, anchorValue float64, growthPct map[int]float64) (*GDPModel, error) {
	if !(anchorValue > 0) {
		return nil, fmt.Errorf("gdp anchor value must be positive, got %v", anchorValue)
	}
	g := make(map[int]float64, len(growthPct))
	for y, v := range growthPct {
		g[y] = v / 100
	}
	return &GDPModel{AnchorFY: anchorFY, AnchorValue: anchorValue, GrowthFY: g}, nil
}

// FY returns the fiscal-year GDP level. Years after the anchor compound
// forward; years before it divide backward. Every year crossed needs a
// growth entry.
func (g *GDPModel) FY(year int) (float64, error) {
	level := g.AnchorValue
	switch {
	case year > g.AnchorFY:
		for y := g.AnchorFY + 1; y <= year; y++ {
			r, ok := g.GrowthFY[y]
			if !ok {
				return 0, fmt.Errorf("missing gdp growth rate for FY%d", y)
			}
			level *= 1 + r
		}
	case year < g.AnchorFY:
		for y := g.AnchorFY; y > year; y-- {
			r, ok := g.GrowthFY[y]
			if !ok {
				return 0, fmt.Errorf("missing gdp growth rate for FY%d", y)
			}
			level /= 1 + r
		}
	}
	return level, nil
}

// CY approximates a calendar-year level from the two overlapping fiscal
// years: CY(y) = 0.75·FY(y) + 0.25·FY(y+1).
func (g *GDPModel) CY(year int) (float64, error) {
	a, err := g.FY(year)
	if err != nil {
		return 0, err
	}
	b, err := g.FY(year + 1)
	if err != nil {
		return 0, fmt.Errorf("CY%d: %w", year, err)
	}
	return 0.75*a + 0.25*b, nil
}

// Level returns the GDP level of year under frame f.
func (g *GDPModel) Level(f Frame, year int) (float64, error) {
	if f == CY {
		return g.CY(year)
	}
	return g.FY(year)
}
