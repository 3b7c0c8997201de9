package rates

import (
	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// Constant returns the same rates for every month.
type Constant struct {
	row debt.RateRow
}

// NewConstant validates row and returns a provider that always yields it.
func NewConstant(row debt.RateRow) (*Constant, error) {
	if err := row.Validate(); err != nil {
		return nil, err
	}
	return &Constant{row: row}, nil
}

// Row returns the configured rates.
func (c *Constant) Row() debt.RateRow { return c.row }

// Get returns one copy of the configured row per month of idx.
func (c *Constant) Get(idx []calendar.Month) ([]debt.RateRow, error) {
	if err := debt.CheckIndex(idx); err != nil {
		return nil, err
	}
	out := make([]debt.RateRow, len(idx))
	for i := range out {
		out[i] = c.row
	}
	return out, nil
}
