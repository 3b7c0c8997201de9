package rates

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// MonthlyTable holds explicit rates for each covered month. It never
// fills gaps: requesting an uncovered month is a configuration error.
type MonthlyTable struct {
	rows map[calendar.Month]debt.RateRow
	// first and last covered months, for diagnostics
	first, last calendar.Month
}

// MonthlyRate is one entry of a MonthlyTable.
type MonthlyRate struct {
	Month calendar.Month
	Rates debt.RateRow
}

// NewMonthlyTable validates entries and builds the table. Months must be
// strictly increasing.
func NewMonthlyTable(entries []MonthlyRate) (*MonthlyTable, error) {
	if len(entries) == 0 {
		return nil, &debt.ConfigError{Code: debt.ErrCodeMissingCoverage, Field: "rates", Message: "monthly rate table is empty"}
	}
	t := &MonthlyTable{rows: make(map[calendar.Month]debt.RateRow, len(entries))}
	for i, e := range entries {
		if i > 0 && !entries[i-1].Month.Before(e.Month) {
			return nil, &debt.ConfigError{
				Code:    debt.ErrCodeInvalidIndex,
				Field:   "date",
				Month:   e.Month,
				Message: "monthly rate dates must be strictly increasing",
			}
		}
		if err := e.Rates.Validate(); err != nil {
			return nil, fmt.Errorf("rates for %s: %w", e.Month, err)
		}
		t.rows[e.Month] = e.Rates
	}
	t.first = entries[0].Month
	t.last = entries[len(entries)-1].Month
	return t, nil
}

// LoadMonthlyCSV reads a rate table with header columns date, short, nb and
// tips (any order, case-insensitive; extra columns are ignored).
func LoadMonthlyCSV(path string) (*MonthlyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rates csv: %w", err)
	}
	defer f.Close()

	t, err := ReadMonthlyCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadMonthlyCSV parses a rate table from r. See LoadMonthlyCSV.
func ReadMonthlyCSV(r io.Reader) (*MonthlyTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "short", "nb", "tips"} {
		if _, ok := col[name]; !ok {
			return nil, &debt.ConfigError{Code: debt.ErrCodeMissingBucket, Field: name, Message: "rates csv missing required column"}
		}
	}

	var entries []MonthlyRate
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		m, err := calendar.ParseMonth(rec[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var row debt.RateRow
		for _, b := range debt.Buckets {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col[string(b)]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, b, err)
			}
			row = row.Set(b, v)
		}
		entries = append(entries, MonthlyRate{Month: m, Rates: row})
	}
	return NewMonthlyTable(entries)
}

// Coverage returns the first and last covered months.
func (t *MonthlyTable) Coverage() (first, last calendar.Month) { return t.first, t.last }

// Get returns the rates for every month of idx. The first uncovered month
// fails the whole call.
func (t *MonthlyTable) Get(idx []calendar.Month) ([]debt.RateRow, error) {
	if err := debt.CheckIndex(idx); err != nil {
		return nil, err
	}
	out := make([]debt.RateRow, len(idx))
	for i, m := range idx {
		row, ok := t.rows[m]
		if !ok {
			return nil, &debt.ConfigError{
				Code:    debt.ErrCodeMissingCoverage,
				Field:   "rates",
				Month:   m,
				Message: fmt.Sprintf("rate table does not cover month (covers %s..%s)", t.first, t.last),
			}
		}
		out[i] = row
	}
	return out, nil
}
