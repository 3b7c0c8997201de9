package config

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
)

// Parameters is the optional parameters.json overlay.
type Parameters struct {
	IssuanceShares *BucketValues `json:"issuance_shares,omitempty"`
}

// LoadParameters reads a parameters file. Unknown keys are rejected.
func LoadParameters(path string) (*Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parameters: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	var p Parameters
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse parameters %s: %w", path, err)
	}
	if p.IssuanceShares != nil {
		if err := debt.ShareRow(*p.IssuanceShares).Validate(); err != nil {
			return nil, fmt.Errorf("parameters issuance_shares: %w", err)
		}
	}
	return &p, nil
}

// stocksDateColumn is matched case-insensitively against the CSV header.
const stocksDateColumn = "record date"

var stocksColumns = map[debt.Bucket]string{
	debt.Short: "stock_short",
	debt.NB:    "stock_nb",
	debt.Tips:  "stock_tips",
}

// LoadStocksCSV reads outstanding stocks by bucket and returns the latest
// row by record date.
func LoadStocksCSV(path string) (debt.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return debt.State{}, fmt.Errorf("open stocks: %w", err)
	}
	defer f.Close()
	st, err := ReadStocksCSV(f)
	if err != nil {
		return debt.State{}, fmt.Errorf("stocks %s: %w", path, err)
	}
	return st, nil
}

// ReadStocksCSV is LoadStocksCSV over a reader.
func ReadStocksCSV(r io.Reader) (debt.State, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return debt.State{}, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dateCol, ok := col[stocksDateColumn]
	if !ok {
		return debt.State{}, fmt.Errorf("missing column %q", "Record Date")
	}
	for _, b := range debt.Buckets {
		if _, ok := col[stocksColumns[b]]; !ok {
			return debt.State{}, &debt.ConfigError{Code: debt.ErrCodeMissingBucket, Field: stocksColumns[b],
				Message: "stocks file has no column for bucket"}
		}
	}

	var (
		latest calendar.Month
		state  debt.State
		rows   int
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return debt.State{}, fmt.Errorf("line %d: %w", line, err)
		}
		m, err := calendar.ParseMonth(strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return debt.State{}, fmt.Errorf("line %d: %w", line, err)
		}
		var s debt.State
		for _, b := range debt.Buckets {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col[stocksColumns[b]]]), 64)
			if err != nil {
				return debt.State{}, fmt.Errorf("line %d: column %s: %w", line, stocksColumns[b], err)
			}
			switch b {
			case debt.Short:
				s.Short = v
			case debt.NB:
				s.NB = v
			case debt.Tips:
				s.Tips = v
			}
		}
		// Ties on the same month keep the later line.
		if rows == 0 || !m.Before(latest) {
			latest, state = m, s
		}
		rows++
	}
	if rows == 0 {
		return debt.State{}, fmt.Errorf("no data rows")
	}
	return state, state.Validate()
}
