package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/macro"
	"github.com/roach88/debtproj/internal/report"
)

// Writer writes artifacts into one run directory.
type Writer struct {
	Dir string
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string) *Writer { return &Writer{Dir: dir} }

// Path returns the path of artifact name.
func (w *Writer) Path(name string) string { return filepath.Join(w.Dir, name) }

// FormatFloat renders v with the fewest digits that round-trip, never in
// exponent form.
func FormatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteCSV writes header and rows to name.
func (w *Writer) WriteCSV(name string, header []string, rows [][]string) error {
	f, err := os.Create(w.Path(name))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON to name.
func (w *Writer) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.WriteFile(w.Path(name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteTrace writes the monthly trace.
func (w *Writer) WriteTrace(tr *engine.Trace) error {
	rows := make([][]string, 0, tr.Len())
	for _, r := range tr.Rows {
		row := []string{r.Month.String()}
		for _, v := range r.Values() {
			row = append(row, FormatFloat(v))
		}
		rows = append(rows, row)
	}
	return w.WriteCSV(TraceFile, engine.Columns(), rows)
}

// WriteAnnual writes the CY and FY interest tables.
func (w *Writer) WriteAnnual(cy, fy []report.AnnualRow) error {
	for _, t := range []struct {
		name string
		rows []report.AnnualRow
	}{{AnnualCYFile, cy}, {AnnualFYFile, fy}} {
		rows := make([][]string, 0, len(t.rows))
		for _, a := range t.rows {
			rows = append(rows, []string{
				strconv.Itoa(a.Year), strconv.Itoa(a.Months),
				FormatFloat(a.Interest), FormatFloat(a.GDP), FormatFloat(a.PctGDP),
				FormatFloat(a.AdditionalRevenue),
			})
		}
		if err := w.WriteCSV(t.name, report.AnnualColumns, rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteBridge writes the interest bridge table.
func (w *Writer) WriteBridge(b report.BridgeRow) error {
	var row []string
	for _, v := range b.Values() {
		row = append(row, FormatFloat(v))
	}
	return w.WriteCSV(BridgeFile, report.BridgeColumns, [][]string{row})
}

// WriteRatesPreview writes the rate row of each month.
func (w *Writer) WriteRatesPreview(idx []calendar.Month, rates []debt.RateRow) error {
	if len(idx) != len(rates) {
		return fmt.Errorf("write %s: %d months but %d rate rows", RatesPreviewFile, len(idx), len(rates))
	}
	rows := make([][]string, len(idx))
	for i, m := range idx {
		r := rates[i]
		rows[i] = []string{m.String(), FormatFloat(r.Short), FormatFloat(r.NB), FormatFloat(r.Tips)}
	}
	return w.WriteCSV(RatesPreviewFile, []string{"date", "short", "nb", "tips"}, rows)
}

// WriteSharesPreview writes the issuance shares of each month.
func (w *Writer) WriteSharesPreview(idx []calendar.Month, shares []debt.ShareRow) error {
	if len(idx) != len(shares) {
		return fmt.Errorf("write %s: %d months but %d share rows", SharesPreviewFile, len(idx), len(shares))
	}
	rows := make([][]string, len(idx))
	for i, m := range idx {
		s := shares[i]
		rows[i] = []string{m.String(), FormatFloat(s.Short), FormatFloat(s.NB), FormatFloat(s.Tips)}
	}
	return w.WriteCSV(SharesPreviewFile, []string{"date", "share_short", "share_nb", "share_tips"}, rows)
}

// WriteBudgetPreview writes the monthly budget build-up.
func (w *Writer) WriteBudgetPreview(preview []macro.BudgetRow) error {
	rows := make([][]string, len(preview))
	for i, b := range preview {
		rows[i] = []string{
			b.Month.String(), string(b.Frame), strconv.Itoa(b.Year), FormatFloat(b.GDP),
			FormatFloat(b.RevenuePct), FormatFloat(b.OutlaysPct),
			FormatFloat(b.Revenue), FormatFloat(b.Outlays), FormatFloat(b.Additional),
			FormatFloat(b.DeficitBase), FormatFloat(b.DeficitAdjusted), FormatFloat(b.DeficitAdjPctGDP),
		}
	}
	return w.WriteCSV(DeficitsFile, macro.BudgetPreviewColumns, rows)
}

// WriteOtherInterestPreview writes the other-interest build-up.
func (w *Writer) WriteOtherInterestPreview(preview []macro.OtherInterestRow) error {
	rows := make([][]string, len(preview))
	for i, o := range preview {
		rows[i] = []string{
			o.Month.String(), string(o.Frame), strconv.Itoa(o.Year), o.Mode,
			FormatFloat(o.PctGDP), FormatFloat(o.Annual), FormatFloat(o.Monthly),
		}
	}
	return w.WriteCSV(OtherInterestFile, macro.OtherInterestColumns, rows)
}
