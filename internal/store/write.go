package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/report"
)

// Run is the archived summary of one projection.
type Run struct {
	ID                string         `json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	Anchor            calendar.Month `json:"anchor"`
	HorizonMonths     int            `json:"horizon_months"`
	ConfigFingerprint string         `json:"config_fingerprint"`
	ConfigEcho        string         `json:"-"` // JSON
	RunDir            string         `json:"run_dir,omitempty"`
	Closing           debt.State     `json:"closing"`
	ChecklistPassed   bool           `json:"checklist_passed"`
}

var insertTraceSQL = fmt.Sprintf(
	"INSERT INTO trace_rows (run_id, month, %s) VALUES (?, ?%s)",
	strings.Join(engine.NumericColumns, ", "),
	strings.Repeat(", ?", len(engine.NumericColumns)),
)

// WriteRun archives run with its trace and annual tables in one
// transaction. Writing an id that already exists is an error.
func (s *Store) WriteRun(ctx context.Context, run Run, tr *engine.Trace, cy, fy []report.AnnualRow) error {
	if run.ID == "" {
		return fmt.Errorf("write run: id is required")
	}
	if tr == nil || tr.Len() == 0 {
		return fmt.Errorf("write run %s: trace is empty", run.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run %s: begin tx: %w", run.ID, err)
	}
	defer tx.Rollback() // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, anchor, horizon_months, config_fingerprint, config_echo, run_dir,
		 closing_short, closing_nb, closing_tips, checklist_passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.Anchor.String(),
		run.HorizonMonths,
		run.ConfigFingerprint,
		run.ConfigEcho,
		run.RunDir,
		run.Closing.Short,
		run.Closing.NB,
		run.Closing.Tips,
		run.ChecklistPassed,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}

	traceStmt, err := tx.PrepareContext(ctx, insertTraceSQL)
	if err != nil {
		return fmt.Errorf("write run %s: prepare trace: %w", run.ID, err)
	}
	defer traceStmt.Close()
	for _, r := range tr.Rows {
		args := []any{run.ID, r.Month.String()}
		for _, v := range r.Values() {
			args = append(args, v)
		}
		if _, err := traceStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("write run %s: trace %s: %w", run.ID, r.Month, err)
		}
	}

	annualStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO annual_rows (run_id, frame, year, months, interest, gdp, pct_gdp, additional_revenue)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run %s: prepare annual: %w", run.ID, err)
	}
	defer annualStmt.Close()
	for _, rows := range [][]report.AnnualRow{cy, fy} {
		for _, a := range rows {
			if _, err := annualStmt.ExecContext(ctx, run.ID, string(a.Frame), a.Year, a.Months, a.Interest, a.GDP, a.PctGDP, a.AdditionalRevenue); err != nil {
				return fmt.Errorf("write run %s: annual %s%d: %w", run.ID, a.Frame, a.Year, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}
	return nil
}

// DeleteRun removes a run and, by cascade, its rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}
