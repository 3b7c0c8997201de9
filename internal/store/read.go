package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/macro"
	"github.com/roach88/debtproj/internal/report"
)

const runColumns = `id, created_at, anchor, horizon_months, config_fingerprint, config_echo, run_dir,
	closing_short, closing_nb, closing_tips, checklist_passed`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		created string
		anchor  string
	)
	err := sc.Scan(&r.ID, &created, &anchor, &r.HorizonMonths, &r.ConfigFingerprint, &r.ConfigEcho, &r.RunDir,
		&r.Closing.Short, &r.Closing.NB, &r.Closing.Tips, &r.ChecklistPassed)
	if err != nil {
		return Run{}, err
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return Run{}, fmt.Errorf("run %s: created_at: %w", r.ID, err)
	}
	if r.Anchor, err = calendar.ParseMonth(anchor); err != nil {
		return Run{}, fmt.Errorf("run %s: anchor: %w", r.ID, err)
	}
	return r, nil
}

// ReadRun returns the run with id, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns archived runs ordered by id, which for UUIDv7 ids is
// creation order. A non-empty fingerprint restricts the list to runs of
// that configuration. The result is never nil.
func (s *Store) ListRuns(ctx context.Context, fingerprint string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if fingerprint != "" {
		query += ` WHERE config_fingerprint = ?`
		args = append(args, fingerprint)
	}
	query += ` ORDER BY id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadTrace returns the stored trace of run id ordered by month. Zero from
// or to leave that end open. Closing is the run's closing state regardless
// of the window.
func (s *Store) ReadTrace(ctx context.Context, id string, from, to calendar.Month) (*engine.Trace, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return nil, err
	}

	query := `SELECT month, ` + strings.Join(engine.NumericColumns, ", ") + ` FROM trace_rows WHERE run_id = ?`
	args := []any{id}
	if !from.IsZero() {
		query += ` AND month >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += ` AND month <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY month ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", id, err)
	}
	defer rows.Close()

	tr := &engine.Trace{Closing: run.Closing}
	for rows.Next() {
		var month string
		vals := make([]float64, len(engine.NumericColumns))
		dest := []any{&month}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("read trace %s: %w", id, err)
		}
		m, err := calendar.ParseMonth(month)
		if err != nil {
			return nil, fmt.Errorf("read trace %s: %w", id, err)
		}
		row, _ := engine.RowFromValues(m, vals)
		tr.Rows = append(tr.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace %s: %w", id, err)
	}
	return tr, nil
}

// ReadAnnual returns the annual table of run id in frame f, ordered by year.
func (s *Store) ReadAnnual(ctx context.Context, id string, f macro.Frame) ([]report.AnnualRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, months, interest, gdp, pct_gdp, additional_revenue
		FROM annual_rows
		WHERE run_id = ? AND frame = ?
		ORDER BY year ASC
	`, id, string(f))
	if err != nil {
		return nil, fmt.Errorf("read annual %s: %w", id, err)
	}
	defer rows.Close()

	out := []report.AnnualRow{}
	for rows.Next() {
		a := report.AnnualRow{Frame: f}
		if err := rows.Scan(&a.Year, &a.Months, &a.Interest, &a.GDP, &a.PctGDP, &a.AdditionalRevenue); err != nil {
			return nil, fmt.Errorf("read annual %s: %w", id, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read annual %s: %w", id, err)
	}
	return out, nil
}
