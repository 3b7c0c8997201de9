package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/debt"
	"github.com/roach88/debtproj/internal/engine"
	"github.com/roach88/debtproj/internal/issuance"
	"github.com/roach88/debtproj/internal/macro"
	"github.com/roach88/debtproj/internal/rates"
	"github.com/roach88/debtproj/internal/report"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testTrace runs a small constant-rate projection.
func testTrace(t *testing.T, months int) *engine.Trace {
	t.Helper()
	r, err := rates.NewConstant(debt.RateRow{Short: 0.04, NB: 0.035, Tips: 0.02})
	require.NoError(t, err)
	sh, err := issuance.NewFixedShares(debt.ShareRow{Short: 0.2, NB: 0.7, Tips: 0.1})
	require.NoError(t, err)
	e, err := engine.New(r, sh)
	require.NoError(t, err)

	idx, err := calendar.BuildIndex(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), months)
	require.NoError(t, err)
	tr, err := e.Run(context.Background(), engine.Inputs{
		Index:          idx,
		Start:          debt.State{Short: 100, NB: 1000, Tips: 50},
		PrimaryDeficit: calendar.Constant(idx, 10),
	})
	require.NoError(t, err)
	return tr
}

func testRun(id string, tr *engine.Trace) Run {
	return Run{
		ID:                id,
		CreatedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Anchor:            tr.Rows[0].Month,
		HorizonMonths:     tr.Len(),
		ConfigFingerprint: "fp-" + id,
		ConfigEcho:        `{"config":{}}`,
		RunDir:            "output/20260102T030405Z",
		Closing:           tr.Final(),
		ChecklistPassed:   true,
	}
}

var testAnnual = []report.AnnualRow{
	{Frame: macro.CY, Year: 2025, Months: 4, Interest: 12.5, GDP: 1000, PctGDP: 0.0125, AdditionalRevenue: 40},
	{Frame: macro.CY, Year: 2026, Months: 2, Interest: 6.25, GDP: 1100, PctGDP: 6.25 / 1100},
}

func TestOpen_PragmasAndVersion(t *testing.T) {
	s := createTestStore(t)

	mode, err := s.pragma("journal_mode")
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)

	fk, err := s.pragma("foreign_keys")
	require.NoError(t, err)
	assert.Equal(t, "1", fk)

	version, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(len(migrations)), version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_MigratesOlderArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec(`PRAGMA user_version = 1`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO runs (id, created_at, anchor, horizon_months, config_fingerprint, config_echo,
		closing_short, closing_nb, closing_tips) VALUES ('old', '2025-01-02T03:04:05Z', '2025-07-01', 3, 'fp', '{}', 0, 0, 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO annual_rows (run_id, frame, year, months, interest, gdp, pct_gdp)
		VALUES ('old', 'FY', 2025, 3, 9, 900, 0.01)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	version, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "2", version)

	fy, err := s.ReadAnnual(context.Background(), "old", macro.FY)
	require.NoError(t, err)
	require.Len(t, fy, 1)
	assert.Equal(t, 9.0, fy[0].Interest)
	assert.Zero(t, fy[0].AdditionalRevenue)
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := testTrace(t, 6)
	fy := []report.AnnualRow{{Frame: macro.FY, Year: 2025, Months: 1, Interest: 3, GDP: 900, PctGDP: 3.0 / 900}}

	require.NoError(t, s.WriteRun(ctx, testRun("run-1", tr), tr, testAnnual, fy))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, testRun("run-1", tr), got)

	stored, err := s.ReadTrace(ctx, "run-1", calendar.Month{}, calendar.Month{})
	require.NoError(t, err)
	assert.Equal(t, tr, stored)

	cy, err := s.ReadAnnual(ctx, "run-1", macro.CY)
	require.NoError(t, err)
	assert.Equal(t, testAnnual, cy)

	gotFY, err := s.ReadAnnual(ctx, "run-1", macro.FY)
	require.NoError(t, err)
	assert.Equal(t, fy, gotFY)
}

func TestReadTrace_Window(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := testTrace(t, 6)
	require.NoError(t, s.WriteRun(ctx, testRun("run-1", tr), tr, nil, nil))

	got, err := s.ReadTrace(ctx, "run-1", calendar.MustParseMonth("2025-10"), calendar.MustParseMonth("2025-12"))
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, tr.Rows[1:4], got.Rows)
	assert.Equal(t, tr.Final(), got.Final())
}

func TestWriteRun_DuplicateIDLeavesFirstRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := testTrace(t, 3)
	require.NoError(t, s.WriteRun(ctx, testRun("run-1", tr), tr, nil, nil))

	other := testTrace(t, 5)
	err := s.WriteRun(ctx, testRun("run-1", other), other, nil, nil)
	require.Error(t, err)

	got, err := s.ReadTrace(ctx, "run-1", calendar.Month{}, calendar.Month{})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}

func TestWriteRun_FailureIsAtomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := testTrace(t, 3)

	// Two rows for the same year violate the annual primary key.
	dup := []report.AnnualRow{testAnnual[0], testAnnual[0]}
	require.Error(t, s.WriteRun(ctx, testRun("run-1", tr), tr, dup, nil))

	_, err := s.ReadRun(ctx, "run-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM trace_rows`).Scan(&n))
	assert.Zero(t, n)
}

func TestWriteRun_Rejects(t *testing.T) {
	s := createTestStore(t)
	tr := testTrace(t, 2)
	assert.Error(t, s.WriteRun(context.Background(), testRun("", tr), tr, nil, nil))
	assert.Error(t, s.WriteRun(context.Background(), testRun("x", tr), &engine.Trace{}, nil, nil))
}

func TestListRuns_OrderedByUUIDv7(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := testTrace(t, 2)

	gen := UUIDv7Generator{}
	var ids []string
	for i := 0; i < 3; i++ {
		id := gen.Generate()
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}
	for i := len(ids) - 1; i >= 0; i-- {
		run := testRun(ids[i], tr)
		run.ConfigFingerprint = "same"
		require.NoError(t, s.WriteRun(ctx, run, tr, nil, nil))
	}

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, r := range runs {
		assert.Equal(t, ids[i], r.ID)
	}

	filtered, err := s.ListRuns(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, filtered)
	assert.NotNil(t, filtered)
}

func TestDeleteRun_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := testTrace(t, 3)
	require.NoError(t, s.WriteRun(ctx, testRun("run-1", tr), tr, testAnnual, nil))

	require.NoError(t, s.DeleteRun(ctx, "run-1"))
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM annual_rows`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, s.DeleteRun(ctx, "run-1"), ErrNotFound)
	_, err := s.ReadTrace(ctx, "run-1", calendar.Month{}, calendar.Month{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
