package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/debtproj/internal/debt"
)

const scenariosDir = "testdata/scenarios"

func TestScenarios_Golden(t *testing.T) {
	files, err := Find(scenariosDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		s, err := Load(f)
		require.NoError(t, err, f)
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestRun_ExpectError(t *testing.T) {
	s, err := Load(filepath.Join(scenariosDir, "invalid_rate.yaml"))
	require.NoError(t, err)

	res, err := Run(s)
	require.NoError(t, err)
	assert.True(t, res.Pass, res.Errors)
	assert.Nil(t, res.Trace)
	assert.Equal(t, debt.ErrCodeInvalidRate, debt.CodeOf(res.RunErr))
}

func TestRun_ExpectErrorButSucceeded(t *testing.T) {
	s, err := Load(filepath.Join(scenariosDir, "zero_deficit.yaml"))
	require.NoError(t, err)
	s.Assertions = []Assertion{{Type: AssertExpectError, Code: "INVALID_RATE"}}

	res, err := Run(s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "run succeeded")
}

func TestRun_FailingAssertions(t *testing.T) {
	s, err := Load(filepath.Join(scenariosDir, "budget_identity.yaml"))
	require.NoError(t, err)
	wrong := 1.0
	s.Assertions = []Assertion{
		{Type: AssertRowCount, Count: 5},
		{Type: AssertValueAt, Month: s.Anchor, Column: "gfn", Value: &wrong},
		{Type: AssertValueAt, Month: s.Anchor, Column: "nope", Value: &wrong},
		{Type: AssertSharesAt, Month: s.Anchor.Add(12), Expect: &debt.ShareRow{Short: 1}},
	}

	res, err := Run(s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors[0], "got 2 rows, want 5")
	assert.Contains(t, res.Errors[1], "gfn")
	assert.Contains(t, res.Errors[2], "unknown column")
	assert.Contains(t, res.Errors[3], "not in trace")
}

func TestRun_EngineFailureIsReported(t *testing.T) {
	s, err := Load(filepath.Join(scenariosDir, "zero_deficit.yaml"))
	require.NoError(t, err)
	s.Decay = &Decay{NB: 2, Tips: 0.01}

	res, err := Run(s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, debt.ErrCodeInvalidParameter, debt.CodeOf(res.RunErr))
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validHead = `name: s
description: d
anchor: "2025-07-01"
horizon_months: 2
start: {short: 1, nb: 1, tips: 1}
rates:
  constant: {short: 0.01, nb: 0.01, tips: 0.01}
shares:
  fixed: {short: 0.2, nb: 0.7, tips: 0.1}
`

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", validHead + "assertion: []\n", "field assertion not found"},
		{"no assertions", validHead, "assertions list is required"},
		{"unknown type", validHead + "assertions: [{type: magic}]\n", "unknown assertion type"},
		{"row_count without count", validHead + "assertions: [{type: row_count}]\n", "count must be positive"},
		{"value_at incomplete", validHead + "assertions: [{type: value_at, column: gfn}]\n", "month, column and value"},
		{"bad month key", validHead + "primary_deficit_by_month: {soon: 1}\nassertions: [{type: row_count, count: 2}]\n", "month key"},
		{"two rate sources", strings.Replace(validHead, "rates:\n", "rates:\n  fiscal_year: {short: {2025: 0.01}}\n", 1) +
			"assertions: [{type: row_count, count: 2}]\n", "exactly one of constant or fiscal_year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	s, err := Load(writeScenario(t, validHead+"assertions: [{type: row_count, count: 2}]\n"))
	require.NoError(t, err)
	res, err := Run(s)
	require.NoError(t, err)
	assert.True(t, res.Pass, res.Errors)
}

func TestFind_Filter(t *testing.T) {
	all, err := Find(scenariosDir, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	some, err := Find(scenariosDir, "*_rate*")
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, filepath.Join(scenariosDir, "fiscal_year_rates.yaml"), some[0])

	_, err = Find(scenariosDir, "[")
	assert.Error(t, err)
}

func TestGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join(scenariosDir, "zero_deficit.yaml"))
	require.NoError(t, err)
	path := filepath.Join(dir, "zero_deficit.yaml")
	require.NoError(t, os.WriteFile(path, src, 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	res, err := Run(s)
	require.NoError(t, err)

	_, ok, err := CompareGolden(s, res)
	require.NoError(t, err)
	assert.False(t, ok, "no golden yet")

	require.NoError(t, UpdateGolden(s, res))
	match, ok, err := CompareGolden(s, res)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, match)

	want, err := os.ReadFile(filepath.Join(scenariosDir, "golden", "zero_deficit.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(GoldenPath(s))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}
