package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRequiredFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--run", "x"},
		{"--db", "x.db"},
	} {
		_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required flag")
	}
}

func TestTraceUnknownRun(t *testing.T) {
	dbPath := archivedRun(t, "run-a")

	stdout, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--run", "run-b")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestTraceFullText(t *testing.T) {
	dbPath := archivedRun(t, "run-a")

	stdout, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "run-a")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run run-a (anchor 2025-07-01, 12 months)")
	assert.Contains(t, stdout, "MONTH")
	assert.Contains(t, stdout, "2025-07-01")
	assert.Contains(t, stdout, "2026-06-01")
	assert.Contains(t, stdout, "6,000,000.0")
	assert.Contains(t, stdout, "Closing:")
}

func TestTraceWindowJSON(t *testing.T) {
	dbPath := archivedRun(t, "run-a")

	stdout, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--run", "run-a", "--from", "2025-09", "--to", "2025-11")
	require.NoError(t, err)

	var resp struct {
		TraceID string      `json:"trace_id"`
		Data    TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "run-a", resp.TraceID)
	require.Len(t, resp.Data.Rows, 3)
	assert.Equal(t, "2025-09-01", resp.Data.Rows[0].Month.String())
	assert.Equal(t, "2025-11-01", resp.Data.Rows[2].Month.String())
	for _, r := range resp.Data.Rows {
		assert.InDelta(t, r.InterestShort+r.InterestNB+r.InterestTips, r.InterestTotal, 1e-6)
	}
}

func TestTraceAnnual(t *testing.T) {
	dbPath := archivedRun(t, "run-a")

	stdout, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--run", "run-a", "--annual", "fy")
	require.NoError(t, err)
	assert.Contains(t, stdout, "FY interest")
	assert.Contains(t, stdout, "FY2025")
	assert.Contains(t, stdout, "FY2026")
	assert.Contains(t, stdout, "%")

	stdout, _, err = execute(NewTraceCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--run", "run-a", "--annual", "CY")
	require.NoError(t, err)
	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Annual, 2)
	assert.Equal(t, 2025, resp.Data.Annual[0].Year)
	assert.Equal(t, 6, resp.Data.Annual[0].Months)
	assert.Empty(t, resp.Data.Rows)
}

func TestTraceInvalidWindow(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad from", []string{"--from", "July"}, "--from"},
		{"reversed", []string{"--from", "2026-01", "--to", "2025-01"}, "before"},
		{"bad frame", []string{"--annual", "quarterly"}, "--annual"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", "unused.db", "--run", "x"}, tt.args...)
			stdout, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.True(t, strings.Contains(stdout, tt.want), stdout)
		})
	}
}
