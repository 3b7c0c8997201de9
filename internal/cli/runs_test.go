package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/debtproj/internal/store"
)

func TestRunsMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(NewRunsCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRunsNonExistentDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(NewRunsCommand(&RootOptions{Format: "text"}), "--db", missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeNotFound)
	assert.NoFileExists(t, missing, "listing must not create a database")
}

func TestRunsEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := execute(NewRunsCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs found.")
}

func TestRunsListsArchivedRun(t *testing.T) {
	dbPath := archivedRun(t, "run-0001")

	stdout, _, err := execute(NewRunsCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ID")
	assert.Contains(t, stdout, "run-0001")
	assert.Contains(t, stdout, "2025-07-01")
	assert.Contains(t, stdout, "1 run(s)")
}

func TestRunsJSONAndFingerprintFilter(t *testing.T) {
	dbPath := archivedRun(t, "run-0002")

	stdout, _, err := execute(NewRunsCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Runs, 1)
	run := resp.Data.Runs[0]
	assert.Equal(t, "run-0002", run.ID)
	assert.Equal(t, 12, run.HorizonMonths)

	stdout, _, err = execute(NewRunsCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--fingerprint", run.ConfigFingerprint)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Len(t, resp.Data.Runs, 1)

	stdout, _, err = execute(NewRunsCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--fingerprint", "0000")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Empty(t, resp.Data.Runs)
}

func TestRunsDelete(t *testing.T) {
	dbPath := archivedRun(t, "run-del")

	stdout, _, err := execute(NewRunsCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--delete", "run-del")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Deleted run run-del")

	stdout, _, err = execute(NewRunsCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs found.")

	_, _, err = execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "run-del")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunsDeleteUnknownRun(t *testing.T) {
	dbPath := archivedRun(t, "run-keep")

	stdout, _, err := execute(NewRunsCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--delete", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)

	stdout, _, err = execute(NewRunsCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "run-keep")
}

func TestRunsDeleteExcludesFingerprint(t *testing.T) {
	dbPath := archivedRun(t, "run-x")

	_, _, err := execute(NewRunsCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--delete", "run-x", "--fingerprint", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
