package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMissingConfigFlag(t *testing.T) {
	_, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestValidateValidConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "macro.yaml", baseConfig)

	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Config valid: anchor=2025-07-01 horizon=12 months (through 2026-06-01)")
}

func TestValidateValidConfigJSON(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "macro.yaml", baseConfig)

	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), "--config", cfg)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "2025-07-01", resp.Data.Anchor.String())
	assert.Equal(t, 12, resp.Data.HorizonMonths)
	assert.Len(t, resp.Data.Fingerprint, 64)
}

func TestValidateFingerprintIncludesParams(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "macro.yaml", baseConfig)
	params := writeFile(t, dir, "parameters.json", `{"issuance_shares": {"short": 0.3, "nb": 0.6, "tips": 0.1}}`)

	fingerprint := func(args ...string) string {
		stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), args...)
		require.NoError(t, err)
		var resp struct {
			Data ValidationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		return resp.Data.Fingerprint
	}

	plain := fingerprint("--config", cfg)
	assert.Equal(t, plain, fingerprint("--config", cfg), "stable across loads")
	assert.NotEqual(t, plain, fingerprint("--config", cfg, "--params", params))
}

func TestValidateInvalidConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		wantField string
	}{
		{
			name:      "rate above one",
			config:    withConfig(map[string]string{"short: 0.043": "short: 4.3"}),
			wantField: "rates",
		},
		{
			name:      "shares do not sum to one",
			config:    withConfig(map[string]string{"nb: 0.7": "nb: 0.6"}),
			wantField: "issuance",
		},
		{
			name:      "missing growth year",
			config:    withConfig(map[string]string{"    2027: 4.0\n": ""}),
			wantField: "gdp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFile(t, t.TempDir(), "macro.yaml", tt.config)

			stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "--config", cfg)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, stdout, "✗ Config invalid")
			assert.Contains(t, stdout, tt.wantField)
		})
	}
}

func TestValidateInvalidConfigJSON(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "macro.yaml", withConfig(map[string]string{"nb: 0.7": "nb: 0.6"}))

	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), "--config", cfg)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidConfig, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestValidateMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "--config", missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeNotFound)
}

func TestValidateEmptyFile(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "macro.yaml", "\n")

	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "config file is empty")
}
