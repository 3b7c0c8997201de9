package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/debtproj/internal/calendar"
	"github.com/roach88/debtproj/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
	Params string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid         bool           `json:"valid"`
	Anchor        calendar.Month `json:"anchor,omitzero"`
	HorizonMonths int            `json:"horizon_months,omitempty"`
	LastMonth     calendar.Month `json:"last_month,omitzero"`
	Fingerprint   string         `json:"config_fingerprint,omitempty"`
	Errors        []FieldError   `json:"errors,omitempty"`
}

// FieldError is one config validation failure.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Pos     string `json:"pos,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config without running",
		Long: `Parse and validate a config file without running a projection.

Checks the YAML against the schema, applies environment overrides and
runs the semantic checks a run would perform (GDP coverage, budget
modes, rate and share bounds). Prints the anchor and horizon on success.

Exit codes:
  0 - Config valid
  1 - Config invalid
  2 - Command error (file not found, unreadable parameters)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to config YAML (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVar(&opts.Params, "params", "", "path to parameters.json to include in the fingerprint")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(opts.Config)
	if err != nil {
		var ve *config.ValidationError
		if errors.As(err, &ve) {
			return outputValidationError(formatter, ve)
		}
		code, exit := classify(err)
		if code == ErrCodeGeneric {
			code, exit = ErrCodeLoadFailed, ExitCommandError
		}
		return formatter.Fail(code, exit, "failed to load config", err)
	}
	formatter.VerboseLog("Loaded %s", opts.Config)

	var params *config.Parameters
	if opts.Params != "" {
		if params, err = config.LoadParameters(opts.Params); err != nil {
			return formatter.Fail(ErrCodeLoadFailed, ExitCommandError, "failed to load parameters", err)
		}
	}

	idx, err := cfg.Index()
	if err != nil {
		return formatter.Fail(ErrCodeInvalidConfig, ExitFailure, "invalid horizon", err)
	}
	fingerprint, err := cfg.Normalized(params).Fingerprint()
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, ExitFailure, "failed to fingerprint config", err)
	}

	result := ValidationResult{
		Valid:         true,
		Anchor:        cfg.AnchorDate,
		HorizonMonths: cfg.HorizonMonths,
		LastMonth:     idx[len(idx)-1],
		Fingerprint:   fingerprint,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Config valid: anchor=%s horizon=%d months (through %s)\n",
		result.Anchor, result.HorizonMonths, result.LastMonth)
	formatter.VerboseLog("Fingerprint: %s", fingerprint)
	return nil
}

// outputValidationError reports a config validation failure (exit code 1).
func outputValidationError(formatter *OutputFormatter, ve *config.ValidationError) error {
	fe := FieldError{Field: ve.Field, Pos: ve.Pos, Message: ve.Message}
	if formatter.JSON() {
		_ = formatter.Error(ErrCodeInvalidConfig, ve.Error(), ValidationResult{Valid: false, Errors: []FieldError{fe}})
		return WrapExitError(ExitFailure, "config invalid", ve)
	}

	fmt.Fprintln(formatter.Writer, "✗ Config invalid")
	fmt.Fprintln(formatter.Writer)
	if fe.Pos != "" {
		fmt.Fprintln(formatter.Writer, fe.Pos)
	}
	if fe.Field != "" {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", fe.Field, fe.Message)
	} else {
		fmt.Fprintf(formatter.Writer, "  %s\n", fe.Message)
	}
	return WrapExitError(ExitFailure, "config invalid", ve)
}
