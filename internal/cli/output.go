package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/debtproj/internal/config"
	"github.com/roach88/debtproj/internal/debt"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure, invariant violation, failed checklist
	ExitCommandError = 2 // Command error (bad paths, invalid config, database errors)
)

// Error codes reported in the JSON envelope.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeScanError      = "E002" // Directory scan error
	ErrCodeNoFiles        = "E003" // No scenario files found
	ErrCodeLoadFailed     = "E004" // Config or parameters could not be loaded
	ErrCodeNotFound       = "E005" // Path or run not found
	ErrCodeBuildFailed    = "E006" // Inputs could not be built from the config
	ErrCodeWriteFailed    = "E007" // Artifact or archive write error
	ErrCodeInvalidConfig  = "E008" // Config failed schema or semantic validation
	ErrCodeInvariant      = "E009" // Projection violated a numerical invariant
	ErrCodeDatabase       = "E010" // Run archive could not be opened or read
	ErrCodeScenarioFailed = "E011" // One or more scenarios failed
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps a projection error to an envelope code and exit code.
// Invariant violations are run failures; bad inputs are command errors.
func classify(err error) (string, int) {
	switch {
	case debt.IsInvariantError(err):
		return ErrCodeInvariant, ExitFailure
	case config.IsValidationError(err), debt.IsConfigError(err):
		return ErrCodeInvalidConfig, ExitCommandError
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound, ExitCommandError
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

// errorDetails returns the structured fields of a typed domain error for the
// JSON envelope, or nil.
func errorDetails(err error) any {
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return map[string]string{"field": ve.Field, "pos": ve.Pos}
	}
	if code := debt.CodeOf(err); code != "" {
		return map[string]string{"code": string(code)}
	}
	return nil
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // run id, when a run was started
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}

// JSON reports whether the formatter emits the JSON envelope.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	return f.SuccessWithTrace(data, "")
}

// SuccessWithTrace is Success with a correlation id in the JSON envelope.
func (f *OutputFormatter) SuccessWithTrace(data any, traceID string) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: traceID,
		})
	}

	if s, ok := data.(fmt.Stringer); ok {
		fmt.Fprintln(f.Writer, s.String())
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// ErrorWithData outputs an error envelope that also carries a result
// payload, such as a test summary with failures. Text mode prints only the
// error line.
func (f *OutputFormatter) ErrorWithData(code, message string, data any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	return f.Error(code, message, nil)
}

// Fail reports err through the formatter and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(code string, exit int, message string, err error) error {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, msg, errorDetails(err))
	return WrapExitError(exit, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

var amounts = message.NewPrinter(language.English)

// usd formats an amount in USD millions with thousands separators.
func usd(v float64) string {
	return amounts.Sprintf("%.1f", v)
}

// pct formats a value already expressed in percent.
func pct(v float64) string {
	return amounts.Sprintf("%.2f%%", v)
}
