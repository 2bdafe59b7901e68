package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/roach88/recordstore/internal/driver"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Record not found, version mismatch, incompatible schema, rolled back batch
	ExitCommandError = 2 // Command error (bad flags, unreadable manifest, database cannot be opened)
)

// Error codes reported in CLI error responses that do not come from the
// driver.
const (
	ErrCodeCommand      = "COMMAND_ERROR"
	ErrCodeFailure      = "FAILURE"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeIncompatible = "INCOMPATIBLE_SCHEMA"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	ErrCode string // Error code for the response (optional)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported marks errors whose outcome the command already printed.
	Reported bool
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
func NewExitError(code int, errCode, message string) *ExitError {
	return &ExitError{Code: code, ErrCode: errCode, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError (2) if the error is not an ExitError: cobra
// reports flag and argument problems as plain errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// errorCode picks the response code for err: the driver error code when
// there is one, then the ExitError code, then a generic code.
func errorCode(err error) string {
	var de *driver.Error
	if errors.As(err, &de) {
		return string(de.Code)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ErrCode != "" {
			return exitErr.ErrCode
		}
		if exitErr.Code == ExitFailure {
			return ErrCodeFailure
		}
	}
	return ErrCodeCommand
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
	TraceID string // Correlates the response with log lines
}

// NewOutputFormatter returns a formatter with a fresh trace id.
func NewOutputFormatter(format string, w io.Writer, verbose bool) *OutputFormatter {
	return &OutputFormatter{
		Format:  format,
		Writer:  w,
		Verbose: verbose,
		TraceID: uuid.Must(uuid.NewV7()).String(),
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // trace correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "VERSION_MISMATCH", "NOT_FOUND", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// In text mode data is printed with its String method.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: f.TraceID,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: f.TraceID,
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// errorDetails exposes the structured fields of a driver error.
func errorDetails(err error) any {
	var de *driver.Error
	if !errors.As(err, &de) {
		return nil
	}
	details := map[string]any{}
	if de.Operation >= 0 {
		details["operation"] = de.Operation
	}
	if de.ArgSet >= 0 {
		details["arg_set"] = de.ArgSet
	}
	if de.Table != "" {
		details["table"] = de.Table
	}
	if de.Code == driver.ErrCodeVersionMismatch {
		details["stored"] = de.Stored
		details["expected"] = de.Expected
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
