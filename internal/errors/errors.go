// Package errors provides structured CLI error types for pilot.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for CLI errors.
const (
	ExitSuccess   = 0  // Successful execution
	ExitGeneral   = 1  // General error
	ExitNetwork   = 3  // Network/API error
	ExitConfig    = 4  // Configuration error
	ExitExecution = 6  // Remote job failed
	ExitUsage     = 64 // Command line usage error (BSD convention)
)

// releasesURL is where pilot builds are published.
const releasesURL = "https://github.com/leadpilot/pilot/releases"

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// BackendUnreachable returns an error when the backend cannot be reached.
func BackendUnreachable(url string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot reach backend at %s", url),
		Hint:    "Start the backend server or point pilot at it with PILOT_API_URL",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// BackendRequestFailed returns an error for a failed backend call.
func BackendRequestFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check the backend logs, then retry; run 'pilot doctor' to verify connectivity",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// StartRejected returns an error when the backend refuses to start a job.
func StartRejected(command, reason string) *CLIError {
	hint := fmt.Sprintf("Run 'pilot %s status' to see whether a job is already running", command)
	if reason == "" {
		reason = "no reason given"
	}

	return &CLIError{
		Message: fmt.Sprintf("Backend rejected the %s job: %s", command, reason),
		Hint:    hint,
		Code:    ExitGeneral,
	}
}

// JobAlreadyRunning returns an error when a start is attempted while a job is in flight.
func JobAlreadyRunning(command string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("A %s job is already running", command),
		Hint:    fmt.Sprintf("Follow it with 'pilot %s status --follow' or stop it with 'pilot %s stop'", command, command),
		Code:    ExitGeneral,
	}
}

// JobNotRunning returns an error when a stop is attempted with no job running.
func JobNotRunning(command string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("No %s job is running", command),
		Hint:    fmt.Sprintf("Start one with 'pilot %s start'", command),
		Code:    ExitGeneral,
	}
}

// JobFailed returns an error when a supervised job ends in failure.
func JobFailed(command string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("The %s job failed", command),
		Hint:    "Review the log output above for the failing step",
		Code:    ExitExecution,
	}
}

// SheetsNotConnected returns an error when Google Sheets has not been linked.
func SheetsNotConnected() *CLIError {
	return &CLIError{
		Message: "Google Sheets is not connected",
		Hint:    "Run 'pilot sheets connect' and complete the sign-in in your browser",
		Code:    ExitConfig,
	}
}

// InvalidInput returns a usage error for a missing or malformed flag value.
func InvalidInput(message, hint string) *CLIError {
	return &CLIError{
		Message: message,
		Hint:    hint,
		Code:    ExitUsage,
	}
}

// UnknownConfigKey returns an error for an unrecognised configuration key.
func UnknownConfigKey(key string, known []string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Unknown config key: %s", key),
		Hint:    fmt.Sprintf("Known keys: %s", strings.Join(known, ", ")),
		Code:    ExitUsage,
	}
}

// CannotPrompt returns an error when interactive prompts are unavailable.
func CannotPrompt(flag string) *CLIError {
	return &CLIError{
		Message: "Cannot prompt in non-interactive mode",
		Hint:    fmt.Sprintf("Pass %s to confirm", flag),
		Code:    ExitUsage,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your pilot config directory or run 'pilot doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// UpdateFailed returns an error for release checks or installs that failed.
func UpdateFailed(operation string, cause error) *CLIError {
	hint := "Check your network connection or download a release from " + releasesURL

	if cause != nil && containsAny(cause.Error(), "403", "rate limit") {
		hint = "Set GITHUB_TOKEN to avoid GitHub API rate limits"
	}

	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    hint,
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// DashboardRequiresTTY returns an error when the dashboard is started without a terminal.
func DashboardRequiresTTY() *CLIError {
	return &CLIError{
		Message: "The dashboard needs an interactive terminal",
		Hint:    "Use 'pilot scrape status --follow' or 'pilot whatsapp status --follow' in scripts",
		Code:    ExitUsage,
	}
}

// IsConnectionError reports whether err looks like a transport failure rather than an HTTP response.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	return containsAny(err.Error(),
		"connection refused",
		"no such host",
		"dial tcp",
		"i/o timeout",
		"connection reset",
		"context deadline exceeded",
	)
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}

	return false
}
