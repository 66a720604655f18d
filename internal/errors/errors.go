// Package errors provides error types with actionable suggestions for
// sourcecheck. Errors carry a kind, contextual details and a hint so the CLI
// and the TUI can tell the user what to do next.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common sentinel errors for use with errors.Is().
var (
	// ErrAuth indicates an authentication failure.
	ErrAuth = errors.New("authentication error")
	// ErrConfig indicates a configuration error.
	ErrConfig = errors.New("configuration error")
	// ErrNetwork indicates a network-related error.
	ErrNetwork = errors.New("network error")
	// ErrTimeout indicates a timeout or cancellation.
	ErrTimeout = errors.New("timeout error")
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")
	// ErrAPI indicates the CEIC API returned an unexpected response.
	ErrAPI = errors.New("api error")
	// ErrSource indicates a problem with the sources catalog.
	ErrSource = errors.New("source error")
	// ErrManifest indicates a malformed dependency manifest.
	ErrManifest = errors.New("manifest error")
	// ErrSession indicates the explorer session is not in a usable state.
	ErrSession = errors.New("session error")
)

// AppError is the base error type for sourcecheck errors.
// It wraps an underlying error and provides additional context.
type AppError struct {
	// Kind is the category of error (e.g., ErrAuth, ErrConfig).
	Kind error
	// Message is the human-readable error message.
	Message string
	// Suggestion provides actionable advice for resolving the error.
	Suggestion string
	// Cause is the underlying error that caused this error.
	Cause error
	// Details provides additional context (e.g., file path, status code).
	Details map[string]string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Kind
}

// Is reports whether the error's kind matches target.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// Format returns a multi-line message with details and the suggestion.
func (e *AppError) Format() string {
	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(e.Error())
	sb.WriteString("\n")

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, e.Details[k]))
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(e.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}

// WithDetails adds a detail entry to the error.
func (e *AppError) WithDetails(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause of the error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates a new AppError with the given kind and message.
func New(kind error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// WithSuggestion creates a new error with a suggestion.
func WithSuggestion(kind error, message, suggestion string) *AppError {
	return &AppError{
		Kind:       kind,
		Message:    message,
		Suggestion: suggestion,
	}
}

// FormatAny renders err with Format when it is an AppError and with the
// plain message otherwise.
func FormatAny(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Format()
	}
	return "Error: " + err.Error() + "\n"
}

// As is a re-export of errors.As so callers importing this package under the
// name "errors" keep access to it.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a re-export of errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
