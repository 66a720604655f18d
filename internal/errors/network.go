// Package errors provides error types for sourcecheck.
// This file contains network, API and timeout-related errors.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"
)

// NetworkUnavailable creates an error for network connectivity issues.
func NetworkUnavailable(host string, cause error) *AppError {
	err := &AppError{
		Kind:    ErrNetwork,
		Message: "network unavailable",
		Cause:   cause,
		Suggestion: `Check your network connection:

  1. Verify internet connectivity
  2. Check if VPN or firewall is blocking access
  3. Try: curl -I https://api.ceicdata.com

If you're behind a proxy:
  export HTTP_PROXY=http://proxy:port
  export HTTPS_PROXY=http://proxy:port`,
	}
	if host != "" {
		err.Details = map[string]string{"host": host}
	}
	return err
}

// RateLimited creates an error for API rate limiting.
func RateLimited(retryAfter time.Duration) *AppError {
	suggestion := "Wait before retrying."
	if retryAfter > 0 {
		suggestion = fmt.Sprintf("Wait %v before retrying.", retryAfter.Round(time.Second))
	}
	return &AppError{
		Kind:       ErrNetwork,
		Message:    "rate limit exceeded",
		Suggestion: suggestion + "\n\nRequests are retried automatically with exponential backoff.",
		Details: map[string]string{
			"status": fmt.Sprintf("%d", http.StatusTooManyRequests),
		},
	}
}

// APIStatus creates an error for an unexpected HTTP status from the CEIC API.
func APIStatus(endpoint string, status int, body string) *AppError {
	err := &AppError{
		Kind:    ErrAPI,
		Message: fmt.Sprintf("%s returned %d %s", endpoint, status, http.StatusText(status)),
		Details: map[string]string{
			"endpoint": endpoint,
			"status":   fmt.Sprintf("%d", status),
		},
	}
	if body != "" {
		err.Details["body"] = truncate(body, 200)
	}
	if status >= 500 {
		err.Suggestion = "The CEIC service reported an internal error. Try again in a few minutes."
	}
	return err
}

// IncompletePage creates an error for a search page that ended before the
// series count the source reported.
func IncompletePage(sourceID string, offset, missing int) *AppError {
	return &AppError{
		Kind:    ErrAPI,
		Message: fmt.Sprintf("source %s returned no series at offset %d, %d still expected", sourceID, offset, missing),
		Details: map[string]string{
			"source": sourceID,
			"offset": strconv.Itoa(offset),
		},
		Suggestion: "The source may have changed while loading. Load it again.",
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

// OperationTimeout creates a generic timeout error.
func OperationTimeout(operation string, elapsed time.Duration) *AppError {
	return &AppError{
		Kind:    ErrTimeout,
		Message: fmt.Sprintf("%s timed out after %v", operation, elapsed.Round(time.Second)),
		Details: map[string]string{
			"operation": operation,
			"elapsed":   elapsed.Round(time.Second).String(),
		},
		Suggestion: `The request took too long. Raise the limit in .sourcecheck/config.yaml:
  api:
    timeout: 60s`,
	}
}

// ContextCancelled creates an error for cancelled operations.
func ContextCancelled(operation string) *AppError {
	return &AppError{
		Kind:    ErrTimeout,
		Message: fmt.Sprintf("%s was cancelled", operation),
		Details: map[string]string{
			"operation": operation,
		},
	}
}

// IsRetryable returns true if the error is likely transient and retrying may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ae *AppError
	if !errors.As(err, &ae) {
		return false
	}

	switch {
	case errors.Is(ae.Kind, ErrNetwork):
		return true
	case errors.Is(ae.Kind, ErrAPI):
		status, err := strconv.Atoi(ae.Details["status"])
		return err == nil && status >= http.StatusInternalServerError
	default:
		return false
	}
}

// IsUserError returns true if the error is due to user input or configuration.
func IsUserError(err error) bool {
	var ae *AppError
	if !errors.As(err, &ae) {
		return false
	}
	for _, kind := range []error{ErrConfig, ErrAuth, ErrSource, ErrManifest} {
		if errors.Is(ae.Kind, kind) {
			return true
		}
	}
	return false
}
