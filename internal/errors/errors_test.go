package errors

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "simple message",
			err:      New(ErrAuth, "authentication failed"),
			expected: "authentication failed",
		},
		{
			name: "with cause",
			err: &AppError{
				Kind:    ErrConfig,
				Message: "config error",
				Cause:   errors.New("parse error"),
			},
			expected: "config error: parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrAPI, "wrapped error")

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Without cause, should return Kind
	errNoWrap := New(ErrAuth, "no cause")
	if !errors.Is(errors.Unwrap(errNoWrap), ErrAuth) {
		t.Errorf("Unwrap() should return Kind when no cause")
	}
}

func TestAppError_Is(t *testing.T) {
	err := AuthFailed("user", errors.New("401"))

	if !errors.Is(err, ErrAuth) {
		t.Error("errors.Is(err, ErrAuth) should be true")
	}
	if errors.Is(err, ErrConfig) {
		t.Error("errors.Is(err, ErrConfig) should be false")
	}
}

func TestAppError_Format(t *testing.T) {
	err := SourcesFileNotFound("sources.json", nil)
	out := err.Format()

	for _, want := range []string{"Error: ", "sources.json", "Details:", "path: sources.json", "Suggestion:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatAny(t *testing.T) {
	if got := FormatAny(nil); got != "" {
		t.Errorf("FormatAny(nil) = %q, want empty", got)
	}
	if got := FormatAny(errors.New("plain")); got != "Error: plain\n" {
		t.Errorf("FormatAny(plain) = %q", got)
	}
	wrapped := Wrap(MissingCredentials(), ErrAuth, "login")
	if !strings.Contains(FormatAny(wrapped), "Suggestion") {
		t.Error("FormatAny should use Format for AppError values")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrNotFound, "missing").WithDetails("id", "42").WithCause(errors.New("boom"))
	if err.Details["id"] != "42" {
		t.Errorf("Details[id] = %q, want 42", err.Details["id"])
	}
	if err.Cause == nil {
		t.Error("WithCause should set Cause")
	}
}

func TestNetworkUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	err := NetworkUnavailable("api.ceicdata.com", cause)

	if !errors.Is(err, ErrNetwork) {
		t.Error("NetworkUnavailable should return ErrNetwork")
	}
	if !errors.Is(err.Cause, cause) {
		t.Error("Should wrap the cause")
	}
	if err.Details["host"] != "api.ceicdata.com" {
		t.Error("Should include host in details")
	}

	if noHost := NetworkUnavailable("", nil); noHost.Details != nil {
		t.Error("Should not include details when host is empty")
	}
}

func TestRateLimited(t *testing.T) {
	err := RateLimited(30 * time.Second)
	if !errors.Is(err, ErrNetwork) {
		t.Error("RateLimited should return ErrNetwork")
	}
	if !strings.Contains(err.Suggestion, "30s") {
		t.Errorf("Suggestion should mention wait time, got %q", err.Suggestion)
	}
}

func TestAPIStatus(t *testing.T) {
	err := APIStatus("/search", 503, strings.Repeat("x", 300))
	if !errors.Is(err, ErrAPI) {
		t.Error("APIStatus should return ErrAPI")
	}
	if len(err.Details["body"]) > 210 {
		t.Errorf("body should be truncated, got %d bytes", len(err.Details["body"]))
	}
	if err.Suggestion == "" {
		t.Error("5xx errors should carry a suggestion")
	}
}

func TestAPIStatus_TruncatesOnRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"short body kept", "ümlaut", "ümlaut"},
		{"two-byte rune at cut", "x" + strings.Repeat("é", 150), "x" + strings.Repeat("é", 99) + "…"},
		{"three-byte rune at cut", strings.Repeat("€", 100), strings.Repeat("€", 66) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := APIStatus("/search", 400, tt.body).Details["body"]
			if !utf8.ValidString(got) {
				t.Fatalf("body %q is not valid UTF-8", got)
			}
			if got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIncompletePage(t *testing.T) {
	err := IncompletePage("S1", 40, 5)
	if !errors.Is(err, ErrAPI) {
		t.Error("IncompletePage should return ErrAPI")
	}
	if IsRetryable(err) {
		t.Error("an incomplete page should not be retried")
	}
	if !strings.Contains(err.Error(), "offset 40") {
		t.Errorf("Error() = %q, want the offset", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"network", NetworkUnavailable("", nil), true},
		{"rate limited", RateLimited(0), true},
		{"server error", APIStatus("/search", 502, ""), true},
		{"client error", APIStatus("/search", 400, ""), false},
		{"auth", AuthFailed("", nil), false},
		{"timeout", OperationTimeout("search", time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserError(t *testing.T) {
	if !IsUserError(MissingCredentials()) {
		t.Error("missing credentials is a user error")
	}
	if !IsUserError(ConfigValidationError("api.page_size", "must be positive", nil)) {
		t.Error("config validation is a user error")
	}
	if !IsUserError(SourcesFileInvalid("sources.json", nil)) {
		t.Error("bad catalog is a user error")
	}
	if IsUserError(NetworkUnavailable("", nil)) {
		t.Error("network failures are not user errors")
	}
}

func TestConfigValidationError(t *testing.T) {
	err := ConfigValidationError("logging.level", "unknown level", []string{"debug", "info"})
	if !strings.Contains(err.Suggestion, "debug, info") {
		t.Errorf("Suggestion should list options, got %q", err.Suggestion)
	}
	if err.Details["field"] != "logging.level" {
		t.Error("Details should include field")
	}
}
