// Package errors provides error types for sourcecheck.
// This file contains authentication and session errors.
package errors

// MissingCredentials creates an error when the access ID or secret key is empty.
func MissingCredentials() *AppError {
	return &AppError{
		Kind:    ErrAuth,
		Message: "please enter both Access ID and Secret Key",
		Suggestion: `Provide credentials in one of these ways:
  • Type them into the login screen
  • Pass --username and --password
  • Export SOURCECHECK_API_USERNAME and SOURCECHECK_API_PASSWORD`,
	}
}

// AuthFailed creates an error for rejected credentials.
func AuthFailed(username string, cause error) *AppError {
	err := &AppError{
		Kind:       ErrAuth,
		Message:    "authentication failed",
		Cause:      cause,
		Suggestion: "Please check your credentials and network connection.",
	}
	if username != "" {
		err.Details = map[string]string{"username": username}
	}
	return err
}

// ClientNotInitialized creates an error when an API call is attempted without a login.
func ClientNotInitialized() *AppError {
	return &AppError{
		Kind:       ErrSession,
		Message:    "client not initialized",
		Suggestion: "Please log in again.",
	}
}
