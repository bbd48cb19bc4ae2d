// Package core provides shared building blocks for bgforge: the error
// taxonomy, process exit codes, environment parsing helpers, and the
// HTTP client factory used by the image generation providers.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// The error taxonomy. Every failure that crosses a component boundary is one
// of these types. Each carries a human-readable message and, where a user can
// act on it, an actionable remedy. Whether a failure is worth retrying is a
// property of its type: NetworkError and RateLimitError are transient, the
// rest are fatal.

// ConfigError represents a configuration problem (missing or invalid
// credential, unusable config file) with actionable instructions.
type ConfigError struct {
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// ValidationError represents invalid user input: an unknown service name,
// an empty prompt. Retrying cannot fix it; the input must change.
type ValidationError struct {
	Message string
	Action  string
}

func (e *ValidationError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// AuthError represents a rejected credential (HTTP 401/403). Never retried:
// the same key will keep failing.
type AuthError struct {
	Service string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected the configured API key: %s. Verify the key is correct and has not expired", e.Service, e.Message)
}

// NetworkError represents a connection failure or a server-side error (5xx).
// Transient: the retry policy may attempt the call again.
type NetworkError struct {
	Service    string
	Message    string
	StatusCode int   // 0 for transport-level failures
	Err        error // underlying transport error, if any
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Service, e.Message)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitError represents an HTTP 429 response. Transient: retried with
// backoff. When the provider supplied a Retry-After hint, RetryAfter carries
// it so the retry policy can honor it.
type RateLimitError struct {
	Service    string
	Message    string
	RetryAfter time.Duration // zero when the provider gave no hint
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited the request (retry after %s): %s", e.Service, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("%s rate limited the request: %s", e.Service, e.Message)
}

// TimeoutError is the terminal failure produced when the retry policy
// exhausts its attempt budget. It carries the last classified cause.
type TimeoutError struct {
	Service  string
	Attempts int
	Cause    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s generation failed after %d attempts: %v", e.Service, e.Attempts, e.Cause)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// FilesystemError represents a failed filesystem operation (missing target
// directory, permission problem) with a remedy suggestion.
type FilesystemError struct {
	Op     string // operation that failed, e.g. "write", "rename"
	Path   string
	Action string
	Err    error
}

func (e *FilesystemError) Error() string {
	msg := fmt.Sprintf("filesystem %s failed for %s: %v", e.Op, e.Path, e.Err)
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", msg, e.Action)
	}
	return msg
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// ErrMissingAPIKey returns the ConfigError raised when a service requires a
// key and none is configured. Raised before any network call is made.
func ErrMissingAPIKey(service string) *ConfigError {
	return &ConfigError{
		Message: fmt.Sprintf("no API key configured for %s", service),
		Action:  fmt.Sprintf("Run with -set-key %s=YOUR_KEY to store one", service),
	}
}

// ErrUnknownService returns the ValidationError for a service name outside
// the supported set.
func ErrUnknownService(name string, known []string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("unknown service %q", name),
		Action:  fmt.Sprintf("Choose one of: %v", known),
	}
}

// ErrEmptyPrompt returns the ValidationError for an empty or whitespace-only
// prompt.
func ErrEmptyPrompt() *ValidationError {
	return &ValidationError{
		Message: "prompt is empty",
		Action:  "Provide a non-empty description of the image to generate",
	}
}

// ErrHostNotInstalled returns the ConfigError raised when the host
// application cannot be found on this machine.
func ErrHostNotInstalled(appName, rootDir string) *ConfigError {
	return &ConfigError{
		Message: fmt.Sprintf("%s does not appear to be installed (no directory at %s)", appName, rootDir),
		Action:  "Install the application or set HOST_APP_ROOT to its data directory",
	}
}

// ErrHostNotLoggedIn returns the ConfigError raised when the host
// application has no active session.
func ErrHostNotLoggedIn(appName string) *ConfigError {
	return &ConfigError{
		Message: fmt.Sprintf("no active %s session found", appName),
		Action:  "Log in to the application and try again",
	}
}

// ErrTargetDirMissing returns the FilesystemError raised when the
// backgrounds directory does not exist.
func ErrTargetDirMissing(path string, err error) *FilesystemError {
	return &FilesystemError{
		Op:     "stat",
		Path:   path,
		Action: "Create the directory or point HOST_APP_BACKGROUNDS_DIR at an existing one",
		Err:    err,
	}
}

// ErrRetryExhausted builds the terminal TimeoutError after the retry policy
// has spent its full attempt budget.
func ErrRetryExhausted(service string, attempts int, cause error) *TimeoutError {
	return &TimeoutError{Service: service, Attempts: attempts, Cause: cause}
}

// IsTransient reports whether an error is worth retrying. Only network
// failures and rate limits qualify; everything else in the taxonomy is fatal.
// A TimeoutError is terminal even when its last cause was transient.
func IsTransient(err error) bool {
	var terminal *TimeoutError
	if errors.As(err, &terminal) {
		return false
	}
	var netErr *NetworkError
	var rateErr *RateLimitError
	return errors.As(err, &netErr) || errors.As(err, &rateErr)
}

// RetryAfterHint extracts a provider-supplied retry-after hint from an error,
// if one is present.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		return rateErr.RetryAfter, true
	}
	return 0, false
}

// Remedy extracts the actionable suggestion from an error, if its type
// carries one. Used at the CLI boundary to render "message plus suggested
// fix".
func Remedy(err error) string {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Action
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Action
	}
	var fsErr *FilesystemError
	if errors.As(err, &fsErr) {
		return fsErr.Action
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return "Verify the API key is correct and has not expired"
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return "The service may be overloaded; try again later or pick another service"
	}
	return ""
}

// ClassifyHTTPStatus maps a provider HTTP status code onto the error
// taxonomy. retryAfter is the parsed Retry-After hint (zero if absent) and is
// only meaningful for 429 responses.
//
// Mapping:
//   - 401/403 -> AuthError (fatal)
//   - 429 -> RateLimitError (transient, carries the hint)
//   - 5xx -> NetworkError (transient)
//   - other 4xx -> ValidationError (fatal; the request itself was rejected)
func ClassifyHTTPStatus(service string, status int, msg string, retryAfter time.Duration) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Service: service, Message: msg}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Service: service, Message: msg, RetryAfter: retryAfter}
	case status >= 500:
		return &NetworkError{Service: service, Message: msg, StatusCode: status}
	default:
		return &ValidationError{
			Message: fmt.Sprintf("%s rejected the request (status %d): %s", service, status, msg),
			Action:  "Adjust the prompt or service parameters and try again",
		}
	}
}

// ClassifyTransport wraps a transport-level failure (DNS, connect, TLS, reset)
// as a transient NetworkError. Context cancellation and deadline expiry pass
// through unchanged so the retry policy can tell them apart from provider
// failures.
func ClassifyTransport(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &NetworkError{Service: service, Message: err.Error(), Err: err}
}
