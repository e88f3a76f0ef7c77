package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ErrorKind is the typed error taxonomy surfaced to callers across both
// transports. It is never an exception: every fallible operation in the
// cascade returns (result, error) and the request handler classifies
// the error into one of these kinds before building the response.
type ErrorKind string

const (
	ErrKindInvalidArgument    ErrorKind = "invalid_argument"
	ErrKindRateLimited        ErrorKind = "rate_limited"
	ErrKindNotConfigured      ErrorKind = "not_configured"
	ErrKindUpstreamTimeout    ErrorKind = "upstream_timeout"
	ErrKindUpstreamHTTPError  ErrorKind = "upstream_http_error"
	ErrKindUpstreamTLSError   ErrorKind = "upstream_tls_error"
	ErrKindParseError         ErrorKind = "parse_error"
	ErrKindNoContent          ErrorKind = "no_content"
	ErrKindInternal           ErrorKind = "internal"
)

// KindedError pairs an ErrorKind with a human-readable message and,
// for rate_limited, a retry-after hint. It is the error type the
// request handler (C14) returns to its transport adapters.
type KindedError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter int // seconds, only meaningful when Kind == ErrKindRateLimited
}

func (e *KindedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewKindedError builds a KindedError with the given kind and message.
func NewKindedError(kind ErrorKind, message string) *KindedError {
	return &KindedError{Kind: kind, Message: message}
}

// NewRateLimitedError builds the rate_limited KindedError with a
// retry-after hint, as produced by the rate limiter (C2) and surfaced
// unchanged by the request handler (C14).
func NewRateLimitedError(retryAfterSeconds int) *KindedError {
	return &KindedError{
		Kind:       ErrKindRateLimited,
		Message:    "rate limit exceeded",
		RetryAfter: retryAfterSeconds,
	}
}
