package genai

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode identifies one member of the error taxonomy.
type ErrorCode string

// Resolution-time codes. These are terminal: the resolver and the
// discovery engine never retry beyond the single config-to-listing hop.
const (
	ErrCredentialFormat     ErrorCode = "CREDENTIAL_FORMAT"
	ErrMissingCredentials   ErrorCode = "MISSING_CREDENTIALS"
	ErrBindingNotFound      ErrorCode = "BINDING_NOT_FOUND"
	ErrCredentialValidation ErrorCode = "CREDENTIAL_VALIDATION"
	ErrModelDiscovery       ErrorCode = "MODEL_DISCOVERY"
	ErrNoEligibleModel      ErrorCode = "NO_ELIGIBLE_MODEL"
)

// Request-time codes produced by the classifier. The Retryable flag on the
// Error tells the execution layer whether its backoff policy applies.
const (
	ErrAuthentication      ErrorCode = "AUTHENTICATION"
	ErrAuthorization       ErrorCode = "AUTHORIZATION"
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrContextTooLong      ErrorCode = "CONTEXT_TOO_LONG"
	ErrRequestRejected     ErrorCode = "REQUEST_REJECTED"
	ErrServer              ErrorCode = "SERVER"
	ErrTransport           ErrorCode = "TRANSPORT"
)

// Error is the structured error carried across the whole subsystem.
// Message and field context must be actionable without ever including the
// bearer token value.
type Error struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Retryable  bool

	// RetryAfter is the upstream pacing hint from a 429 response.
	// Zero means no hint; the execution layer falls back to its own backoff.
	RetryAfter time.Duration

	// Field names the offending configuration or binding field for
	// validation and format errors.
	Field string

	// Endpoint is the URL involved, when one exists.
	Endpoint string

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field: %s)", e.Field)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithField names the offending field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithEndpoint attaches the URL involved.
func (e *Error) WithEndpoint(endpoint string) *Error {
	e.Endpoint = endpoint
	return e
}

// IsRetryable reports whether the execution layer may retry the operation.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// CodeOf extracts the taxonomy code, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// RetryAfterHint extracts the upstream pacing hint, zero when absent.
func RetryAfterHint(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}
