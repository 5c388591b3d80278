package client

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionInFlight is returned when Submit is called while the
	// client is not Idle: a prior submission is still pending or polling,
	// or its terminal result has not been acknowledged via Reset. The call
	// is a no-op — no identity is generated and nothing is sent.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrRetriesExhausted is returned after the retry budget is spent on
	// transient failures. It wraps the cause class so callers can tell a
	// server-side 503 streak from a transport failure streak.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrServerUnavailable classifies a 503 response.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrNetwork classifies a transport-level failure.
	ErrNetwork = errors.New("network error")

	// ErrStatusUnverified is returned when the poll budget is exhausted and
	// the status queries themselves were failing, so the submission outcome
	// could not be verified either way.
	ErrStatusUnverified = errors.New("unable to verify submission status")

	// ErrSubmissionCanceled is returned when the submission context is
	// canceled, including via Reset.
	ErrSubmissionCanceled = errors.New("submission canceled")
)

// ValidationError reports client-local input validation failure. No request
// was sent and no idempotency key was generated.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission input: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ServerError reports a non-retryable response status, surfacing the
// server-provided message when present.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected submission (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server rejected submission (%d)", e.StatusCode)
}
