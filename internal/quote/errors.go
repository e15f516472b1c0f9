package quote

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a lookup failure.
type Kind string

const (
	KindInvalidSymbol Kind = "invalid_symbol"
	KindRateLimited   Kind = "rate_limited"
	KindUpstreamAuth  Kind = "upstream_auth"
	KindUpstream      Kind = "upstream_error"
)

// Error is the one failure shape this package surfaces. CanRetry tells
// callers whether the same request may succeed later; the service never
// retries on their behalf.
type Error struct {
	Kind     Kind
	Message  string
	CanRetry bool
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause returns a copy carrying err for internal tracking.
// The cause goes to logs, never to API callers.
func (e Error) WithCause(err error) *Error {
	e.cause = err
	return &e
}

// StatusCode maps the error kind to the HTTP status served to callers.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidSymbol:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func NewInvalidSymbol(message string) *Error {
	return &Error{Kind: KindInvalidSymbol, Message: message}
}

func NewRateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message, CanRetry: true}
}

func NewUpstreamAuth(message string) *Error {
	return &Error{Kind: KindUpstreamAuth, Message: message}
}

func NewUpstream(message string, canRetry bool) *Error {
	return &Error{Kind: KindUpstream, Message: message, CanRetry: canRetry}
}

// Normalize coerces err into *Error. Anything already typed passes
// through; everything else counts as a retryable upstream failure.
func Normalize(err error) *Error {
	var qerr *Error
	if errors.As(err, &qerr) {
		return qerr
	}
	return NewUpstream("upstream request failed", true).WithCause(err)
}
