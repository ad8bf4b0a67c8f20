// Package apierr classifies failures of the remote services the application
// talks to, so callers can branch on the kind of failure with errors.As.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is the closed set of remote failure categories.
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindAuth              Kind = "auth"
	KindNotFound          Kind = "not_found"
	KindRateLimited       Kind = "rate_limited"
	KindMalformedResponse Kind = "malformed_response"
	KindUnavailable       Kind = "unavailable"
)

// Error is a failed call to a remote service.
type Error struct {
	// Service names the remote party, e.g. "groundx" or "llm".
	Service string
	// Op names the failed operation, e.g. "search".
	Op   string
	Kind Kind
	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Service, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimited, KindUnavailable:
		return true
	default:
		return false
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(service, op string, status int, body string) *Error {
	kind := KindUnavailable
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &Error{Service: service, Op: op, Kind: kind, StatusCode: status, Message: truncate(body, 200)}
}

// FromTransport classifies an error returned by http.Client.Do.
// Context cancellation is returned unchanged so that callers see ctx.Err().
func FromTransport(service, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	kind := KindUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Service: service, Op: op, Kind: kind, Err: err}
}

// Malformed reports a response body that could not be understood.
func Malformed(service, op string, err error) *Error {
	return &Error{Service: service, Op: op, Kind: KindMalformedResponse, Err: err}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
