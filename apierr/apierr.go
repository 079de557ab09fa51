// Package apierr defines the error taxonomy shared by every remote-facing
// component. Callers branch with errors.Is / errors.As; user-facing code
// renders any of these as a single dismissable message.
package apierr

import (
	"errors"
	"fmt"
)

// ErrSessionExpired signals a 401 from the backend: the stored token is no
// longer accepted and the user must log in again.
var ErrSessionExpired = errors.New("session expired, log in again")

// NetworkError wraps a transport-level failure (host unreachable, connection
// refused, DNS). The request may never have reached the server.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network failure: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is a request that exceeded the client deadline. Surfaced to
// the user identically to NetworkError but kept distinct for diagnostics.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return "request timed out: " + e.Err.Error() }
func (e *TimeoutError) Unwrap() error { return e.Err }

// ServerError is a non-2xx HTTP response. Message carries the server-provided
// error text verbatim when one was present.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

// ValidationError is a client-side precondition failure detected before any
// request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// ConflictError reports that a resource was concurrently modified by another
// actor: the write carried a stale version and was rejected.
type ConflictError struct {
	Resource string
	ID       uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified by another device, refresh and retry", e.Resource, e.ID)
}

// InvalidTransitionError is a status change not permitted by the state
// machine governing the resource.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}
