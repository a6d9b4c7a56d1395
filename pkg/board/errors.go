package board

import (
	"fmt"
)

// ErrorKind classifies dispatch failures. Authentication failures are
// never retried; everything else is.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindRateLimit      ErrorKind = "rate_limit"
	KindServer         ErrorKind = "server"
	KindTimeout        ErrorKind = "timeout"
	KindConnection     ErrorKind = "connection"
	KindGeneric        ErrorKind = "generic"
)

// DispatchError is a classified failure from the display transport.
type DispatchError struct {
	Kind       ErrorKind
	Status     int
	Message    string
	RetryAfter int // seconds from a 429 Retry-After header, 0 when absent
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("board dispatch failed (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("board dispatch failed (%s): %s", e.Kind, e.Message)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *DispatchError) Retryable() bool {
	return e.Kind != KindAuthentication
}
