// Package provider wraps the messaging provider's HTTP API.
package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure from the provider API. StatusCode is zero for
// transport-level failures that never produced a response.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying on a later tick.
// Network errors, rate limiting and server errors are transient; other 4xx
// responses indicate the request itself is bad and will not heal.
func (e *Error) Transient() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode >= 500
}

// IsTransient classifies any error for the scheduler's retry decision.
// Unknown error types are treated as transient so a lead is never killed by
// an error we cannot attribute to its own data.
func IsTransient(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return true
}
