// SPDX-License-Identifier: MIT

package pentestws

import (
	"errors"
	"fmt"

	"github.com/bjb28/go-pws/internal/resilience"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrAPIKeyMissing = errors.New("pentestws: API key missing (set PENTEST_WS_API_KEY, see https://pentest.ws/settings/api-key)")
	ErrNotFound      = errors.New("pentestws: resource not found")
	ErrBadRequest    = errors.New("pentestws: request rejected")
	ErrUnauthorized  = errors.New("pentestws: API key rejected")
	ErrServerError   = errors.New("pentestws: service internal error (5xx)")
	ErrBadResponse   = errors.New("pentestws: invalid response format or malformed data")
	ErrTimeout       = errors.New("pentestws: request timed out")
	ErrUnavailable   = errors.New("pentestws: service unreachable or transport failure")

	// ErrCircuitOpen is returned without network I/O while the breaker
	// holds traffic back after a run of upstream failures.
	ErrCircuitOpen = resilience.ErrCircuitOpen
)

// APIError wraps the sentinel errors with request context.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Msg       string // server-provided message, verbatim
	Err       error  // nested lower-level error (e.g. net.Error)
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Sentinel
}

// ValidationError reports a resource field that failed local validation
// before any request was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pentestws: %q %s", e.Field, e.Reason)
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServerError) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout)
}
