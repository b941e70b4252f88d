package comtrade

import (
	"errors"
	"fmt"
)

// Sentinel kinds for upstream failures.
var (
	ErrConflict  = errors.New("comtrade: conflicting concurrent query")
	ErrStatus    = errors.New("comtrade: unexpected status")
	ErrTransport = errors.New("comtrade: transport failure")
	ErrTimeout   = errors.New("comtrade: request timed out")
	ErrCanceled  = errors.New("comtrade: request canceled")
	ErrParse     = errors.New("comtrade: malformed response")
)

// StatusError is returned for a non-2xx answer other than 409.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("comtrade: status %d", e.Code)
	}
	return fmt.Sprintf("comtrade: status %d: %s", e.Code, e.Body)
}

// Unwrap lets errors.Is match ErrStatus.
func (e *StatusError) Unwrap() error { return ErrStatus }
