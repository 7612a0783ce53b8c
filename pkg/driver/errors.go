package driver

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidHandle is returned when an operation references a
	// handle the driver does not know about.
	ErrInvalidHandle = errors.New("driver: invalid device handle")
)

// StatusError reports a nonzero status code returned by a driver
// entry point. The numeric code is preserved verbatim so callers can
// decide recovery; nothing in this SDK retries or remaps codes.
type StatusError struct {
	// Op names the driver call that failed ("start", "stop", "set_mode").
	Op string

	// Code is the driver's status code, unchanged.
	Code Status
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("driver: %s failed with status %d", e.Op, e.Code)
}

// Err converts a status code into an error: nil for StatusOK,
// otherwise a *StatusError carrying the code.
func (s Status) Err(op string) error {
	if s == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Code: s}
}

// AsStatusError unwraps err into a *StatusError if it is one.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
