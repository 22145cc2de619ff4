package common

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when an operation is requested with an
	// unrecognized mode or sub-mode name, or a sub-mode that does not belong
	// to the target mode's vocabulary.  Rejected before any network I/O.
	ErrInvalidArgument = errors.New(`invalid argument`)
	// ErrNoAddress is returned when a command cannot be dispatched because no
	// discovery has ever succeeded and no fallback address was configured
	ErrNoAddress = errors.New(`device address unknown`)
	// ErrMalformedReply is reported when a discovery reply carries the device
	// signature but its structured portion cannot be parsed.  The reply is
	// discarded, command callers never see this error.
	ErrMalformedReply = errors.New(`malformed discovery reply`)
	// ErrClosed is returned on operations against a closed client or
	// subscription
	ErrClosed = errors.New(`closed`)
	// ErrTimeout is returned when a send does not complete within the
	// configured timeout
	ErrTimeout = errors.New(`timed out`)
)

// DispatchError is returned when a step of a command sequence fails to send.
// Steps dispatched before the failure are not rolled back, the appliance has
// already processed them.  Completed reports how many steps were sent
// successfully.
type DispatchError struct {
	// Completed is the number of steps sent before the failure
	Completed int
	// Cause is the underlying transport error
	Cause error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed after %d completed step(s): %v", e.Completed, e.Cause)
}

// Unwrap exposes the underlying transport error to errors.Is/As
func (e *DispatchError) Unwrap() error {
	return e.Cause
}
