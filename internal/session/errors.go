package session

import "errors"

var (
	// ErrIllegalTransition is returned when an operation is not valid for the
	// manager's current phase. State is left unchanged so the caller can
	// resynchronize.
	ErrIllegalTransition = errors.New("illegal state transition")

	// ErrBusy is returned while a start or end network call is in flight.
	ErrBusy = errors.New("session operation in flight")

	// ErrInvalidArgument is returned for a non-positive target duration or a
	// rating outside 1..5.
	ErrInvalidArgument = errors.New("invalid argument")
)
