package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service layer wraps exactly one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

var (
	// ErrNotAvailable is returned when an item is closed for booking.
	ErrNotAvailable = &Error{Kind: ErrConflict, Msg: "item is not available for booking"}

	// ErrConcurrentModification is returned by versioned updates that lost a race.
	ErrConcurrentModification = &Error{Kind: ErrConflict, Msg: "concurrent modification"}
)

// Error is a client-facing failure with a human-readable message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidArgumentf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// Message returns the client-facing text of err. Errors that carry no
// domain kind are reported with a generic text so internals do not leak.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return "internal server error"
}
