package tickets

import (
	"errors"
	"fmt"
)

// Kind classifies accounting failures.
type Kind int

const (
	InvalidAmount Kind = iota + 1
	InsufficientTickets
	UnknownProcess
	InvalidPolicy
	ArgumentDecodeFailure
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case InvalidAmount:
		return "invalid_amount"
	case InsufficientTickets:
		return "insufficient_tickets"
	case UnknownProcess:
		return "unknown_process"
	case InvalidPolicy:
		return "invalid_policy"
	case ArgumentDecodeFailure:
		return "argument_decode_failure"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidAmount         = &Error{Kind: InvalidAmount}
	ErrInsufficientTickets   = &Error{Kind: InsufficientTickets}
	ErrUnknownProcess        = &Error{Kind: UnknownProcess}
	ErrInvalidPolicy         = &Error{Kind: InvalidPolicy}
	ErrArgumentDecodeFailure = &Error{Kind: ArgumentDecodeFailure}

	// ErrUnknownReceiver matches ErrUnknownProcess under errors.Is and marks
	// the transfer receiver, not the caller, as the missing process.
	ErrUnknownReceiver = &Error{Kind: UnknownProcess, Receiver: true}
)

// Error is returned by every accounting operation. Two errors match under
// errors.Is when their kinds match, so callers compare against the Err*
// values above regardless of Op or PID.
type Error struct {
	Kind Kind
	Op   string
	PID  int
	// Receiver is set when an UnknownProcess error names the other side of
	// a transfer.
	Receiver bool
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s pid %d: %s", e.Op, e.PID, e.Kind)
}

// Is reports kind equality
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf extracts the kind from err, or 0 when err is not an accounting error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// UnknownReceiver reports whether err is a transfer whose receiver was not live.
func UnknownReceiver(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == UnknownProcess && e.Receiver
}

func newError(kind Kind, op string, pid int) *Error {
	return &Error{Kind: kind, Op: op, PID: pid}
}
