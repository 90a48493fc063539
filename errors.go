package gochan

import (
	"errors"
	"fmt"
)

// Code categorizes a gochan error by kind, per the error taxonomy every
// Channel, Pool and WaitGroup operation draws from.
type Code string

const (
	// CodeClosed is returned by Send on a closed channel.
	CodeClosed Code = "closed"
	// CodeClosedAndEmpty is returned by Receive on a closed, drained channel.
	CodeClosedAndEmpty Code = "closed-and-empty"
	// CodePayloadTooLarge is returned when a serialised value exceeds
	// slot_size - 4 bytes.
	CodePayloadTooLarge Code = "payload-too-large"
	// CodeSerializationFailed is returned when a value cannot be encoded.
	CodeSerializationFailed Code = "serialization-failed"
	// CodeDeserializationFailed is returned when a slot's bytes cannot be
	// decoded back into a value.
	CodeDeserializationFailed Code = "deserialization-failed"
	// CodeWorkerFailure is returned when a worker exits abnormally while a
	// task was assigned to it.
	CodeWorkerFailure Code = "worker-failure"
	// CodeShutdown is returned for a pending task cancelled by pool
	// teardown.
	CodeShutdown Code = "shutdown"
)

// Error is the structured error type returned by every Channel, Pool and
// WaitGroup operation. Its Code distinguishes the kind of failure; its
// Inner error (if any) is reachable through Unwrap.
type Error struct {
	Op    string // operation that failed, e.g. "Send", "Receive", "Submit"
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("gochan: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("gochan: %s", msg)
}

// Unwrap supports errors.Is/errors.As against Inner.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target is a *Error with the same Code, so callers can
// write errors.Is(err, gochan.ErrClosed) against the package sentinels.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// Sentinel errors, one per Code, for errors.Is comparisons against a known
// kind without constructing an *Error by hand.
var (
	ErrClosed                = &Error{Code: CodeClosed, Msg: string(CodeClosed)}
	ErrClosedAndEmpty        = &Error{Code: CodeClosedAndEmpty, Msg: string(CodeClosedAndEmpty)}
	ErrPayloadTooLarge       = &Error{Code: CodePayloadTooLarge, Msg: string(CodePayloadTooLarge)}
	ErrSerializationFailed   = &Error{Code: CodeSerializationFailed, Msg: string(CodeSerializationFailed)}
	ErrDeserializationFailed = &Error{Code: CodeDeserializationFailed, Msg: string(CodeDeserializationFailed)}
	ErrWorkerFailure         = &Error{Code: CodeWorkerFailure, Msg: string(CodeWorkerFailure)}
	ErrShutdown              = &Error{Code: CodeShutdown, Msg: string(CodeShutdown)}
)

// newError constructs an *Error tagged with op and code, wrapping inner if
// given.
func newError(op string, code Code, msg string, inner error) *Error {
	if msg == "" {
		msg = string(code)
	}
	return &Error{Op: op, Code: code, Msg: msg, Inner: inner}
}

// IsCode reports whether err (or any error it wraps) carries the given
// Code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
