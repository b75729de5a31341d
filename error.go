package xbdm

import (
	"fmt"
	"io"
)

// ErrorKind classifies the failure carried by an Error.
type ErrorKind int

const (
	// KindIO wraps an underlying transport I/O failure. Fatal.
	KindIO ErrorKind = iota
	// KindBadResponse marks a protocol violation in a server response. Fatal.
	KindBadResponse
	// KindCommandFailed marks a server-reported command rejection. Not fatal.
	KindCommandFailed
)

// Error is the tagged-union failure type returned by the session operations
// (Connect, Execute, Handle I/O, Finish). Command is the command string that
// provoked the failure, or the empty string for connect failures. Discovery
// and resolution return plain errors, as do Execute's rejections of a second
// in-flight command and of a terminal session.
type Error struct {
	Kind    ErrorKind
	Command string

	// Cause is set for KindIO.
	Cause error
	// Description is set for KindBadResponse.
	Description string
	// Code and Message are set for KindCommandFailed.
	Code    StatusCode
	Message string
}

// ioError constructs a KindIO Error wrapping cause.
func ioError(command string, cause error) *Error {
	return &Error{Kind: KindIO, Command: command, Cause: cause}
}

// syntheticIOError fabricates an Error of the given kind, tagging it with
// io.ErrUnexpectedEOF as its Cause so errors.Is(err, io.ErrUnexpectedEOF)
// still succeeds regardless of the surface Kind. Used when the server closes
// the connection mid-line: the visible failure is a protocol violation
// (BadResponse), but its root cause is the transport ending early.
func syntheticIOError(kind ErrorKind, command, message string) *Error {
	return &Error{Kind: kind, Command: command, Description: message, Cause: io.ErrUnexpectedEOF}
}

// badResponseError constructs a KindBadResponse Error.
func badResponseError(command, description string) *Error {
	return &Error{Kind: KindBadResponse, Command: command, Description: description}
}

// commandFailedError constructs a KindCommandFailed Error.
func commandFailedError(command string, code StatusCode, message string) *Error {
	return &Error{Kind: KindCommandFailed, Command: command, Code: code, Message: message}
}

// IsFatal reports whether the session that produced this error must be
// discarded. KindIO and KindBadResponse are fatal; KindCommandFailed is not.
func (e *Error) IsFatal() bool {
	return e.Kind == KindIO || e.Kind == KindBadResponse
}

// Error implements the error interface.
func (e *Error) Error() string {
	body := e.body()
	if e.Command == "" {
		return body
	}
	return fmt.Sprintf("command failed: '%s' (%s)", e.Command, body)
}

func (e *Error) body() string {
	switch e.Kind {
	case KindIO:
		return fmt.Sprintf("I/O error: %v", e.Cause)
	case KindBadResponse:
		return fmt.Sprintf("bad response: %s", e.Description)
	case KindCommandFailed:
		return fmt.Sprintf("%s- %s", e.Code, e.Message)
	default:
		return "unknown error"
	}
}

// Unwrap exposes the underlying I/O cause for errors.Is/errors.As, matching
// how the rest of the module threads %w through fmt.Errorf. Most
// KindBadResponse errors carry no Cause and unwrap to nil; syntheticIOError
// is the exception, tagging a BadResponse with the UnexpectedEOF that
// produced it.
func (e *Error) Unwrap() error {
	return e.Cause
}
