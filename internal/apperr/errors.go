// Package apperr carries the solver's error taxonomy: TranscriptError,
// ContractError, EncoderContradiction and SolverIOError, each a Code on a
// shared error type so callers can branch with errors.Is / Is below.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for programmatic handling.
type Code string

const (
	// Transcript is raised synchronously from an event-adder when an
	// event violates a structural invariant. Fatal; the partial state
	// must be discarded.
	Transcript Code = "transcript_error"
	// Contract means the transcript is structurally valid but not yet
	// solvable (not fully claimed).
	Contract Code = "contract_error"
	// Contradiction marks a locally impossible configuration the
	// encoder detected; it does not abort encoding, it surfaces as "no
	// worlds" via an explicit false clause.
	Contradiction Code = "encoder_contradiction"
	// SolverIO is a failure to invoke the enumeration engine.
	SolverIO Code = "solver_io_error"
)

// Error is this module's uniform error type.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that carries err as its cause.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
