// Package workflow holds the request → quote → chat → payment state machine shared by the
// server and the client SDK: enums, transition tables, validation and totals.
package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation_error")
	ErrNotFound          = errors.New("not_found")
	ErrAuthorization     = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrConflict          = errors.New("conflict")
)

// Error pairs an error kind with the short message shown to the user.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func Forbiddenf(format string, args ...interface{}) error {
	return newError(ErrAuthorization, format, args...)
}

func InvalidTransitionf(format string, args ...interface{}) error {
	return newError(ErrInvalidTransition, format, args...)
}

func Conflictf(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

// Wire codes carried in the response envelope.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeForbidden         = "forbidden"
	CodeInvalidTransition = "invalid_transition"
	CodeConflict          = "conflict"
	CodeUnauthorized      = "unauthorized"
	CodeInternal          = "internal_error"
)

// Code returns the wire code for the kind of err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAuthorization):
		return CodeForbidden
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// KindForCode is the inverse of Code. Unknown codes return nil.
func KindForCode(code string) error {
	switch code {
	case CodeValidation:
		return ErrValidation
	case CodeNotFound:
		return ErrNotFound
	case CodeForbidden, CodeUnauthorized:
		return ErrAuthorization
	case CodeInvalidTransition:
		return ErrInvalidTransition
	case CodeConflict:
		return ErrConflict
	default:
		return nil
	}
}

// Message returns the user-facing text carried by err, or fallback.
func Message(err error, fallback string) string {
	var we *Error
	if errors.As(err, &we) && we.Msg != "" {
		return we.Msg
	}
	return fallback
}
