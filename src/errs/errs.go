// Package errs carries coded errors across package boundaries so the D-Bus
// layer can map them to structured error names.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code string

const (
	CodeConfig         Code = "CONFIG"
	CodeExecution      Code = "EXECUTION"
	CodeBusy           Code = "BUSY"
	CodeScriptDisabled Code = "SCRIPT_DISABLED"
	CodeAccessDenied   Code = "ACCESS_DENIED"
	CodeInvalidArgs    Code = "INVALID_ARGS"
	CodeUnavailable    Code = "UNAVAILABLE"
	CodeInternal       Code = "INTERNAL"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code       Code
	Message    string
	Underlying error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err stays nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Underlying: err}
}

func (e *Error) Error() string {
	if e.Underlying == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Underlying.Error()
	}
	return e.Message + ": " + e.Underlying.Error()
}

func (e *Error) Unwrap() error { return e.Underlying }

// Is matches another *Error by code, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the outermost *Error in err's chain, or
// CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
