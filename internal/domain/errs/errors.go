package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Code standardizes service failure semantics for the HTTP layer.
type Code string

const (
	CodeValidation Code = "validation"
	CodeNotFound   Code = "not_found"
	CodeForbidden  Code = "forbidden"
	CodeConflict   Code = "conflict"
	// CodeUpstream: a required call to ECCR, XDS or ELRR failed.
	CodeUpstream Code = "upstream"
	// CodeInvariant: the service reached a state it should never reach.
	CodeInvariant Code = "invariant_violation"
	CodeInternal  Code = "internal"
)

// Error carries a code, the failing operation and a message safe to show
// callers. Cause holds the detail that belongs only in logs.
type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	var s string
	switch {
	case op != "" && msg != "":
		s = fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		s = fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		s = fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		s = string(e.Code)
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func Validation(op, message string) error { return New(CodeValidation, op, message, nil) }

func NotFound(op, message string) error { return New(CodeNotFound, op, message, nil) }

func Forbidden(op string) error {
	return New(CodeForbidden, op, "You do not have permission to perform this action.", nil)
}

// IsCode reports whether err, or anything it wraps, carries code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the outermost code, "" when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// MessageOf returns the caller-safe message of the outermost *Error.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Message
}
