package tile

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

// Error codes surfaced by conversions.
const (
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeDegenerateGrid   Code = "DEGENERATE_GRID"
	ErrCodeIO               Code = "IO_ERROR"
	ErrCodeTooLarge         Code = "IMAGE_TOO_LARGE"
)

// Error is a coded conversion failure with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error wrapping cause.
func WrapError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any error in err's chain is an *Error with the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from err, or "" if err carries none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
