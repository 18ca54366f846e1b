package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime   Category = "runtime"
	CategoryRouting   Category = "routing"
	CategoryConfig    Category = "config"
	CategoryTransport Category = "transport"
	CategoryCLI       Category = "cli"
)

// CrumbError is a structured error with a code, an explanation and a hint.
type CrumbError struct {
	// Code is a unique error identifier (e.g., "B001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CrumbError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CrumbError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *CrumbError) WithDetail(d string) *CrumbError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *CrumbError) WithDetailf(format string, args ...any) *CrumbError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CrumbError) WithSuggestion(s string) *CrumbError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *CrumbError) Wrap(err error) *CrumbError {
	e.Wrapped = err
	return e
}

// New creates a CrumbError from a registered error code.
func New(code string) *CrumbError {
	template, ok := GetTemplate(code)
	if !ok {
		return &CrumbError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &CrumbError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new CrumbError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *CrumbError {
	return &CrumbError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a CrumbError. Errors that already
// are CrumbErrors are returned as is.
func FromError(err error, code string) *CrumbError {
	if err == nil {
		return nil
	}
	var ce *CrumbError
	if stderrors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// HasCode reports whether any CrumbError in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if ce, ok := err.(*CrumbError); ok && ce.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
