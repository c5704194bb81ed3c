package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryConfig   Category = "config"
	CategoryScenario Category = "scenario"
	CategoryFeed     Category = "feed"
	CategoryCLI      Category = "cli"
)

// RebindError is a structured error with a code, a suggestion, and a
// documentation link.
type RebindError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (config, feed, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows a correct configuration or invocation.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RebindError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RebindError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RebindError) WithSuggestion(s string) *RebindError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *RebindError) WithDetail(d string) *RebindError {
	e.Detail = d
	return e
}

// WithExample adds a configuration or invocation example to the error.
func (e *RebindError) WithExample(ex string) *RebindError {
	e.Example = ex
	return e
}

// Wrap wraps another error.
func (e *RebindError) Wrap(err error) *RebindError {
	e.Wrapped = err
	return e
}

// New creates a RebindError from a registered error code.
func New(code string) *RebindError {
	template, ok := registry[code]
	if !ok {
		return &RebindError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RebindError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new RebindError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RebindError {
	return &RebindError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a RebindError.
func FromError(err error, code string) *RebindError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*RebindError); ok {
		return re
	}
	return New(code).Wrap(err)
}
