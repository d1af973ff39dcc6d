package errors

import (
	"fmt"
)

// Error is the structured error type for perg.
// It carries enough context to be printed to the terminal and logged.
type Error struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_PATTERN").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code, so errors.Is(err, ErrInvalidPattern) works for any
// message.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// UsageError creates a command-line usage error.
func UsageError(message string) *Error {
	return New(ErrCodeUsage, message, nil)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// PatternError creates an invalid search pattern error.
func PatternError(term string, cause error) *Error {
	return New(ErrCodeInvalidPattern, fmt.Sprintf("invalid regular expression %q", term), cause).
		WithDetail("term", term).
		WithSuggestion("Use --literal to search for the text as-is")
}

// GetCode extracts the error code from an Error.
// Returns empty string if err does not wrap one.
func GetCode(err error) string {
	if pe, ok := asError(err); ok {
		return pe.Code
	}
	return ""
}

// asError finds the first *Error in err's chain.
func asError(err error) (*Error, bool) {
	for err != nil {
		if pe, ok := err.(*Error); ok {
			return pe, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
