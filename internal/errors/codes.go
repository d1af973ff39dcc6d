// Package errors provides structured error handling for perg.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration and usage errors
//   - 2XX: IO errors (input files, output sink)
//   - 4XX: Validation errors (search pattern)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or command-line usage errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and sink I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the run before scanning starts.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates an operation failed but the run can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"
	ErrCodeUsage         = "ERR_102_USAGE"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeOutputOpen   = "ERR_202_OUTPUT_OPEN"
	ErrCodeOutputLocked = "ERR_203_OUTPUT_LOCKED"
	ErrCodeOutputWrite  = "ERR_204_OUTPUT_WRITE"

	// Validation errors (400-499)
	ErrCodeInvalidPattern = "ERR_401_INVALID_PATTERN"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// Sentinels for errors.Is matching by code.
var (
	ErrUsage          = &Error{Code: ErrCodeUsage}
	ErrInvalidPattern = &Error{Code: ErrCodeInvalidPattern}
	ErrOutputOpen     = &Error{Code: ErrCodeOutputOpen}
	ErrOutputLocked   = &Error{Code: ErrCodeOutputLocked}
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_INVALID"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Everything detected before scanning is fatal; per-file and sink write
// problems only degrade the run.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodeUsage, ErrCodeOutputOpen,
		ErrCodeOutputLocked, ErrCodeInvalidPattern:
		return SeverityFatal
	case ErrCodeOutputWrite:
		return SeverityWarning
	default:
		return SeverityError
	}
}
