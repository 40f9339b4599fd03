package errors

import (
	stderrors "errors"
	"fmt"

	"learnspeed/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code is inherited from an
// AppError cause, derived from a domain sentinel, or INTERNAL_ERROR.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    Classify(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error chain contains an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Classify maps an error chain onto an error code
func Classify(err error) string {
	var appErr *AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr.Code
	case stderrors.Is(err, core.ErrInputSchema):
		return CodeInputSchema
	case stderrors.Is(err, core.ErrInsufficientData):
		return CodeInsufficientData
	case stderrors.Is(err, core.ErrInvalidConfig):
		return CodeConfigInvalid
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	}
	return CodeInternalError
}

// ExitCode is the process exit status for an error: 2 for bad input or
// configuration, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch Classify(err) {
	case CodeInputSchema, CodeConfigInvalid, CodeNotFound:
		return 2
	}
	return 1
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInputSchema      = "INPUT_SCHEMA"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeReportError      = "REPORT_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return &AppError{Code: CodeConfigInvalid, Message: message, Cause: core.ErrInvalidConfig}
}

func InputSchema(message string) *AppError {
	return &AppError{Code: CodeInputSchema, Message: message, Cause: core.ErrInputSchema}
}

func InsufficientData(message string) *AppError {
	return &AppError{Code: CodeInsufficientData, Message: message, Cause: core.ErrInsufficientData}
}

func ReportError(output string, cause error) *AppError {
	return &AppError{
		Code:    CodeReportError,
		Message: fmt.Sprintf("failed to write %s", output),
		Cause:   cause,
	}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
