package errors

import (
	stderrors "errors"
	"fmt"

	"cpseval/domain/core"
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

// Is lets errors.Is match the domain sentinels by code, so callers outside
// this package can test for core.ErrInsufficientData and friends.
func (e *AppError) Is(target error) bool {
	switch target {
	case core.ErrConfiguration:
		return e.Code == CodeConfigInvalid
	case core.ErrMissingMetadata:
		return e.Code == CodeMissingMetadata
	case core.ErrInsufficientData:
		return e.Code == CodeInsufficientData
	case core.ErrNoBaseline:
		return e.Code == CodeNoBaseline
	case core.ErrNotFound:
		return e.Code == CodeNotFound
	}
	return false
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
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

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeMissingMetadata  = "MISSING_METADATA"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeNoBaseline       = "NO_BASELINE"
	CodeDataAlignment    = "DATA_ALIGNMENT"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ConfigInvalidf(format string, args ...interface{}) *AppError {
	return New(CodeConfigInvalid, fmt.Sprintf(format, args...))
}

// MissingMetadata names the metric that has no schema entry.
func MissingMetadata(metric string) *AppError {
	return New(CodeMissingMetadata, fmt.Sprintf("missing metadata for metric: %s", metric))
}

func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

func InsufficientDataf(format string, args ...interface{}) *AppError {
	return New(CodeInsufficientData, fmt.Sprintf(format, args...))
}

func NoBaseline(model, baseline string) *AppError {
	return New(CodeNoBaseline, fmt.Sprintf("model %q has no baseline group at threshold %s", model, baseline))
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
