package models

import (
	"errors"
	"fmt"
)

// ValidationError rejects caller input before any processing starts.
// It propagates to the immediate caller; extraction and AI backend
// failures are handled internally instead.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError formats a caller-facing rejection.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ExtractionError marks a byte stream that is not a valid container for
// its declared kind. The ingest pipeline converts it into a failed
// upload carrying the message verbatim; it must never be swallowed into
// an empty-text success.
type ExtractionError struct {
	Kind UploadKind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError wraps the underlying parse failure with its kind.
func NewExtractionError(kind UploadKind, format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// IsExtraction reports whether err came from a failed extraction.
func IsExtraction(err error) bool {
	var e *ExtractionError
	return errors.As(err, &e)
}
