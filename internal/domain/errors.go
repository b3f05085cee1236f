package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for external calls. The pipeline routes on these: auth
// errors abort the run, transient errors are retried then downgraded to
// per-item failures, everything else is isolated per item.

// TransientError marks a timeout/5xx/rate-limit failure worth retrying.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure of op.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is classified retryable.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// AuthError marks invalid or expired credentials. Fatal for the run.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// Auth wraps err as a fatal credential failure of op.
func Auth(op string, err error) error {
	return &AuthError{Op: op, Err: err}
}

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

// ExtractionError marks malformed or incomplete structured output from the
// extraction backend. Isolated to the listing that produced it.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string { return "extraction failed: " + e.Reason }

// Extraction builds an ExtractionError with a formatted reason.
func Extraction(format string, args ...any) error {
	return &ExtractionError{Reason: fmt.Sprintf(format, args...)}
}

// IsExtraction reports whether err is an extraction failure.
func IsExtraction(err error) bool {
	var x *ExtractionError
	return errors.As(err, &x)
}

// ValidationError marks a structured event that failed sanity checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
