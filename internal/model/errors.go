package model

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned when an operation needs a published model and
// none exists yet.
var ErrNotReady = errors.New("no model loaded - train first")

// ErrNotConfigured is returned by the auth layer when no shared secret is set.
var ErrNotConfigured = errors.New("ML service not configured (CC_ML_TOKEN missing)")

// ErrUnauthorized is returned by the auth layer for a missing or wrong token.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports caller-supplied input that violates a precondition.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalidf builds a ValidationError with a formatted reason.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TrainingError wraps an unexpected failure while fitting or evaluating.
// Its message is safe to show callers; the cause is for logs.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed during %s: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }
