package entity

import (
	"errors"
	"fmt"
)

// Sentinels for the failure kinds callers are expected to branch on.
// Handlers map these to HTTP statuses; nothing here is retried internally.
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("payment transaction not found")
	ErrForbidden           = errors.New("caller does not own this entity")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrSignatureInvalid    = errors.New("webhook signature invalid")
	ErrRatingOutOfRange    = errors.New("rating must be between 1 and 5")
	ErrOrderNotEligible    = errors.New("order not eligible for this review")
	ErrDuplicateReview     = errors.New("review already exists for this user and product")
)

// ValidationError reports a malformed field in caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError wraps a failed store write. The request is fatal; the
// caller retries the whole operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
