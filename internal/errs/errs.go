// Package errs defines the error kinds shared by the identity and ledger
// services and by the HTTP handlers that translate them into responses.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both a missing record and one the caller does not
	// own. Handlers must not distinguish the two.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity is returned when a write violates a uniqueness constraint.
	ErrIntegrity = errors.New("integrity violation")

	// ErrInvalidCredentials is returned by login for any bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for expired, malformed or revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationError carries field-level failures for a single record.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError wraps details, returning nil when there are none.
func NewValidationError(details []FieldError) error {
	if len(details) == 0 {
		return nil
	}
	return &ValidationError{Details: details}
}

// BatchError reports which intents of a transaction batch were rejected,
// keyed by their position in the batch.
type BatchError struct {
	Intents map[int][]FieldError
}

func (e *BatchError) Error() string {
	idx := make([]int, 0, len(e.Intents))
	for i := range e.Intents {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		for _, d := range e.Intents[i] {
			parts = append(parts, fmt.Sprintf("[%d] %s: %s", i, d.Field, d.Message))
		}
	}
	return "invalid transaction batch: " + strings.Join(parts, "; ")
}

// Add records a field error against intent i.
func (e *BatchError) Add(i int, fe FieldError) {
	if e.Intents == nil {
		e.Intents = make(map[int][]FieldError)
	}
	e.Intents[i] = append(e.Intents[i], fe)
}

// Empty reports whether no intent was rejected.
func (e *BatchError) Empty() bool { return len(e.Intents) == 0 }

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it already is one or is nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Integrity returns an ErrIntegrity-wrapping error naming the field at fault.
func Integrity(field, message string) error {
	return &IntegrityError{Field: field, Message: message}
}

// IntegrityError is a uniqueness violation on a specific field.
type IntegrityError struct {
	Field   string
	Message string
}

func (e *IntegrityError) Error() string { return e.Field + ": " + e.Message }
func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
