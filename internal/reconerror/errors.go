// Package reconerror defines the error taxonomy of the reconciliation engine.
package reconerror

import (
	"errors"
	"fmt"
)

// Sentinels matched through errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrComputation  = errors.New("computation failed")
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError represents a lookup of an entity that does not exist
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// StateError represents a rejected lifecycle transition
type StateError struct {
	Entity string
	ID     string
	From   string
	To     string
	Reason string
}

func (e *StateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s '%s' cannot move from %s to %s: %s", e.Entity, e.ID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("%s '%s' cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// ComputationError represents a transaction/payment pair whose scoring could not be computed
type ComputationError struct {
	TransactionID string
	PaymentID     string
	Field         string
	Err           error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("scoring transaction '%s' against payment '%s' failed on %s: %v",
		e.TransactionID, e.PaymentID, e.Field, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

func (e *ComputationError) Is(target error) bool {
	return target == ErrComputation
}

// InputError represents an operator request with a missing or malformed argument
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Required returns an InputError when value is empty.
func Required(field, value string) error {
	if value == "" {
		return &InputError{Field: field, Reason: "must not be empty"}
	}
	return nil
}
