package models

import "time"

// ExceptionType classifies why an item needs manual attention.
type ExceptionType string

const (
	ExceptionUnmatchedPayment     ExceptionType = "unmatched_payment"
	ExceptionUnmatchedTransaction ExceptionType = "unmatched_transaction"
	ExceptionAmountMismatch       ExceptionType = "amount_mismatch"
	ExceptionDateMismatch         ExceptionType = "date_mismatch"
	ExceptionDuplicateMatch       ExceptionType = "duplicate_match"
)

// Valid reports whether t is a known exception type.
func (t ExceptionType) Valid() bool {
	switch t {
	case ExceptionUnmatchedPayment, ExceptionUnmatchedTransaction, ExceptionAmountMismatch,
		ExceptionDateMismatch, ExceptionDuplicateMatch:
		return true
	}
	return false
}

// ExceptionSeverity ranks exceptions for triage.
type ExceptionSeverity string

const (
	SeverityLow    ExceptionSeverity = "low"
	SeverityMedium ExceptionSeverity = "medium"
	SeverityHigh   ExceptionSeverity = "high"
)

// Valid reports whether s is a known severity.
func (s ExceptionSeverity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// ExceptionStatus is the resolution state of an exception. It only moves forward:
// open -> investigating -> resolved|ignored.
type ExceptionStatus string

const (
	ExceptionOpen          ExceptionStatus = "open"
	ExceptionInvestigating ExceptionStatus = "investigating"
	ExceptionResolved      ExceptionStatus = "resolved"
	ExceptionIgnored       ExceptionStatus = "ignored"
)

// Closed reports whether no further transition is allowed.
func (s ExceptionStatus) Closed() bool {
	return s == ExceptionResolved || s == ExceptionIgnored
}

// CanTransitionTo reports whether moving from s to next is a forward move.
func (s ExceptionStatus) CanTransitionTo(next ExceptionStatus) bool {
	switch s {
	case ExceptionOpen:
		return next == ExceptionInvestigating || next == ExceptionResolved || next == ExceptionIgnored
	case ExceptionInvestigating:
		return next == ExceptionResolved || next == ExceptionIgnored
	}
	return false
}

// ReconciliationException records an item that could not be reconciled automatically.
type ReconciliationException struct {
	ID               string            `json:"id" yaml:"id"`
	StatementID      string            `json:"statement_id,omitempty" yaml:"statement_id,omitempty"`
	Type             ExceptionType     `json:"type" yaml:"type"`
	PaymentID        string            `json:"payment_id,omitempty" yaml:"payment_id,omitempty"`
	TransactionID    string            `json:"transaction_id,omitempty" yaml:"transaction_id,omitempty"`
	Description      string            `json:"description" yaml:"description"`
	Severity         ExceptionSeverity `json:"severity" yaml:"severity"`
	SuggestedActions []string          `json:"suggested_actions" yaml:"suggested_actions"`
	Status           ExceptionStatus   `json:"status" yaml:"status"`
	CreatedAt        time.Time         `json:"created_at" yaml:"created_at"`
	CreatedBy        string            `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
	ResolvedBy       string            `json:"resolved_by,omitempty" yaml:"resolved_by,omitempty"`
	Resolution       string            `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// ExceptionFilter narrows exception listings; zero fields match everything.
type ExceptionFilter struct {
	StatementID string
	Status      ExceptionStatus
	Severity    ExceptionSeverity
	Type        ExceptionType
}

// Matches reports whether e satisfies the filter.
func (f ExceptionFilter) Matches(e ReconciliationException) bool {
	if f.StatementID != "" && e.StatementID != f.StatementID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	return true
}
