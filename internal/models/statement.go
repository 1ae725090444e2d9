package models

import (
	"math"
	"time"
)

// StatementStatus is the lifecycle state of a bank statement.
type StatementStatus string

const (
	StatementImported   StatementStatus = "imported"
	StatementProcessing StatementStatus = "processing"
	StatementReconciled StatementStatus = "reconciled"
	StatementException  StatementStatus = "exception"
)

// BankStatement is one imported account statement with its transactions in bank order.
// Balances are immutable once imported; only Status, ProcessedAt and the match
// fields of its transactions change during reconciliation.
type BankStatement struct {
	ID             string            `json:"id" yaml:"id"`
	BankCode       string            `json:"bank_code" yaml:"bank_code"`
	AccountNumber  string            `json:"account_number" yaml:"account_number"`
	StatementDate  time.Time         `json:"statement_date" yaml:"statement_date"`
	OpeningBalance Money             `json:"opening_balance" yaml:"opening_balance"`
	ClosingBalance Money             `json:"closing_balance" yaml:"closing_balance"`
	Currency       string            `json:"currency" yaml:"currency"`
	Transactions   []BankTransaction `json:"transactions" yaml:"transactions"`
	Status         StatementStatus   `json:"status" yaml:"status"`
	ImportedAt     time.Time         `json:"imported_at" yaml:"imported_at"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty" yaml:"processed_at,omitempty"`
}

// Clone returns a deep copy so a reconciliation run can work without touching the original.
func (s *BankStatement) Clone() *BankStatement {
	if s == nil {
		return nil
	}
	c := *s
	c.Transactions = make([]BankTransaction, len(s.Transactions))
	for i, tx := range s.Transactions {
		c.Transactions[i] = tx.clone()
	}
	if s.ProcessedAt != nil {
		t := *s.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

// Transaction returns the transaction with the given id, or nil.
func (s *BankStatement) Transaction(id string) *BankTransaction {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return &s.Transactions[i]
		}
	}
	return nil
}

// Period is the window covered by the statement: the 24 hours up to the statement date.
func (s *BankStatement) Period() Period {
	return Period{Start: s.StatementDate.Add(-24 * time.Hour), End: s.StatementDate}
}

// BankTransaction is a single booked line of a bank statement.
type BankTransaction struct {
	ID                  string    `json:"id" yaml:"id"`
	TransactionDate     time.Time `json:"transaction_date" yaml:"transaction_date"`
	ValueDate           time.Time `json:"value_date" yaml:"value_date"`
	Amount              float64   `json:"amount" yaml:"amount"`
	Currency            string    `json:"currency" yaml:"currency"`
	Description         string    `json:"description" yaml:"description"`
	Reference           string    `json:"reference,omitempty" yaml:"reference,omitempty"`
	CounterpartyName    string    `json:"counterparty_name,omitempty" yaml:"counterparty_name,omitempty"`
	CounterpartyAccount string    `json:"counterparty_account,omitempty" yaml:"counterparty_account,omitempty"`
	TransactionCode     string    `json:"transaction_code,omitempty" yaml:"transaction_code,omitempty"`

	Matched          bool     `json:"matched" yaml:"matched"`
	MatchedPaymentID string   `json:"matched_payment_id,omitempty" yaml:"matched_payment_id,omitempty"`
	MatchConfidence  *float64 `json:"match_confidence,omitempty" yaml:"match_confidence,omitempty"`
}

// MarkMatched records a committed match on the transaction.
func (t *BankTransaction) MarkMatched(paymentID string, confidence float64) {
	t.Matched = true
	t.MatchedPaymentID = paymentID
	t.MatchConfidence = &confidence
}

// ResetMatch clears any recorded match.
func (t *BankTransaction) ResetMatch() {
	t.Matched = false
	t.MatchedPaymentID = ""
	t.MatchConfidence = nil
}

func (t BankTransaction) clone() BankTransaction {
	if t.MatchConfidence != nil {
		c := *t.MatchConfidence
		t.MatchConfidence = &c
	}
	return t
}

// IsFiniteAmount reports whether an amount can take part in arithmetic.
func IsFiniteAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}
