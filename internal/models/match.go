package models

import "time"

// MatchType tells how a match was produced.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchFuzzy  MatchType = "fuzzy"
	MatchManual MatchType = "manual"
)

// DiscrepancySeverity grades a failed criterion.
type DiscrepancySeverity string

const (
	DiscrepancyMinor    DiscrepancySeverity = "minor"
	DiscrepancyMajor    DiscrepancySeverity = "major"
	DiscrepancyCritical DiscrepancySeverity = "critical"
)

// Matched fields.
const (
	FieldAmount           = "amount"
	FieldDate             = "date"
	FieldReference        = "reference"
	FieldCounterpartyName = "counterpartyName"
	FieldManual           = "manual"
)

// MatchCriterion is the outcome of comparing one field of a transaction/payment pair.
type MatchCriterion struct {
	Field            string      `json:"field" yaml:"field"`
	PaymentValue     interface{} `json:"payment_value" yaml:"payment_value"`
	TransactionValue interface{} `json:"transaction_value" yaml:"transaction_value"`
	Match            bool        `json:"match" yaml:"match"`
	Weight           float64     `json:"weight" yaml:"weight"`
}

// Discrepancy describes a criterion that failed to match.
type Discrepancy struct {
	Field            string              `json:"field" yaml:"field"`
	PaymentValue     interface{}         `json:"payment_value" yaml:"payment_value"`
	TransactionValue interface{}         `json:"transaction_value" yaml:"transaction_value"`
	Severity         DiscrepancySeverity `json:"severity" yaml:"severity"`
	Description      string              `json:"description" yaml:"description"`
}

// ReconciliationMatch links one payment to one transaction.
type ReconciliationMatch struct {
	PaymentID     string           `json:"payment_id" yaml:"payment_id"`
	TransactionID string           `json:"transaction_id" yaml:"transaction_id"`
	MatchType     MatchType        `json:"match_type" yaml:"match_type"`
	Confidence    float64          `json:"confidence" yaml:"confidence"`
	Criteria      []MatchCriterion `json:"match_criteria" yaml:"match_criteria"`
	Discrepancies []Discrepancy    `json:"discrepancies" yaml:"discrepancies"`
}

// ManualMatch is an operator override stored alongside the statement it touches.
type ManualMatch struct {
	ReconciliationMatch `yaml:",inline"`
	StatementID         string    `json:"statement_id" yaml:"statement_id"`
	CreatedBy           string    `json:"created_by" yaml:"created_by"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
}
