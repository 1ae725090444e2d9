package models

import "time"

// ReportSummary holds the counters of one reconciliation run.
type ReportSummary struct {
	TotalPayments         int     `json:"total_payments" yaml:"total_payments"`
	TotalTransactions     int     `json:"total_transactions" yaml:"total_transactions"`
	MatchedPayments       int     `json:"matched_payments" yaml:"matched_payments"`
	MatchedTransactions   int     `json:"matched_transactions" yaml:"matched_transactions"`
	UnmatchedPayments     int     `json:"unmatched_payments" yaml:"unmatched_payments"`
	UnmatchedTransactions int     `json:"unmatched_transactions" yaml:"unmatched_transactions"`
	Exceptions            int     `json:"exceptions" yaml:"exceptions"`
	ReconciliationRate    float64 `json:"reconciliation_rate" yaml:"reconciliation_rate"`
	MatchedAmount         Money   `json:"matched_amount" yaml:"matched_amount"`
	UnmatchedAmount       Money   `json:"unmatched_amount" yaml:"unmatched_amount"`
}

// ScoringFailure identifies a transaction/payment pair whose scoring aborted.
// The pair was treated as non-matching.
type ScoringFailure struct {
	TransactionID string `json:"transaction_id" yaml:"transaction_id"`
	PaymentID     string `json:"payment_id" yaml:"payment_id"`
	Field         string `json:"field" yaml:"field"`
	Reason        string `json:"reason" yaml:"reason"`
}

// ReconciliationReport is the immutable outcome of one run over one statement.
type ReconciliationReport struct {
	ID              string                    `json:"id" yaml:"id"`
	StatementID     string                    `json:"statement_id" yaml:"statement_id"`
	Period          Period                    `json:"period" yaml:"period"`
	Summary         ReportSummary             `json:"summary" yaml:"summary"`
	Matches         []ReconciliationMatch     `json:"matches" yaml:"matches"`
	Exceptions      []ReconciliationException `json:"exceptions" yaml:"exceptions"`
	ScoringFailures []ScoringFailure          `json:"scoring_failures,omitempty" yaml:"scoring_failures,omitempty"`
	GeneratedAt     time.Time                 `json:"generated_at" yaml:"generated_at"`
}

// Statistics aggregates persisted runs over a time window.
type Statistics struct {
	Since                     time.Time `json:"since" yaml:"since"`
	TotalStatements           int       `json:"total_statements" yaml:"total_statements"`
	ProcessedStatements       int       `json:"processed_statements" yaml:"processed_statements"`
	TotalTransactions         int       `json:"total_transactions" yaml:"total_transactions"`
	MatchedTransactions       int       `json:"matched_transactions" yaml:"matched_transactions"`
	UnmatchedTransactions     int       `json:"unmatched_transactions" yaml:"unmatched_transactions"`
	TotalExceptions           int       `json:"total_exceptions" yaml:"total_exceptions"`
	ResolvedExceptions        int       `json:"resolved_exceptions" yaml:"resolved_exceptions"`
	AverageReconciliationRate float64   `json:"average_reconciliation_rate" yaml:"average_reconciliation_rate"`
	AverageProcessingHours    float64   `json:"average_processing_hours" yaml:"average_processing_hours"`
	ExceptionResolutionRate   float64   `json:"exception_resolution_rate" yaml:"exception_resolution_rate"`
}
