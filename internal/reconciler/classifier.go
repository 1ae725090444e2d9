package reconciler

import (
	"fmt"
	"time"

	"fjacquet/camt-recon/internal/models"
)

// Severity thresholds on the absolute item amount.
const (
	highSeverityAmount   = 10000
	mediumSeverityAmount = 1000
)

var (
	unmatchedTransactionActions = []string{
		"Review transaction details",
		"Check for manual payment entries",
		"Verify counterparty information",
	}
	unmatchedPaymentActions = []string{
		"Check if payment is still pending",
		"Verify payment execution date",
		"Review bank statement completeness",
	}
)

// ExceptionSeverityFor grades an unmatched item by its signed amount, so debits
// always grade low. A non-finite amount grades low.
func ExceptionSeverityFor(amount float64) models.ExceptionSeverity {
	switch {
	case amount > highSeverityAmount:
		return models.SeverityHigh
	case amount > mediumSeverityAmount:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// classify emits one exception per unmatched transaction, in statement order,
// followed by one per unclaimed payment, in pool order.
func classify(stmt *models.BankStatement, unclaimed []models.Payment, at time.Time) []models.ReconciliationException {
	exceptions := []models.ReconciliationException{}
	stamp := at.Format(time.RFC3339Nano)

	for _, tx := range stmt.Transactions {
		if tx.Matched {
			continue
		}
		exceptions = append(exceptions, models.ReconciliationException{
			ID:               deterministicID(stmt.ID, string(models.ExceptionUnmatchedTransaction), tx.ID, stamp),
			StatementID:      stmt.ID,
			Type:             models.ExceptionUnmatchedTransaction,
			TransactionID:    tx.ID,
			Description:      fmt.Sprintf("Unmatched bank transaction: %s", tx.Description),
			Severity:         ExceptionSeverityFor(tx.Amount),
			SuggestedActions: append([]string(nil), unmatchedTransactionActions...),
			Status:           models.ExceptionOpen,
			CreatedAt:        at,
		})
	}

	for _, p := range unclaimed {
		exceptions = append(exceptions, models.ReconciliationException{
			ID:               deterministicID(stmt.ID, string(models.ExceptionUnmatchedPayment), p.ID, stamp),
			StatementID:      stmt.ID,
			Type:             models.ExceptionUnmatchedPayment,
			PaymentID:        p.ID,
			Description:      fmt.Sprintf("Unmatched payment: %s", p.BeneficiaryName),
			Severity:         ExceptionSeverityFor(p.Amount),
			SuggestedActions: append([]string(nil), unmatchedPaymentActions...),
			Status:           models.ExceptionOpen,
			CreatedAt:        at,
		})
	}
	return exceptions
}
