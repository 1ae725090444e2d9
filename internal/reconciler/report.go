package reconciler

import (
	"time"

	"fjacquet/camt-recon/internal/models"
)

func emptyReport(statementID string, period models.Period, at time.Time) *models.ReconciliationReport {
	return &models.ReconciliationReport{
		ID:          deterministicID("report", statementID, at.Format(time.RFC3339Nano)),
		StatementID: statementID,
		Period:      period,
		Matches:     []models.ReconciliationMatch{},
		Exceptions:  []models.ReconciliationException{},
		GeneratedAt: at,
	}
}

// buildReport aggregates the outputs of a completed run. poolSize is the number
// of payments offered at the start of the run.
func buildReport(
	stmt *models.BankStatement,
	poolSize int,
	matches []models.ReconciliationMatch,
	exceptions []models.ReconciliationException,
	failures []models.ScoringFailure,
	at time.Time,
) *models.ReconciliationReport {
	report := emptyReport(stmt.ID, stmt.Period(), at)
	report.Matches = matches
	report.Exceptions = exceptions
	report.ScoringFailures = failures

	matchedAmount, unmatchedAmount := models.ZeroMoney(stmt.Currency), models.ZeroMoney(stmt.Currency)
	for _, tx := range stmt.Transactions {
		if tx.Matched {
			matchedAmount = matchedAmount.PlusFloat(tx.Amount)
		} else {
			unmatchedAmount = unmatchedAmount.PlusFloat(tx.Amount)
		}
	}

	total := len(stmt.Transactions)
	matched := len(matches)
	report.Summary = models.ReportSummary{
		TotalPayments:         poolSize,
		TotalTransactions:     total,
		MatchedPayments:       matched,
		MatchedTransactions:   matched,
		UnmatchedPayments:     poolSize - matched,
		UnmatchedTransactions: total - matched,
		Exceptions:            len(exceptions),
		ReconciliationRate:    ReconciliationRate(matched, total),
		MatchedAmount:         matchedAmount,
		UnmatchedAmount:       unmatchedAmount,
	}
	return report
}

// ReconciliationRate is matched/total as a percentage, 0 when there is nothing to match.
func ReconciliationRate(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(matched) / float64(total)
}
