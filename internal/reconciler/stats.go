package reconciler

import (
	"context"
	"fmt"
	"time"

	"fjacquet/camt-recon/internal/models"
)

// ListReports returns the persisted reports generated within period.
func (s *Service) ListReports(ctx context.Context, period models.Period) ([]models.ReconciliationReport, error) {
	reports, err := s.repo.ListReports(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Statistics aggregates statements imported and exceptions created since the given time.
func (s *Service) Statistics(ctx context.Context, since time.Time) (*models.Statistics, error) {
	statements, err := s.repo.ListStatements(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	exceptions, err := s.repo.ListExceptions(ctx, models.ExceptionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}

	stats := &models.Statistics{Since: since}
	var rateSum, hoursSum float64
	for _, stmt := range statements {
		if stmt.ImportedAt.Before(since) {
			continue
		}
		stats.TotalStatements++
		stats.TotalTransactions += len(stmt.Transactions)

		matched := 0
		for _, tx := range stmt.Transactions {
			if tx.Matched {
				matched++
			}
		}
		stats.MatchedTransactions += matched

		if stmt.ProcessedAt != nil {
			stats.ProcessedStatements++
			rateSum += ReconciliationRate(matched, len(stmt.Transactions))
			hoursSum += stmt.ProcessedAt.Sub(stmt.ImportedAt).Hours()
		}
	}
	stats.UnmatchedTransactions = stats.TotalTransactions - stats.MatchedTransactions
	if stats.ProcessedStatements > 0 {
		stats.AverageReconciliationRate = rateSum / float64(stats.ProcessedStatements)
		stats.AverageProcessingHours = hoursSum / float64(stats.ProcessedStatements)
	}

	for _, e := range exceptions {
		if e.CreatedAt.Before(since) {
			continue
		}
		stats.TotalExceptions++
		if e.Status == models.ExceptionResolved {
			stats.ResolvedExceptions++
		}
	}
	if stats.TotalExceptions > 0 {
		stats.ExceptionResolutionRate = 100 * float64(stats.ResolvedExceptions) / float64(stats.TotalExceptions)
	}
	return stats, nil
}
