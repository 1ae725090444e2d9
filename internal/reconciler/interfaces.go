// Package reconciler matches bank statement transactions against pending payments,
// classifies the residue as exceptions and manages their lifecycle.
package reconciler

import (
	"context"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/models"
)

//go:generate mockgen -destination=mocks/mock_payment_source.go -package=mocks fjacquet/camt-recon/internal/reconciler PaymentSource
//go:generate mockgen -destination=mocks/mock_audit_sink.go -package=mocks fjacquet/camt-recon/internal/audit Sink

// PaymentSource is the external payment store. It hands out read-only snapshots.
type PaymentSource interface {
	// PendingPayments returns the pending payments executed within window.
	PendingPayments(ctx context.Context, window models.Period) ([]models.Payment, error)
	// GetPayment returns a payment by id, or a reconerror.NotFoundError.
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
}

// Repository persists statements, reports, exceptions and manual matches.
// Lookups of unknown ids return a reconerror.NotFoundError.
type Repository interface {
	SaveStatement(ctx context.Context, s *models.BankStatement) error
	GetStatement(ctx context.Context, id string) (*models.BankStatement, error)
	// GetStatementByTransaction returns the statement owning the transaction.
	GetStatementByTransaction(ctx context.Context, transactionID string) (*models.BankStatement, error)
	// ListStatements returns statements in the given status, or all of them when status is empty.
	ListStatements(ctx context.Context, status models.StatementStatus) ([]*models.BankStatement, error)

	// CommitRun stores the reconciled statement, its report, the report's
	// exceptions and the run's audit records in one atomic step. Every matched
	// payment moves from pending to matched in the same step; if one of them is
	// no longer pending nothing is stored and a reconerror.StateError is returned.
	CommitRun(ctx context.Context, s *models.BankStatement, report *models.ReconciliationReport, records ...audit.Record) error
	ListReports(ctx context.Context, period models.Period) ([]models.ReconciliationReport, error)

	GetException(ctx context.Context, id string) (*models.ReconciliationException, error)
	SaveException(ctx context.Context, e *models.ReconciliationException) error
	ListExceptions(ctx context.Context, filter models.ExceptionFilter) ([]models.ReconciliationException, error)

	// SaveManualMatch claims the payment and stores the updated statement, the
	// manual match and its audit records atomically, with the same claim rule as CommitRun.
	SaveManualMatch(ctx context.Context, s *models.BankStatement, m *models.ManualMatch, records ...audit.Record) error
	ListManualMatches(ctx context.Context, statementID string) ([]models.ManualMatch, error)
}
