package store

import (
	"context"
	"strings"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconciler"
	"fjacquet/camt-recon/internal/reconerror"
)

// Store is everything the application needs from persistence.
type Store interface {
	reconciler.Repository
	reconciler.PaymentSource
	audit.Sink

	SavePayments(ctx context.Context, payments []models.Payment) error
	ListPayments(ctx context.Context) ([]models.Payment, error)
	AuditTrail(ctx context.Context, entityID string) ([]audit.Record, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// MemoryPath selects the in-process store instead of SQLite.
const MemoryPath = "memory"

// Open returns a MemoryStore for MemoryPath and a SQLiteStore otherwise.
func Open(path string, logger logging.Logger) (Store, error) {
	if strings.EqualFold(path, MemoryPath) {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(path, logger)
}

func paymentNotClaimable(paymentID, transactionID string) error {
	return &reconerror.StateError{Entity: "payment", ID: paymentID, From: "not pending", To: string(models.PaymentMatched),
		Reason: "cannot be claimed by transaction " + transactionID}
}
