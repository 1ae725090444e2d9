package scheduler

import (
	"context"
	"time"

	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
)

// ImportedProcessor reconciles every statement still waiting in status imported.
type ImportedProcessor interface {
	ProcessImported(ctx context.Context) ([]*models.ReconciliationReport, error)
}

// ReconcileImportedJob is the periodic reconciliation run.
type ReconcileImportedJob struct {
	processor ImportedProcessor
	timeout   time.Duration
	log       logging.Logger
}

// NewReconcileImportedJob creates the job. A zero timeout means no deadline.
func NewReconcileImportedJob(processor ImportedProcessor, timeout time.Duration, log logging.Logger) *ReconcileImportedJob {
	return &ReconcileImportedJob{processor: processor, timeout: timeout, log: log}
}

// Name identifies the job in logs.
func (j *ReconcileImportedJob) Name() string {
	return "reconcile-imported"
}

// Run processes the imported queue once.
func (j *ReconcileImportedJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	reports, err := j.processor.ProcessImported(ctx)
	j.log.Info("Reconciled imported statements",
		logging.F(logging.FieldJob, j.Name()),
		logging.F(logging.FieldCount, len(reports)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return err
}
