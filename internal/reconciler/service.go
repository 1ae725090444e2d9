package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/dateutils"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"
)

// Defaults applied when Settings leaves a field empty.
const (
	DefaultLookbackDays = 7
	DefaultSystemActor  = "SYSTEM"
	// executionGraceDays extends the payment window past the statement date so
	// that payments booked up to the date tolerance after execution are offered.
	executionGraceDays = 3
)

// Entity names used in audit records and errors.
const (
	entityStatement   = "statement"
	entityTransaction = "transaction"
	entityPayment     = "payment"
	entityException   = "exception"
)

// Settings tunes the service. Matching weights and thresholds are not settings.
type Settings struct {
	PaymentLookbackDays int
	SystemActor         string
}

// Service runs reconciliations against the repository and payment source.
// Runs and manual matches hand their audit records to the repository so they
// commit together; exception transitions are emitted on the audit sink after
// they are saved.
type Service struct {
	repo     Repository
	payments PaymentSource
	sink     audit.Sink
	engine   *Engine
	logger   logging.Logger
	settings Settings
}

// NewService wires a Service. Engine options, such as WithClock, also drive the
// timestamps of lifecycle operations.
func NewService(repo Repository, payments PaymentSource, sink audit.Sink, logger logging.Logger, settings Settings, opts ...EngineOption) *Service {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if settings.PaymentLookbackDays <= 0 {
		settings.PaymentLookbackDays = DefaultLookbackDays
	}
	if settings.SystemActor == "" {
		settings.SystemActor = DefaultSystemActor
	}
	return &Service{
		repo:     repo,
		payments: payments,
		sink:     sink,
		engine:   NewEngine(logger, opts...),
		logger:   logger.WithField(logging.FieldComponent, "reconciler"),
		settings: settings,
	}
}

func (s *Service) now() time.Time {
	return s.engine.now().UTC()
}

// PaymentWindow is the execution-date window searched for candidate payments:
// the statement period widened by the lookback, extended to cover every
// transaction value date give or take the execution grace.
func (s *Service) PaymentWindow(stmt *models.BankStatement) models.Period {
	grace := executionGraceDays * dateutils.Day
	window := stmt.Period().Widen(time.Duration(s.settings.PaymentLookbackDays)*dateutils.Day, grace)
	for _, tx := range stmt.Transactions {
		if tx.ValueDate.IsZero() {
			continue
		}
		window = window.Extend(tx.ValueDate.Add(-grace)).Extend(tx.ValueDate.Add(grace))
	}
	return window
}

// ProcessStatement reconciles one imported statement and commits the outcome.
// An unknown statement yields an empty report rather than an error.
func (s *Service) ProcessStatement(ctx context.Context, statementID string) (*models.ReconciliationReport, error) {
	log := s.logger.WithField(logging.FieldStatementID, statementID)

	stmt, err := s.repo.GetStatement(ctx, statementID)
	if errors.Is(err, reconerror.ErrNotFound) {
		log.Warn("Statement not found, returning empty report")
		res, _ := s.engine.Reconcile(nil, nil)
		res.Report.StatementID = statementID
		return res.Report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load statement %s: %w", statementID, err)
	}
	if stmt.Status != models.StatementImported {
		return nil, &reconerror.StateError{
			Entity: entityStatement, ID: stmt.ID,
			From: string(stmt.Status), To: string(models.StatementProcessing),
			Reason: "only imported statements can be reconciled",
		}
	}

	var payments []models.Payment
	if len(stmt.Transactions) > 0 {
		window := s.PaymentWindow(stmt)
		payments, err = s.payments.PendingPayments(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("failed to load pending payments for statement %s: %w", stmt.ID, err)
		}
		log.Debug("Loaded candidate payments", logging.F(logging.FieldCount, len(payments)))
	}

	start := time.Now()
	res, err := s.engine.Reconcile(stmt, payments)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CommitRun(ctx, res.Statement, res.Report, s.runRecords(res)...); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation of statement %s: %w", stmt.ID, err)
	}

	log.Info("Statement reconciled",
		logging.F(logging.FieldStatus, res.Statement.Status),
		logging.F(logging.FieldReportID, res.Report.ID),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return res.Report, nil
}

// ProcessImported reconciles every statement still in the imported state.
// A failing statement does not stop the others; all failures are returned joined.
func (s *Service) ProcessImported(ctx context.Context) ([]*models.ReconciliationReport, error) {
	statements, err := s.repo.ListStatements(ctx, models.StatementImported)
	if err != nil {
		return nil, fmt.Errorf("failed to list imported statements: %w", err)
	}

	var reports []*models.ReconciliationReport
	var errs []error
	for _, stmt := range statements {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := s.ProcessStatement(ctx, stmt.ID)
		if err != nil {
			s.logger.WithError(err).Error("Failed to reconcile statement",
				logging.F(logging.FieldStatementID, stmt.ID))
			errs = append(errs, err)
			continue
		}
		reports = append(reports, report)
	}

	s.logger.Info("Processed imported statements",
		logging.F(logging.FieldCount, len(reports)),
		logging.F("failures", len(errs)))
	return reports, errors.Join(errs...)
}

func (s *Service) runRecords(res *RunResult) []audit.Record {
	actor := s.settings.SystemActor
	at := res.Report.GeneratedAt
	records := make([]audit.Record, 0, len(res.Report.Matches)+len(res.Report.Exceptions)+1)

	for _, m := range res.Report.Matches {
		records = append(records, audit.NewRecord(audit.ActionMatchCommitted, entityTransaction, m.TransactionID, actor, at, audit.Payload{
			"statement_id": res.Statement.ID,
			"payment_id":   m.PaymentID,
			"match_type":   string(m.MatchType),
			"confidence":   m.Confidence,
		}))
	}
	for _, e := range res.Report.Exceptions {
		records = append(records, audit.NewRecord(audit.ActionExceptionCreated, entityException, e.ID, actor, at, audit.Payload{
			"statement_id":   res.Statement.ID,
			"type":           string(e.Type),
			"severity":       string(e.Severity),
			"transaction_id": e.TransactionID,
			"payment_id":     e.PaymentID,
		}))
	}
	records = append(records, audit.NewRecord(audit.ActionReconciliationComplete, entityStatement, res.Statement.ID, actor, at, audit.Payload{
		"report_id":            res.Report.ID,
		"matched_transactions": res.Report.Summary.MatchedTransactions,
		"exceptions":           res.Report.Summary.Exceptions,
		"reconciliation_rate":  res.Report.Summary.ReconciliationRate,
		"status":               string(res.Statement.Status),
	}))
	return records
}
