package reconciler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/matcher"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"

	"github.com/google/uuid"
)

// AcceptanceThreshold is the lowest confidence at which a scored pair is committed.
const AcceptanceThreshold = 0.70

// RunState is the progress of one reconciliation run.
type RunState string

const (
	RunNotStarted RunState = "not_started"
	RunScoring    RunState = "scoring"
	RunCommitted  RunState = "committed"
)

// idNamespace seeds the name-based ids of reports and exceptions so that a run
// replayed with the same inputs and clock yields the same ids.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("camt-recon/reconciliation"))

func deterministicID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "|"))).String()
}

// RunResult is the outcome of Engine.Reconcile.
type RunResult struct {
	// Statement is the reconciled copy; the caller's statement is never modified.
	Statement *models.BankStatement
	Report    *models.ReconciliationReport
	State     RunState
}

// Engine runs the greedy assignment over one statement and one payment snapshot.
// It performs no I/O.
type Engine struct {
	scorer *matcher.Scorer
	logger logging.Logger
	now    func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces the wall clock used to stamp reports and exceptions.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(logger logging.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	e := &Engine{
		scorer: matcher.NewScorer(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds the mutable state of a single reconciliation.
type run struct {
	state       RunState
	statement   *models.BankStatement
	pool        *paymentPool
	matches     []models.ReconciliationMatch
	failures    []models.ScoringFailure
	generatedAt time.Time
	logger      logging.Logger
}

func (r *run) advance(to RunState) error {
	ok := (r.state == RunNotStarted && to == RunScoring) || (r.state == RunScoring && to == RunCommitted)
	if !ok {
		return &reconerror.StateError{Entity: "run", ID: r.statement.ID, From: string(r.state), To: string(to)}
	}
	r.state = to
	return nil
}

// Reconcile matches every transaction of statement, in statement order, against
// payments. Each transaction takes the strictly highest scoring candidate still in
// the pool when its confidence reaches AcceptanceThreshold; the claimed payment is
// gone for every later transaction. The residue becomes exceptions.
//
// A nil statement or one without transactions yields an empty report. A run either
// completes or returns an error without a report.
func (e *Engine) Reconcile(statement *models.BankStatement, payments []models.Payment) (*RunResult, error) {
	generatedAt := e.now().UTC()

	if statement == nil {
		return &RunResult{
			Report: emptyReport("", models.Period{}, generatedAt),
			State:  RunCommitted,
		}, nil
	}

	stmt := statement.Clone()
	if len(stmt.Transactions) == 0 {
		stmt.Status = models.StatementReconciled
		stmt.ProcessedAt = &generatedAt
		return &RunResult{
			Statement: stmt,
			Report:    emptyReport(stmt.ID, stmt.Period(), generatedAt),
			State:     RunCommitted,
		}, nil
	}

	pool, err := newPaymentPool(payments)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment pool for statement %s: %w", stmt.ID, err)
	}

	r := &run{
		state:       RunNotStarted,
		statement:   stmt,
		pool:        pool,
		matches:     []models.ReconciliationMatch{},
		generatedAt: generatedAt,
		logger:      e.logger.WithFields(logging.F(logging.FieldStatementID, stmt.ID)),
	}
	if err := r.advance(RunScoring); err != nil {
		return nil, err
	}
	stmt.Status = models.StatementProcessing

	for i := range stmt.Transactions {
		stmt.Transactions[i].ResetMatch()
	}
	for i := range stmt.Transactions {
		if err := e.assign(r, &stmt.Transactions[i]); err != nil {
			return nil, fmt.Errorf("reconciliation of statement %s aborted: %w", stmt.ID, err)
		}
	}

	exceptions := classify(stmt, pool.Remaining(), generatedAt)
	report := buildReport(stmt, pool.Size(), r.matches, exceptions, r.failures, generatedAt)

	if len(exceptions) == 0 {
		stmt.Status = models.StatementReconciled
	} else {
		stmt.Status = models.StatementException
	}
	stmt.ProcessedAt = &generatedAt

	if err := r.advance(RunCommitted); err != nil {
		return nil, err
	}

	r.logger.Info("Reconciliation run completed",
		logging.F(logging.FieldReportID, report.ID),
		logging.F("matched_transactions", report.Summary.MatchedTransactions),
		logging.F("unmatched_transactions", report.Summary.UnmatchedTransactions),
		logging.F("unmatched_payments", report.Summary.UnmatchedPayments),
		logging.F("scoring_failures", len(r.failures)),
		logging.F("reconciliation_rate", report.Summary.ReconciliationRate))

	return &RunResult{Statement: stmt, Report: report, State: r.state}, nil
}

// assign scores tx against the pool and commits the best acceptable candidate.
func (e *Engine) assign(r *run, tx *models.BankTransaction) error {
	var best *models.ReconciliationMatch
	r.pool.Each(func(p *models.Payment) {
		m, err := e.scorer.Score(tx, p)
		if err != nil {
			r.recordFailure(err)
			return
		}
		if m.Confidence >= AcceptanceThreshold && (best == nil || m.Confidence > best.Confidence) {
			best = &m
		}
	})
	if best == nil {
		return nil
	}

	if !r.pool.Claim(best.PaymentID) {
		return &reconerror.StateError{Entity: "payment", ID: best.PaymentID, From: "claimed", To: "claimed"}
	}
	tx.MarkMatched(best.PaymentID, best.Confidence)
	r.matches = append(r.matches, *best)

	r.logger.Debug("Committed match",
		logging.F(logging.FieldTransactionID, tx.ID),
		logging.F(logging.FieldPaymentID, best.PaymentID),
		logging.F(logging.FieldConfidence, best.Confidence),
		logging.F(logging.FieldMatchType, best.MatchType))
	return nil
}

func (r *run) recordFailure(err error) {
	failure := models.ScoringFailure{Reason: err.Error()}
	var ce *reconerror.ComputationError
	if errors.As(err, &ce) {
		failure.TransactionID = ce.TransactionID
		failure.PaymentID = ce.PaymentID
		failure.Field = ce.Field
		failure.Reason = ce.Err.Error()
	}
	r.failures = append(r.failures, failure)
	r.logger.WithError(err).Warn("Pair scoring aborted, treating pair as non-matching",
		logging.F(logging.FieldTransactionID, failure.TransactionID),
		logging.F(logging.FieldPaymentID, failure.PaymentID))
}
