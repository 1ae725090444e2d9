package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"
)

// SQLiteStore is the durable repository, payment source and audit sink.
type SQLiteStore struct {
	db     *DB
	logger logging.Logger
}

// NewSQLiteStore opens the database at path.
func NewSQLiteStore(path string, logger logging.Logger) (*SQLiteStore, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	logger.Debug("Opened reconciliation database", logging.F("path", db.Path()))
	return &SQLiteStore{db: db, logger: logger.WithField(logging.FieldComponent, "store")}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// --- statements ---

// SaveStatement inserts or replaces a statement and its transaction index.
func (s *SQLiteStore) SaveStatement(ctx context.Context, stmt *models.BankStatement) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return putStatement(ctx, tx, stmt)
	})
}

func putStatement(ctx context.Context, ex execer, stmt *models.BankStatement) error {
	body, err := json.Marshal(stmt)
	if err != nil {
		return fmt.Errorf("failed to encode statement %s: %w", stmt.ID, err)
	}
	if _, err := ex.ExecContext(ctx, `
		INSERT INTO statements (id, status, statement_date, imported_at, body) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, body = excluded.body`,
		stmt.ID, string(stmt.Status), formatTime(stmt.StatementDate), formatTime(stmt.ImportedAt), string(body),
	); err != nil {
		return fmt.Errorf("failed to save statement %s: %w", stmt.ID, err)
	}
	for _, t := range stmt.Transactions {
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO statement_transactions (transaction_id, statement_id) VALUES (?, ?)
			ON CONFLICT(transaction_id) DO NOTHING`, t.ID, stmt.ID); err != nil {
			return fmt.Errorf("failed to index transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

// GetStatement loads a statement by id.
func (s *SQLiteStore) GetStatement(ctx context.Context, id string) (*models.BankStatement, error) {
	var body string
	err := s.db.conn.QueryRowContext(ctx, `SELECT body FROM statements WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconerror.NotFound("statement", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load statement %s: %w", id, err)
	}
	return decodeStatement(body)
}

// GetStatementByTransaction loads the statement owning a transaction.
func (s *SQLiteStore) GetStatementByTransaction(ctx context.Context, transactionID string) (*models.BankStatement, error) {
	var body string
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT s.body FROM statements s
		JOIN statement_transactions t ON t.statement_id = s.id
		WHERE t.transaction_id = ?`, transactionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconerror.NotFound("transaction", transactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load statement of transaction %s: %w", transactionID, err)
	}
	return decodeStatement(body)
}

// ListStatements returns statements in import order, optionally filtered by status.
func (s *SQLiteStore) ListStatements(ctx context.Context, status models.StatementStatus) ([]*models.BankStatement, error) {
	query := `SELECT body FROM statements`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY imported_at, id`

	bodies, err := s.queryBodies(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	out := make([]*models.BankStatement, 0, len(bodies))
	for _, b := range bodies {
		stmt, err := decodeStatement(b)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeStatement(body string) (*models.BankStatement, error) {
	var stmt models.BankStatement
	if err := json.Unmarshal([]byte(body), &stmt); err != nil {
		return nil, fmt.Errorf("failed to decode statement: %w", err)
	}
	return &stmt, nil
}

// --- reconciliation runs ---

// CommitRun stores the statement, report, exceptions and audit records
// atomically, and claims every matched payment. A payment that is no longer
// pending rolls the whole run back.
func (s *SQLiteStore) CommitRun(ctx context.Context, stmt *models.BankStatement, report *models.ReconciliationReport, records ...audit.Record) error {
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, m := range report.Matches {
			if err := claimPayment(ctx, tx, m.PaymentID, m.TransactionID); err != nil {
				return err
			}
		}
		if err := putStatement(ctx, tx, stmt); err != nil {
			return err
		}
		body, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report %s: %w", report.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reports (id, statement_id, generated_at, body) VALUES (?, ?, ?, ?)`,
			report.ID, report.StatementID, formatTime(report.GeneratedAt), string(body)); err != nil {
			return fmt.Errorf("failed to save report %s: %w", report.ID, err)
		}
		for i := range report.Exceptions {
			if err := putException(ctx, tx, &report.Exceptions[i]); err != nil {
				return err
			}
		}
		return appendAudit(ctx, tx, records)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("Committed reconciliation run",
		logging.F(logging.FieldStatementID, stmt.ID),
		logging.F(logging.FieldReportID, report.ID))
	return nil
}

// ListReports returns reports generated within period, oldest first.
func (s *SQLiteStore) ListReports(ctx context.Context, period models.Period) ([]models.ReconciliationReport, error) {
	bodies, err := s.queryBodies(ctx, `
		SELECT body FROM reports WHERE generated_at >= ? AND generated_at <= ?
		ORDER BY generated_at, id`, formatTime(period.Start), formatTime(period.End))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	out := make([]models.ReconciliationReport, 0, len(bodies))
	for _, b := range bodies {
		var r models.ReconciliationReport
		if err := json.Unmarshal([]byte(b), &r); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// --- exceptions ---

// SaveException inserts or updates an exception.
func (s *SQLiteStore) SaveException(ctx context.Context, e *models.ReconciliationException) error {
	return putException(ctx, s.db.conn, e)
}

func putException(ctx context.Context, ex execer, e *models.ReconciliationException) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode exception %s: %w", e.ID, err)
	}
	if _, err := ex.ExecContext(ctx, `
		INSERT INTO exceptions (id, statement_id, type, severity, status, created_at, body) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, body = excluded.body`,
		e.ID, e.StatementID, string(e.Type), string(e.Severity), string(e.Status), formatTime(e.CreatedAt), string(body),
	); err != nil {
		return fmt.Errorf("failed to save exception %s: %w", e.ID, err)
	}
	return nil
}

// GetException loads an exception by id.
func (s *SQLiteStore) GetException(ctx context.Context, id string) (*models.ReconciliationException, error) {
	var body string
	err := s.db.conn.QueryRowContext(ctx, `SELECT body FROM exceptions WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconerror.NotFound("exception", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load exception %s: %w", id, err)
	}
	var e models.ReconciliationException
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		return nil, fmt.Errorf("failed to decode exception %s: %w", id, err)
	}
	return &e, nil
}

// ListExceptions returns exceptions matching filter in creation order.
func (s *SQLiteStore) ListExceptions(ctx context.Context, filter models.ExceptionFilter) ([]models.ReconciliationException, error) {
	var where []string
	var args []interface{}
	add := func(col, val string) {
		if val != "" {
			where = append(where, col+" = ?")
			args = append(args, val)
		}
	}
	add("statement_id", filter.StatementID)
	add("status", string(filter.Status))
	add("severity", string(filter.Severity))
	add("type", string(filter.Type))

	query := `SELECT body FROM exceptions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, rowid`

	bodies, err := s.queryBodies(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	out := make([]models.ReconciliationException, 0, len(bodies))
	for _, b := range bodies {
		var e models.ReconciliationException
		if err := json.Unmarshal([]byte(b), &e); err != nil {
			return nil, fmt.Errorf("failed to decode exception: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// --- manual matches ---

// SaveManualMatch claims the payment and stores the updated statement, the
// manual match and its audit records atomically.
func (s *SQLiteStore) SaveManualMatch(ctx context.Context, stmt *models.BankStatement, m *models.ManualMatch, records ...audit.Record) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := claimPayment(ctx, tx, m.PaymentID, m.TransactionID); err != nil {
			return err
		}
		if err := putStatement(ctx, tx, stmt); err != nil {
			return err
		}
		body, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode manual match: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manual_matches (transaction_id, payment_id, statement_id, created_at, body) VALUES (?, ?, ?, ?, ?)`,
			m.TransactionID, m.PaymentID, m.StatementID, formatTime(m.CreatedAt), string(body)); err != nil {
			return fmt.Errorf("failed to save manual match for transaction %s: %w", m.TransactionID, err)
		}
		return appendAudit(ctx, tx, records)
	})
}

// ListManualMatches returns the manual matches of a statement, or all of them when statementID is empty.
func (s *SQLiteStore) ListManualMatches(ctx context.Context, statementID string) ([]models.ManualMatch, error) {
	query := `SELECT body FROM manual_matches`
	var args []interface{}
	if statementID != "" {
		query += ` WHERE statement_id = ?`
		args = append(args, statementID)
	}
	query += ` ORDER BY created_at, transaction_id`

	bodies, err := s.queryBodies(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual matches: %w", err)
	}
	out := make([]models.ManualMatch, 0, len(bodies))
	for _, b := range bodies {
		var m models.ManualMatch
		if err := json.Unmarshal([]byte(b), &m); err != nil {
			return nil, fmt.Errorf("failed to decode manual match: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// --- payments ---

// SavePayments inserts or replaces payments. Amounts are stored as text so that
// malformed (non-finite) amounts survive until scoring reports them. A payment
// already claimed by a match keeps its matched status.
func (s *SQLiteStore) SavePayments(ctx context.Context, payments []models.Payment) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, p := range payments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO payments (id, amount, beneficiary_name, reference, execution_date, status) VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET amount = excluded.amount, beneficiary_name = excluded.beneficiary_name,
					reference = excluded.reference, execution_date = excluded.execution_date,
					status = CASE WHEN payments.status = ? THEN payments.status ELSE excluded.status END`,
				p.ID, strconv.FormatFloat(p.Amount, 'f', -1, 64), p.BeneficiaryName, p.Reference,
				formatTime(p.ExecutionDate), string(p.Status), string(models.PaymentMatched)); err != nil {
				return fmt.Errorf("failed to save payment %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// PendingPayments returns pending payments executed within window, plus pending
// payments without an execution date so that scoring can report them.
func (s *SQLiteStore) PendingPayments(ctx context.Context, window models.Period) ([]models.Payment, error) {
	return s.queryPayments(ctx, `
		SELECT id, amount, beneficiary_name, reference, execution_date, status FROM payments
		WHERE status = ? AND (execution_date = '' OR (execution_date >= ? AND execution_date <= ?))
		ORDER BY execution_date, id`,
		string(models.PaymentPending), formatTime(window.Start), formatTime(window.End))
}

// claimPayment moves a payment from pending to matched. Only a pending payment
// can be claimed.
func claimPayment(ctx context.Context, ex execer, paymentID, transactionID string) error {
	res, err := ex.ExecContext(ctx, `UPDATE payments SET status = ? WHERE id = ? AND status = ?`,
		string(models.PaymentMatched), paymentID, string(models.PaymentPending))
	if err != nil {
		return fmt.Errorf("failed to claim payment %s: %w", paymentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to claim payment %s: %w", paymentID, err)
	}
	if n == 0 {
		return paymentNotClaimable(paymentID, transactionID)
	}
	return nil
}

// ListPayments returns all payments ordered by execution date.
func (s *SQLiteStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return s.queryPayments(ctx, `
		SELECT id, amount, beneficiary_name, reference, execution_date, status FROM payments
		ORDER BY execution_date, id`)
}

// GetPayment loads a payment by id.
func (s *SQLiteStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payments, err := s.queryPayments(ctx, `
		SELECT id, amount, beneficiary_name, reference, execution_date, status FROM payments WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, reconerror.NotFound("payment", id)
	}
	return &payments[0], nil
}

func (s *SQLiteStore) queryPayments(ctx context.Context, query string, args ...interface{}) ([]models.Payment, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		var p models.Payment
		var amount, execDate, status string
		if err := rows.Scan(&p.ID, &amount, &p.BeneficiaryName, &p.Reference, &execDate, &status); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if p.Amount, err = strconv.ParseFloat(amount, 64); err != nil {
			return nil, fmt.Errorf("failed to decode amount of payment %s: %w", p.ID, err)
		}
		if p.ExecutionDate, err = parseTime(execDate); err != nil {
			return nil, fmt.Errorf("failed to decode execution date of payment %s: %w", p.ID, err)
		}
		p.Status = models.PaymentStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- audit ---

// Emit appends audit records to the ledger in one transaction.
func (s *SQLiteStore) Emit(ctx context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return appendAudit(ctx, tx, records)
	})
}

func appendAudit(ctx context.Context, ex execer, records []audit.Record) error {
	for _, r := range records {
		payload, err := audit.EncodePayload(r.Payload)
		if err != nil {
			return err
		}
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO audit_log (id, action, entity_type, entity_id, actor_id, occurred_at, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, string(r.Action), r.EntityType, r.EntityID, r.ActorID, formatTime(r.OccurredAt), payload); err != nil {
			return fmt.Errorf("failed to append audit record %s: %w", r.ID, err)
		}
	}
	return nil
}

// AuditTrail returns the audit records of an entity, oldest first. An empty
// entityID returns the whole ledger.
func (s *SQLiteStore) AuditTrail(ctx context.Context, entityID string) ([]audit.Record, error) {
	query := `SELECT id, action, entity_type, entity_id, actor_id, occurred_at, payload FROM audit_log`
	var args []interface{}
	if entityID != "" {
		query += ` WHERE entity_id = ?`
		args = append(args, entityID)
	}
	query += ` ORDER BY occurred_at, rowid`

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var r audit.Record
		var action, occurredAt string
		var payload []byte
		if err := rows.Scan(&r.ID, &action, &r.EntityType, &r.EntityID, &r.ActorID, &occurredAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		r.Action = audit.Action(action)
		if r.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, fmt.Errorf("failed to decode audit timestamp: %w", err)
		}
		if r.Payload, err = audit.DecodePayload(payload); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) queryBodies(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
