package store

import (
	"context"
	"sort"
	"sync"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"
)

// MemoryStore keeps everything in process memory with the same semantics as
// SQLiteStore. Values are copied on the way in and out.
type MemoryStore struct {
	mu            sync.RWMutex
	statements    map[string]*models.BankStatement
	statementSeq  []string
	txIndex       map[string]string
	payments      map[string]models.Payment
	reports       []models.ReconciliationReport
	exceptions    map[string]models.ReconciliationException
	exceptionSeq  []string
	manualMatches []models.ManualMatch
	*audit.MemorySink
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statements: make(map[string]*models.BankStatement),
		txIndex:    make(map[string]string),
		payments:   make(map[string]models.Payment),
		exceptions: make(map[string]models.ReconciliationException),
		MemorySink: audit.NewMemorySink(),
	}
}

func (m *MemoryStore) putStatement(stmt *models.BankStatement) {
	if _, ok := m.statements[stmt.ID]; !ok {
		m.statementSeq = append(m.statementSeq, stmt.ID)
	}
	m.statements[stmt.ID] = stmt.Clone()
	for _, tx := range stmt.Transactions {
		if _, ok := m.txIndex[tx.ID]; !ok {
			m.txIndex[tx.ID] = stmt.ID
		}
	}
}

func (m *MemoryStore) putException(e models.ReconciliationException) {
	if _, ok := m.exceptions[e.ID]; !ok {
		m.exceptionSeq = append(m.exceptionSeq, e.ID)
	}
	e.SuggestedActions = append([]string(nil), e.SuggestedActions...)
	m.exceptions[e.ID] = e
}

// SaveStatement inserts or replaces a statement.
func (m *MemoryStore) SaveStatement(_ context.Context, stmt *models.BankStatement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putStatement(stmt)
	return nil
}

// GetStatement loads a statement by id.
func (m *MemoryStore) GetStatement(_ context.Context, id string) (*models.BankStatement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stmt, ok := m.statements[id]
	if !ok {
		return nil, reconerror.NotFound("statement", id)
	}
	return stmt.Clone(), nil
}

// GetStatementByTransaction loads the statement owning a transaction.
func (m *MemoryStore) GetStatementByTransaction(_ context.Context, transactionID string) (*models.BankStatement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.txIndex[transactionID]
	if !ok {
		return nil, reconerror.NotFound("transaction", transactionID)
	}
	return m.statements[id].Clone(), nil
}

// ListStatements returns statements in insertion order, optionally filtered by status.
func (m *MemoryStore) ListStatements(_ context.Context, status models.StatementStatus) ([]*models.BankStatement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.BankStatement{}
	for _, id := range m.statementSeq {
		stmt := m.statements[id]
		if status == "" || stmt.Status == status {
			out = append(out, stmt.Clone())
		}
	}
	return out, nil
}

// CommitRun claims the matched payments and stores the statement, report,
// exceptions and audit records under one lock.
func (m *MemoryStore) CommitRun(ctx context.Context, stmt *models.BankStatement, report *models.ReconciliationReport, records ...audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	claims := make(map[string]string, len(report.Matches))
	for _, match := range report.Matches {
		if _, dup := claims[match.PaymentID]; dup {
			return paymentNotClaimable(match.PaymentID, match.TransactionID)
		}
		claims[match.PaymentID] = match.TransactionID
	}
	if err := m.claimPayments(claims); err != nil {
		return err
	}
	m.putStatement(stmt)
	m.reports = append(m.reports, *report)
	for _, e := range report.Exceptions {
		m.putException(e)
	}
	return m.MemorySink.Emit(ctx, records...)
}

// ListReports returns reports generated within period, oldest first.
func (m *MemoryStore) ListReports(_ context.Context, period models.Period) ([]models.ReconciliationReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.ReconciliationReport{}
	for _, r := range m.reports {
		if period.Contains(r.GeneratedAt) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.Before(out[j].GeneratedAt) })
	return out, nil
}

// GetException loads an exception by id.
func (m *MemoryStore) GetException(_ context.Context, id string) (*models.ReconciliationException, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exceptions[id]
	if !ok {
		return nil, reconerror.NotFound("exception", id)
	}
	return &e, nil
}

// SaveException inserts or updates an exception.
func (m *MemoryStore) SaveException(_ context.Context, e *models.ReconciliationException) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putException(*e)
	return nil
}

// ListExceptions returns exceptions matching filter in creation order.
func (m *MemoryStore) ListExceptions(_ context.Context, filter models.ExceptionFilter) ([]models.ReconciliationException, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.ReconciliationException{}
	for _, id := range m.exceptionSeq {
		if e := m.exceptions[id]; filter.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveManualMatch claims the payment and stores the updated statement, the
// manual match and its audit records.
func (m *MemoryStore) SaveManualMatch(ctx context.Context, stmt *models.BankStatement, mm *models.ManualMatch, records ...audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.manualMatches {
		if existing.TransactionID == mm.TransactionID {
			return &reconerror.StateError{Entity: "transaction", ID: mm.TransactionID, From: "matched", To: "matched",
				Reason: "manual match already recorded"}
		}
	}
	if err := m.claimPayments(map[string]string{mm.PaymentID: mm.TransactionID}); err != nil {
		return err
	}
	m.putStatement(stmt)
	m.manualMatches = append(m.manualMatches, *mm)
	return m.MemorySink.Emit(ctx, records...)
}

// ListManualMatches returns the manual matches of a statement, or all of them when statementID is empty.
func (m *MemoryStore) ListManualMatches(_ context.Context, statementID string) ([]models.ManualMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.ManualMatch{}
	for _, mm := range m.manualMatches {
		if statementID == "" || mm.StatementID == statementID {
			out = append(out, mm)
		}
	}
	return out, nil
}

// SavePayments inserts or replaces payments. A payment already claimed by a
// match keeps its matched status.
func (m *MemoryStore) SavePayments(_ context.Context, payments []models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range payments {
		if prev, ok := m.payments[p.ID]; ok && prev.Status == models.PaymentMatched {
			p.Status = models.PaymentMatched
		}
		m.payments[p.ID] = p
	}
	return nil
}

// claimPayments moves the given payments from pending to matched. Nothing is
// changed unless every payment can be claimed. Callers hold m.mu.
func (m *MemoryStore) claimPayments(claims map[string]string) error {
	for paymentID, transactionID := range claims {
		if p, ok := m.payments[paymentID]; !ok || p.Status != models.PaymentPending {
			return paymentNotClaimable(paymentID, transactionID)
		}
	}
	for paymentID := range claims {
		p := m.payments[paymentID]
		p.Status = models.PaymentMatched
		m.payments[paymentID] = p
	}
	return nil
}

// PendingPayments returns pending payments executed within window, plus undated
// pending payments, ordered by execution date then id.
func (m *MemoryStore) PendingPayments(_ context.Context, window models.Period) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if p.Status != models.PaymentPending {
			continue
		}
		if p.ExecutionDate.IsZero() || window.Contains(p.ExecutionDate) {
			out = append(out, p)
		}
	}
	sortPayments(out)
	return out, nil
}

// ListPayments returns all payments ordered by execution date then id.
func (m *MemoryStore) ListPayments(_ context.Context) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	sortPayments(out)
	return out, nil
}

// GetPayment loads a payment by id.
func (m *MemoryStore) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, reconerror.NotFound("payment", id)
	}
	return &p, nil
}

// AuditTrail returns the audit records of an entity, or all of them when entityID is empty.
func (m *MemoryStore) AuditTrail(_ context.Context, entityID string) ([]audit.Record, error) {
	var out []audit.Record
	for _, r := range m.Records() {
		if entityID == "" || r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

// HealthCheck always succeeds.
func (m *MemoryStore) HealthCheck(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func sortPayments(p []models.Payment) {
	sort.Slice(p, func(i, j int) bool {
		if !p[i].ExecutionDate.Equal(p[j].ExecutionDate) {
			return p[i].ExecutionDate.Before(p[j].ExecutionDate)
		}
		return p[i].ID < p[j].ID
	})
}
