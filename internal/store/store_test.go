package store

import (
	"context"
	"math"
	"testing"
	"time"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqliteStore, err := NewSQLiteStore(":memory:", logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"sqlite": sqliteStore,
		"memory": NewMemoryStore(),
	}
}

func sampleStatement() *models.BankStatement {
	return &models.BankStatement{
		ID:             "st-1",
		BankCode:       "UBSWCHZH80A",
		AccountNumber:  "CH9300762011623852957",
		StatementDate:  day,
		OpeningBalance: mustMoney("10000.00"),
		ClosingBalance: mustMoney("8500.00"),
		Currency:       "CHF",
		Status:         models.StatementImported,
		ImportedAt:     day.Add(2 * time.Hour),
		Transactions: []models.BankTransaction{
			{ID: "tx-1", ValueDate: day, TransactionDate: day, Amount: 1500, Currency: "CHF", Reference: "INV-1"},
			{ID: "tx-2", ValueDate: day, TransactionDate: day, Amount: 20, Currency: "CHF"},
		},
	}
}

func mustMoney(s string) models.Money {
	m, err := models.NewMoneyFromString(s, "CHF")
	if err != nil {
		panic(err)
	}
	return m
}

func TestStatements(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			stmt := sampleStatement()
			require.NoError(t, s.SaveStatement(ctx, stmt))

			got, err := s.GetStatement(ctx, "st-1")
			require.NoError(t, err)
			assert.Equal(t, "CH9300762011623852957", got.AccountNumber)
			assert.True(t, got.OpeningBalance.Amount.Equal(stmt.OpeningBalance.Amount))
			assert.True(t, got.StatementDate.Equal(day))
			require.Len(t, got.Transactions, 2)
			assert.Equal(t, "INV-1", got.Transactions[0].Reference)

			owner, err := s.GetStatementByTransaction(ctx, "tx-2")
			require.NoError(t, err)
			assert.Equal(t, "st-1", owner.ID)

			_, err = s.GetStatement(ctx, "missing")
			assert.ErrorIs(t, err, reconerror.ErrNotFound)
			_, err = s.GetStatementByTransaction(ctx, "missing")
			assert.ErrorIs(t, err, reconerror.ErrNotFound)

			imported, err := s.ListStatements(ctx, models.StatementImported)
			require.NoError(t, err)
			assert.Len(t, imported, 1)
			reconciled, err := s.ListStatements(ctx, models.StatementReconciled)
			require.NoError(t, err)
			assert.Empty(t, reconciled)
		})
	}
}

func TestReturnedStatementIsACopy(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SaveStatement(ctx, sampleStatement()))

			got, err := s.GetStatement(ctx, "st-1")
			require.NoError(t, err)
			got.Transactions[0].MarkMatched("pay-x", 1)

			again, err := s.GetStatement(ctx, "st-1")
			require.NoError(t, err)
			assert.False(t, again.Transactions[0].Matched)
		})
	}
}

func TestCommitRun(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			stmt := sampleStatement()
			require.NoError(t, s.SaveStatement(ctx, stmt))
			require.NoError(t, s.SavePayments(ctx, []models.Payment{
				{ID: "pay-1", Amount: 1500, ExecutionDate: day, Status: models.PaymentPending},
			}))

			stmt.Status = models.StatementException
			stmt.Transactions[0].MarkMatched("pay-1", 1)
			generated := day.Add(3 * time.Hour)
			report := &models.ReconciliationReport{
				ID:          "rep-1",
				StatementID: "st-1",
				Period:      stmt.Period(),
				Summary:     models.ReportSummary{TotalTransactions: 2, MatchedTransactions: 1, ReconciliationRate: 50},
				Matches:     []models.ReconciliationMatch{{PaymentID: "pay-1", TransactionID: "tx-1", MatchType: models.MatchExact, Confidence: 1}},
				Exceptions: []models.ReconciliationException{
					{ID: "ex-1", StatementID: "st-1", Type: models.ExceptionUnmatchedTransaction, TransactionID: "tx-2",
						Severity: models.SeverityLow, Status: models.ExceptionOpen, CreatedAt: generated},
					{ID: "ex-2", StatementID: "st-1", Type: models.ExceptionUnmatchedPayment, PaymentID: "pay-2",
						Severity: models.SeverityHigh, Status: models.ExceptionOpen, CreatedAt: generated},
				},
				GeneratedAt: generated,
			}
			completed := audit.NewRecord(audit.ActionReconciliationComplete, "statement", "st-1", "SYSTEM", generated, nil)
			require.NoError(t, s.CommitRun(ctx, stmt, report, completed))

			claimed, err := s.GetPayment(ctx, "pay-1")
			require.NoError(t, err)
			assert.Equal(t, models.PaymentMatched, claimed.Status)
			trail, err := s.AuditTrail(ctx, "st-1")
			require.NoError(t, err)
			require.Len(t, trail, 1)
			assert.Equal(t, completed.ID, trail[0].ID)

			got, err := s.GetStatement(ctx, "st-1")
			require.NoError(t, err)
			assert.Equal(t, models.StatementException, got.Status)
			assert.True(t, got.Transactions[0].Matched)

			reports, err := s.ListReports(ctx, models.Period{Start: day, End: day.Add(24 * time.Hour)})
			require.NoError(t, err)
			require.Len(t, reports, 1)
			assert.Equal(t, 50.0, reports[0].Summary.ReconciliationRate)
			require.Len(t, reports[0].Matches, 1)

			none, err := s.ListReports(ctx, models.Period{Start: day.Add(48 * time.Hour), End: day.Add(72 * time.Hour)})
			require.NoError(t, err)
			assert.Empty(t, none)

			all, err := s.ListExceptions(ctx, models.ExceptionFilter{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "ex-1", all[0].ID)
			assert.Equal(t, "ex-2", all[1].ID)

			high, err := s.ListExceptions(ctx, models.ExceptionFilter{Severity: models.SeverityHigh})
			require.NoError(t, err)
			require.Len(t, high, 1)
			assert.Equal(t, "pay-2", high[0].PaymentID)
		})
	}
}

func TestCommitRun_RejectsClaimedPayment(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SavePayments(ctx, []models.Payment{
				{ID: "pay-1", Amount: 1500, ExecutionDate: day, Status: models.PaymentPending},
				{ID: "pay-3", Amount: 20, ExecutionDate: day, Status: models.PaymentPending},
			}))
			run := func(stmtID, reportID, txID string, paymentIDs ...string) error {
				stmt := sampleStatement()
				stmt.ID = stmtID
				stmt.Transactions = []models.BankTransaction{{ID: txID, ValueDate: day, Amount: 1500, Currency: "CHF"}}
				stmt.Status = models.StatementReconciled
				report := &models.ReconciliationReport{ID: reportID, StatementID: stmtID, GeneratedAt: day}
				for _, id := range paymentIDs {
					report.Matches = append(report.Matches, models.ReconciliationMatch{PaymentID: id, TransactionID: txID})
				}
				return s.CommitRun(ctx, stmt, report,
					audit.NewRecord(audit.ActionReconciliationComplete, "statement", stmtID, "SYSTEM", day, nil))
			}

			require.NoError(t, run("st-a", "rep-a", "tx-a", "pay-1"))

			err := run("st-b", "rep-b", "tx-b", "pay-3", "pay-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, reconerror.ErrInvalidState)

			_, err = s.GetStatement(ctx, "st-b")
			assert.ErrorIs(t, err, reconerror.ErrNotFound)
			reports, err := s.ListReports(ctx, models.Period{Start: day.Add(-time.Hour), End: day.Add(time.Hour)})
			require.NoError(t, err)
			assert.Len(t, reports, 1)
			trail, err := s.AuditTrail(ctx, "st-b")
			require.NoError(t, err)
			assert.Empty(t, trail)
			untouched, err := s.GetPayment(ctx, "pay-3")
			require.NoError(t, err)
			assert.Equal(t, models.PaymentPending, untouched.Status)

			err = run("st-c", "rep-c", "tx-c", "pay-unknown")
			assert.ErrorIs(t, err, reconerror.ErrInvalidState)
		})
	}
}

func TestExceptions(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e := &models.ReconciliationException{
				ID: "ex-9", Type: models.ExceptionAmountMismatch, Severity: models.SeverityMedium,
				Status: models.ExceptionOpen, CreatedAt: day, SuggestedActions: []string{"a"},
			}
			require.NoError(t, s.SaveException(ctx, e))

			e.Status = models.ExceptionResolved
			resolvedAt := day.Add(time.Hour)
			e.ResolvedAt = &resolvedAt
			e.ResolvedBy = "alice"
			require.NoError(t, s.SaveException(ctx, e))

			got, err := s.GetException(ctx, "ex-9")
			require.NoError(t, err)
			assert.Equal(t, models.ExceptionResolved, got.Status)
			assert.Equal(t, "alice", got.ResolvedBy)
			require.NotNil(t, got.ResolvedAt)
			assert.True(t, got.ResolvedAt.Equal(resolvedAt))

			open, err := s.ListExceptions(ctx, models.ExceptionFilter{Status: models.ExceptionOpen})
			require.NoError(t, err)
			assert.Empty(t, open)

			_, err = s.GetException(ctx, "nope")
			assert.ErrorIs(t, err, reconerror.ErrNotFound)
		})
	}
}

func TestPayments(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SavePayments(ctx, []models.Payment{
				{ID: "p-in", Amount: 100, ExecutionDate: day, Status: models.PaymentPending},
				{ID: "p-early", Amount: 100, ExecutionDate: day.AddDate(0, 0, -30), Status: models.PaymentPending},
				{ID: "p-done", Amount: 100, ExecutionDate: day, Status: models.PaymentExecuted},
				{ID: "p-undated", Amount: math.NaN(), Status: models.PaymentPending},
			}))

			pending, err := s.PendingPayments(ctx, models.Period{Start: day.AddDate(0, 0, -7), End: day.AddDate(0, 0, 3)})
			require.NoError(t, err)
			ids := make([]string, 0, len(pending))
			for _, p := range pending {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, []string{"p-in", "p-undated"}, ids)

			// A re-import does not reopen a payment claimed by a match.
			require.NoError(t, s.CommitRun(ctx, sampleStatement(), &models.ReconciliationReport{
				ID: "rep-p", StatementID: "st-1", GeneratedAt: day,
				Matches: []models.ReconciliationMatch{{PaymentID: "p-in", TransactionID: "tx-1"}},
			}))
			require.NoError(t, s.SavePayments(ctx, []models.Payment{
				{ID: "p-in", Amount: 100, ExecutionDate: day, Status: models.PaymentPending},
			}))
			reimported, err := s.GetPayment(ctx, "p-in")
			require.NoError(t, err)
			assert.Equal(t, models.PaymentMatched, reimported.Status)

			p, err := s.GetPayment(ctx, "p-undated")
			require.NoError(t, err)
			assert.True(t, math.IsNaN(p.Amount))
			assert.True(t, p.ExecutionDate.IsZero())

			_, err = s.GetPayment(ctx, "zzz")
			assert.ErrorIs(t, err, reconerror.ErrNotFound)

			all, err := s.ListPayments(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 4)
		})
	}
}

func TestManualMatches(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			stmt := sampleStatement()
			require.NoError(t, s.SaveStatement(ctx, stmt))
			require.NoError(t, s.SavePayments(ctx, []models.Payment{
				{ID: "pay-7", Amount: 20, ExecutionDate: day, Status: models.PaymentPending},
			}))

			stmt.Transactions[1].MarkMatched("pay-7", 1)
			mm := &models.ManualMatch{
				ReconciliationMatch: models.ReconciliationMatch{
					PaymentID: "pay-7", TransactionID: "tx-2", MatchType: models.MatchManual, Confidence: 1,
				},
				StatementID: "st-1",
				CreatedBy:   "bob",
				CreatedAt:   day,
			}
			record := audit.NewRecord(audit.ActionManualMatchCreated, "transaction", "tx-2", "bob", day, nil)
			require.NoError(t, s.SaveManualMatch(ctx, stmt, mm, record))

			claimed, err := s.GetPayment(ctx, "pay-7")
			require.NoError(t, err)
			assert.Equal(t, models.PaymentMatched, claimed.Status)
			trail, err := s.AuditTrail(ctx, "tx-2")
			require.NoError(t, err)
			assert.Len(t, trail, 1)

			again := sampleStatement()
			again.Transactions[0].MarkMatched("pay-7", 1)
			err = s.SaveManualMatch(ctx, again, &models.ManualMatch{
				ReconciliationMatch: models.ReconciliationMatch{PaymentID: "pay-7", TransactionID: "tx-1", MatchType: models.MatchManual},
				StatementID:         "st-1",
				CreatedAt:           day,
			})
			assert.ErrorIs(t, err, reconerror.ErrInvalidState)

			matches, err := s.ListManualMatches(ctx, "st-1")
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "bob", matches[0].CreatedBy)
			assert.Equal(t, models.MatchManual, matches[0].MatchType)

			got, err := s.GetStatement(ctx, "st-1")
			require.NoError(t, err)
			assert.Equal(t, "pay-7", got.Transactions[1].MatchedPaymentID)

			other, err := s.ListManualMatches(ctx, "st-2")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestAuditTrail(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Emit(ctx,
				audit.NewRecord(audit.ActionExceptionCreated, "exception", "ex-1", "SYSTEM", day, audit.Payload{"severity": "high"}),
				audit.NewRecord(audit.ActionExceptionResolved, "exception", "ex-1", "alice", day.Add(time.Hour), nil),
				audit.NewRecord(audit.ActionMatchCommitted, "transaction", "tx-1", "SYSTEM", day, nil),
			))

			trail, err := s.AuditTrail(ctx, "ex-1")
			require.NoError(t, err)
			require.Len(t, trail, 2)
			assert.Equal(t, audit.ActionExceptionCreated, trail[0].Action)
			assert.Equal(t, "high", trail[0].Payload["severity"])
			assert.Equal(t, "alice", trail[1].ActorID)

			all, err := s.AuditTrail(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, s.HealthCheck(context.Background()))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", formatTime(time.Time{}))
	ts := time.Date(2024, 3, 15, 10, 0, 0, 5, time.FixedZone("CET", 3600))
	s := formatTime(ts)
	assert.Equal(t, "2024-03-15T09:00:00.000000005Z", s)

	back, err := parseTime(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))
}
