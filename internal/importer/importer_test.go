package importer_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/importer"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"
	"fjacquet/camt-recon/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var importedAt = time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)

func newImporter(t *testing.T, infer bool) (*importer.Importer, *store.MemoryStore, *logging.MockLogger) {
	t.Helper()
	st := store.NewMemoryStore()
	logger := logging.NewMockLogger()
	imp := importer.New(st, st, st, logger, importer.Options{
		InferReferences: infer,
		Actor:           "ops-1",
		Now:             func() time.Time { return importedAt },
	})
	return imp, st, logger
}

func sampleInput() importer.StatementInput {
	return importer.StatementInput{
		ID:             "stmt-1",
		BankCode:       "UBS",
		AccountNumber:  "CH9300762011623852957",
		StatementDate:  "2024-01-15",
		OpeningBalance: decimal.RequireFromString("10000.00"),
		ClosingBalance: decimal.RequireFromString("8499.50"),
		Currency:       "chf",
		Transactions: []importer.TransactionInput{
			{
				ID:               "tx-1",
				TransactionDate:  "2024-01-15",
				ValueDate:        "2024-01-15",
				Amount:           -1500.50,
				Description:      "ACME Corporation INV-2024-001",
				Reference:        "INV-2024-001",
				CounterpartyName: "ACME Corporation",
			},
		},
	}
}

func TestImportStatement(t *testing.T) {
	imp, st, _ := newImporter(t, false)
	ctx := context.Background()

	stmt, err := imp.ImportStatement(ctx, sampleInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatementImported, stmt.Status)
	assert.Equal(t, importedAt, stmt.ImportedAt)
	assert.Equal(t, "CHF", stmt.Currency)
	assert.Equal(t, "CHF", stmt.Transactions[0].Currency)
	assert.False(t, stmt.Transactions[0].Matched)
	assert.Nil(t, stmt.Transactions[0].MatchConfidence)

	stored, err := st.GetStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Len(t, stored.Transactions, 1)

	records := st.ByAction(audit.ActionStatementImported)
	require.Len(t, records, 1)
	assert.Equal(t, "stmt-1", records[0].EntityID)
	assert.Equal(t, "ops-1", records[0].ActorID)
	assert.Equal(t, 1, records[0].Payload["transaction_count"])
	assert.Equal(t, "-1500.50", records[0].Payload["balance_movement"])
	assert.Equal(t, "CHF", records[0].Payload["currency"])
}

func TestImportStatement_RejectsDuplicateStatement(t *testing.T) {
	imp, st, _ := newImporter(t, false)
	ctx := context.Background()

	_, err := imp.ImportStatement(ctx, sampleInput())
	require.NoError(t, err)

	_, err = imp.ImportStatement(ctx, sampleInput())
	assert.True(t, errors.Is(err, reconerror.ErrInvalidInput))
	assert.Len(t, st.ByAction(audit.ActionStatementImported), 1)
}

func TestImportStatement_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *importer.StatementInput)
	}{
		{name: "missing currency", mutate: func(in *importer.StatementInput) { in.Currency = " " }},
		{name: "bad statement date", mutate: func(in *importer.StatementInput) { in.StatementDate = "yesterday" }},
		{name: "non-finite amount", mutate: func(in *importer.StatementInput) { in.Transactions[0].Amount = math.NaN() }},
		{name: "infinite amount", mutate: func(in *importer.StatementInput) { in.Transactions[0].Amount = math.Inf(-1) }},
		{name: "duplicate transaction id", mutate: func(in *importer.StatementInput) {
			in.Transactions = append(in.Transactions, in.Transactions[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, st, _ := newImporter(t, false)
			in := sampleInput()
			tt.mutate(&in)

			_, err := imp.ImportStatement(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, reconerror.ErrInvalidInput))
			assert.Empty(t, st.Records())
		})
	}
}

func TestBuildStatement_Defaults(t *testing.T) {
	imp, _, logger := newImporter(t, true)
	in := sampleInput()
	in.ID = ""
	in.Transactions = []importer.TransactionInput{
		{TransactionDate: "2024-01-14", Amount: -250, Description: "Payee: Tech Solutions Ltd, Reference: SERV-2024-045"},
		{ID: "tx-bad", TransactionDate: "not a date", Amount: -10},
	}

	stmt, err := imp.BuildStatement(in)
	require.NoError(t, err)

	assert.NotEmpty(t, stmt.ID)
	first := stmt.Transactions[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.TransactionDate, first.ValueDate)
	assert.Equal(t, "SERV-2024-045", first.Reference)
	assert.Equal(t, "Tech Solutions Ltd", first.CounterpartyName)

	assert.True(t, stmt.Transactions[1].ValueDate.IsZero())
	assert.NotEmpty(t, logger.GetEntriesByLevel("WARN"))
}

func TestBuildStatement_NoInferenceByDefault(t *testing.T) {
	imp, _, _ := newImporter(t, false)
	in := sampleInput()
	in.Transactions[0].Reference = ""
	in.Transactions[0].CounterpartyName = ""

	stmt, err := imp.BuildStatement(in)
	require.NoError(t, err)
	assert.Empty(t, stmt.Transactions[0].Reference)
	assert.Empty(t, stmt.Transactions[0].CounterpartyName)
}

func TestLoadStatementFile(t *testing.T) {
	dir := t.TempDir()

	yamlDoc := `id: stmt-yaml
bank_code: ZKB
account_number: CH44
statement_date: "2024-01-15"
opening_balance: 1000.00
closing_balance: 900.00
currency: CHF
transactions:
  - id: tx-1
    transaction_date: "2024-01-15"
    amount: -100.00
    description: Rent
`
	yamlPath := filepath.Join(dir, "stmt.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0600))

	in, err := importer.LoadStatementFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "stmt-yaml", in.ID)
	assert.True(t, in.OpeningBalance.Equal(decimal.NewFromInt(1000)))
	require.Len(t, in.Transactions, 1)
	assert.Equal(t, -100.0, in.Transactions[0].Amount)

	jsonDoc := `{"id":"stmt-json","statement_date":"2024-01-15","currency":"EUR",
"opening_balance":"5.10","closing_balance":"5.10","transactions":[]}`
	jsonPath := filepath.Join(dir, "stmt.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonDoc), 0600))

	in, err = importer.LoadStatementFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "stmt-json", in.ID)
	assert.True(t, in.ClosingBalance.Equal(decimal.RequireFromString("5.10")))

	_, err = importer.LoadStatementFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadPaymentsCSV(t *testing.T) {
	content := "id;amount;beneficiary_name;reference;execution_date;status\n" +
		"pay-1;1'500.50;ACME Corporation;INV-2024-001;2024-01-15;pending\n" +
		"pay-2;abc;Tech Solutions;SERV-1;2024-01-14;\n" +
		"pay-3;-20;Globex;;someday;EXECUTED\n" +
		";10;No id;;2024-01-14;pending\n"
	path := filepath.Join(t.TempDir(), "payments.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	logger := logging.NewMockLogger()
	payments, err := importer.LoadPaymentsCSV(path, ';', logger)
	require.NoError(t, err)
	require.Len(t, payments, 3)

	assert.Equal(t, 1500.50, payments[0].Amount)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), payments[0].ExecutionDate)
	assert.Equal(t, models.PaymentPending, payments[0].Status)

	assert.True(t, math.IsNaN(payments[1].Amount))
	assert.Equal(t, models.PaymentPending, payments[1].Status)

	assert.True(t, payments[2].ExecutionDate.IsZero())
	assert.Equal(t, models.PaymentExecuted, payments[2].Status)

	assert.Len(t, logger.GetEntriesByLevel("WARN"), 3)
}

func TestImportPayments(t *testing.T) {
	imp, st, _ := newImporter(t, false)
	ctx := context.Background()

	payments := []models.Payment{
		{ID: "pay-1", Amount: 10, Status: models.PaymentPending},
		{ID: "pay-2", Amount: 20, Status: models.PaymentPending},
	}
	require.NoError(t, imp.ImportPayments(ctx, payments))

	stored, err := st.ListPayments(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	err = imp.ImportPayments(ctx, []models.Payment{{ID: "pay-3"}, {ID: "pay-3"}})
	assert.True(t, errors.Is(err, reconerror.ErrInvalidInput))

	err = imp.ImportPayments(ctx, []models.Payment{{ID: ""}})
	assert.True(t, errors.Is(err, reconerror.ErrInvalidInput))
}
