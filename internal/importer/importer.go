// Package importer turns statement documents and payment files into the
// reconciliation domain and records each import on the audit trail.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/dateutils"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"
	"fjacquet/camt-recon/internal/textutils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementInput is a bank statement as delivered by the statement parser.
type StatementInput struct {
	ID             string             `yaml:"id" json:"id"`
	BankCode       string             `yaml:"bank_code" json:"bank_code"`
	AccountNumber  string             `yaml:"account_number" json:"account_number"`
	StatementDate  string             `yaml:"statement_date" json:"statement_date"`
	OpeningBalance decimal.Decimal    `yaml:"opening_balance" json:"opening_balance"`
	ClosingBalance decimal.Decimal    `yaml:"closing_balance" json:"closing_balance"`
	Currency       string             `yaml:"currency" json:"currency"`
	Transactions   []TransactionInput `yaml:"transactions" json:"transactions"`
}

// TransactionInput is one statement line. Dates accept any dateutils.CommonFormats layout.
type TransactionInput struct {
	ID                  string  `yaml:"id" json:"id"`
	TransactionDate     string  `yaml:"transaction_date" json:"transaction_date"`
	ValueDate           string  `yaml:"value_date" json:"value_date"`
	Amount              float64 `yaml:"amount" json:"amount"`
	Currency            string  `yaml:"currency" json:"currency"`
	Description         string  `yaml:"description" json:"description"`
	Reference           string  `yaml:"reference" json:"reference"`
	CounterpartyName    string  `yaml:"counterparty_name" json:"counterparty_name"`
	CounterpartyAccount string  `yaml:"counterparty_account" json:"counterparty_account"`
	TransactionCode     string  `yaml:"transaction_code" json:"transaction_code"`
}

// StatementRepository is the part of the repository the importer writes to.
type StatementRepository interface {
	SaveStatement(ctx context.Context, s *models.BankStatement) error
	GetStatement(ctx context.Context, id string) (*models.BankStatement, error)
}

// PaymentWriter stores payments handed over by the payment system.
type PaymentWriter interface {
	SavePayments(ctx context.Context, payments []models.Payment) error
}

// Options tunes an Importer.
type Options struct {
	// InferReferences fills a missing reference or counterparty from the description.
	InferReferences bool
	// Actor is recorded on audit records.
	Actor string
	// Now stamps ImportedAt; defaults to time.Now.
	Now func() time.Time
}

// Importer validates and stores statements and payments.
type Importer struct {
	statements StatementRepository
	payments   PaymentWriter
	sink       audit.Sink
	logger     logging.Logger
	opts       Options
}

// New creates an Importer.
func New(statements StatementRepository, payments PaymentWriter, sink audit.Sink, logger logging.Logger, opts Options) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Actor == "" {
		opts.Actor = "SYSTEM"
	}
	return &Importer{
		statements: statements,
		payments:   payments,
		sink:       sink,
		logger:     logger.WithField(logging.FieldComponent, "importer"),
		opts:       opts,
	}
}

// ImportStatement validates in, stores it as an imported statement with fresh
// match fields and emits BANK_STATEMENT_IMPORTED.
func (i *Importer) ImportStatement(ctx context.Context, in StatementInput) (*models.BankStatement, error) {
	stmt, err := i.BuildStatement(in)
	if err != nil {
		return nil, err
	}

	if _, err := i.statements.GetStatement(ctx, stmt.ID); err == nil {
		return nil, &reconerror.InputError{Field: "statement id", Reason: "statement " + stmt.ID + " already imported"}
	} else if !errors.Is(err, reconerror.ErrNotFound) {
		return nil, fmt.Errorf("failed to check statement %s: %w", stmt.ID, err)
	}

	if err := i.statements.SaveStatement(ctx, stmt); err != nil {
		return nil, fmt.Errorf("failed to save statement %s: %w", stmt.ID, err)
	}

	movement, err := stmt.ClosingBalance.Sub(stmt.OpeningBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance movement: %w", err)
	}
	if err := i.sink.Emit(ctx, audit.NewRecord(audit.ActionStatementImported, "statement", stmt.ID, i.opts.Actor, stmt.ImportedAt, audit.Payload{
		"bank_code":         stmt.BankCode,
		"account_number":    stmt.AccountNumber,
		"transaction_count": len(stmt.Transactions),
		"balance_movement":  movement.Amount.StringFixed(2),
		"currency":          stmt.Currency,
	})); err != nil {
		return nil, fmt.Errorf("statement %s imported but audit emission failed: %w", stmt.ID, err)
	}

	i.logger.Info("Imported bank statement",
		logging.F(logging.FieldStatementID, stmt.ID),
		logging.F(logging.FieldCount, len(stmt.Transactions)))
	return stmt, nil
}

// BuildStatement converts and validates in without storing it.
func (i *Importer) BuildStatement(in StatementInput) (*models.BankStatement, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := reconerror.Required("currency", currency); err != nil {
		return nil, err
	}
	statementDate, _, err := dateutils.ParseDate(in.StatementDate)
	if err != nil {
		return nil, &reconerror.InputError{Field: "statement date", Reason: err.Error()}
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	stmt := &models.BankStatement{
		ID:             id,
		BankCode:       strings.TrimSpace(in.BankCode),
		AccountNumber:  strings.TrimSpace(in.AccountNumber),
		StatementDate:  statementDate.UTC(),
		OpeningBalance: models.NewMoney(in.OpeningBalance, currency),
		ClosingBalance: models.NewMoney(in.ClosingBalance, currency),
		Currency:       currency,
		Status:         models.StatementImported,
		ImportedAt:     i.opts.Now().UTC(),
		Transactions:   make([]models.BankTransaction, 0, len(in.Transactions)),
	}

	seen := make(map[string]bool, len(in.Transactions))
	for n, t := range in.Transactions {
		tx, err := i.buildTransaction(t, currency)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", n+1, err)
		}
		if seen[tx.ID] {
			return nil, &reconerror.InputError{Field: "transaction id", Reason: "duplicate id " + tx.ID}
		}
		seen[tx.ID] = true
		stmt.Transactions = append(stmt.Transactions, tx)
	}
	return stmt, nil
}

func (i *Importer) buildTransaction(t TransactionInput, currency string) (models.BankTransaction, error) {
	if !models.IsFiniteAmount(t.Amount) {
		return models.BankTransaction{}, &reconerror.InputError{Field: "amount", Reason: "must be a finite number"}
	}

	id := strings.TrimSpace(t.ID)
	if id == "" {
		id = uuid.NewString()
	}
	tx := models.BankTransaction{
		ID:                  id,
		Amount:              t.Amount,
		Currency:            strings.ToUpper(strings.TrimSpace(t.Currency)),
		Description:         strings.TrimSpace(t.Description),
		Reference:           strings.TrimSpace(t.Reference),
		CounterpartyName:    strings.TrimSpace(t.CounterpartyName),
		CounterpartyAccount: strings.TrimSpace(t.CounterpartyAccount),
		TransactionCode:     strings.TrimSpace(t.TransactionCode),
	}
	if tx.Currency == "" {
		tx.Currency = currency
	}

	// An unparseable date is kept as zero: scoring reports it per pair.
	tx.TransactionDate = i.parseDate(t.TransactionDate, id, "transaction_date")
	valueDate := t.ValueDate
	if strings.TrimSpace(valueDate) == "" {
		valueDate = t.TransactionDate
	}
	tx.ValueDate = i.parseDate(valueDate, id, "value_date")

	if i.opts.InferReferences {
		if tx.Reference == "" {
			tx.Reference = textutils.ExtractReference(tx.Description)
		}
		if tx.CounterpartyName == "" {
			tx.CounterpartyName = textutils.ExtractPayee(tx.Description)
		}
	}
	return tx, nil
}

func (i *Importer) parseDate(value, id, field string) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	t, _, err := dateutils.ParseDate(value)
	if err != nil {
		i.logger.Warn("Unparseable date kept empty",
			logging.F(logging.FieldTransactionID, id),
			logging.F("field", field),
			logging.F("value", value))
		return time.Time{}
	}
	return t.UTC()
}

// ImportPayments stores payments after checking their ids.
func (i *Importer) ImportPayments(ctx context.Context, payments []models.Payment) error {
	seen := make(map[string]bool, len(payments))
	for _, p := range payments {
		if err := reconerror.Required("payment id", p.ID); err != nil {
			return err
		}
		if seen[p.ID] {
			return &reconerror.InputError{Field: "payment id", Reason: "duplicate id " + p.ID}
		}
		seen[p.ID] = true
	}
	if err := i.payments.SavePayments(ctx, payments); err != nil {
		return fmt.Errorf("failed to save payments: %w", err)
	}
	i.logger.Info("Imported payments", logging.F(logging.FieldCount, len(payments)))
	return nil
}
