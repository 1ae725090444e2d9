package importer

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"fjacquet/camt-recon/internal/common"
	"fjacquet/camt-recon/internal/dateutils"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// LoadStatementFile reads a statement document. YAML and JSON are both accepted.
func LoadStatementFile(path string) (StatementInput, error) {
	var in StatementInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("error reading statement file: %w", err)
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("error parsing statement file %s: %w", path, err)
	}
	return in, nil
}

// paymentRow is one line of a payment export.
type paymentRow struct {
	ID              string `csv:"id"`
	Amount          string `csv:"amount"`
	BeneficiaryName string `csv:"beneficiary_name"`
	Reference       string `csv:"reference"`
	ExecutionDate   string `csv:"execution_date"`
	Status          string `csv:"status"`
}

// LoadPaymentsCSV reads payments from a CSV export with the columns
// id, amount, beneficiary_name, reference, execution_date and status.
// Malformed amounts become NaN and malformed dates zero so that the affected
// payments surface as scoring failures rather than aborting the import.
func LoadPaymentsCSV(path string, delimiter rune, logger logging.Logger) ([]models.Payment, error) {
	rows, err := common.ReadCSVFile[paymentRow](path, delimiter, logger)
	if err != nil {
		return nil, err
	}

	payments := make([]models.Payment, 0, len(rows))
	for n, row := range rows {
		id := strings.TrimSpace(row.ID)
		if id == "" {
			logger.Warn("Skipping payment row without id", logging.F("row", n+2))
			continue
		}
		p := models.Payment{
			ID:              id,
			Amount:          parseAmount(row.Amount),
			BeneficiaryName: strings.TrimSpace(row.BeneficiaryName),
			Reference:       strings.TrimSpace(row.Reference),
			Status:          parseStatus(row.Status),
		}
		if !models.IsFiniteAmount(p.Amount) {
			logger.Warn("Malformed payment amount", logging.F(logging.FieldPaymentID, id), logging.F("value", row.Amount))
		}
		if d, _, err := dateutils.ParseDate(row.ExecutionDate); err == nil {
			p.ExecutionDate = d.UTC()
		} else {
			p.ExecutionDate = time.Time{}
			logger.Warn("Malformed payment execution date", logging.F(logging.FieldPaymentID, id), logging.F("value", row.ExecutionDate))
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// parseAmount accepts "1'500.00", "1 500.00" and "-12.5"; anything else is NaN.
func parseAmount(s string) float64 {
	clean := strings.NewReplacer("'", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return math.NaN()
	}
	f, _ := d.Float64()
	return f
}

func parseStatus(s string) models.PaymentStatus {
	switch models.PaymentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case models.PaymentMatched:
		return models.PaymentMatched
	case models.PaymentExecuted:
		return models.PaymentExecuted
	case models.PaymentCancelled:
		return models.PaymentCancelled
	default:
		return models.PaymentPending
	}
}
