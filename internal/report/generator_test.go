package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *models.ReconciliationReport {
	generated := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &models.ReconciliationReport{
		ID:          "rep-1",
		StatementID: "stmt-1",
		Period:      models.Period{Start: generated.Add(-24 * time.Hour), End: generated},
		Summary: models.ReportSummary{
			TotalPayments:      2,
			TotalTransactions:  2,
			MatchedPayments:    1,
			ReconciliationRate: 50,
			MatchedAmount:      models.NewMoney(decimal.RequireFromString("1500.50"), "CHF"),
			UnmatchedAmount:    models.NewMoney(decimal.RequireFromString("250.00"), "CHF"),
		},
		Matches: []models.ReconciliationMatch{{
			PaymentID:     "pay-1",
			TransactionID: "tx-1",
			Confidence:    1,
			MatchType:     models.MatchExact,
		}},
		Exceptions: []models.ReconciliationException{{
			ID:       "exc-1",
			Type:     models.ExceptionUnmatchedTransaction,
			Severity: models.SeverityLow,
			Status:   models.ExceptionOpen,
		}},
		GeneratedAt: generated,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "", want: FormatJSON},
		{input: "JSON", want: FormatJSON},
		{input: "yaml", want: FormatYAML},
		{input: "yml", want: FormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerator_Generate_JSON(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())

	out, err := generator.Generate(sampleReport(), FormatJSON)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "rep-1", decoded["id"])
	summary := decoded["summary"].(map[string]interface{})
	assert.Equal(t, "1500.5", summary["matched_amount"].(map[string]interface{})["amount"])
	assert.Len(t, decoded["matches"], 1)
}

func TestGenerator_Generate_YAML(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())

	out, err := generator.Generate(sampleReport(), FormatYAML)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "stmt-1", decoded["statement_id"])
	assert.Contains(t, string(out), "match_type: exact")
}

func TestGenerator_UnsupportedFormat(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())
	_, err := generator.Generate(sampleReport(), Format("xml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}

func TestGenerator_Write(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())
	var buf bytes.Buffer
	require.NoError(t, generator.Write(&buf, models.Statistics{TotalStatements: 3}, FormatJSON))
	assert.Contains(t, buf.String(), `"total_statements": 3`)
}

func TestGenerator_ExportExceptionsCSV(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())
	resolvedAt := time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)
	exceptions := []models.ReconciliationException{
		{
			ID:          "exc-1",
			StatementID: "stmt-1",
			Type:        models.ExceptionUnmatchedPayment,
			Severity:    models.SeverityHigh,
			Status:      models.ExceptionResolved,
			PaymentID:   "pay-9",
			Description: "Payment not found on statement",
			CreatedAt:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			ResolvedAt:  &resolvedAt,
			ResolvedBy:  "ops-1",
			Resolution:  "Paid late",
		},
	}

	path := filepath.Join(t.TempDir(), "exceptions.csv")
	require.NoError(t, generator.ExportExceptionsCSV(exceptions, path, ';'))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id;statement_id;type;severity"))
	assert.Contains(t, lines[1], "exc-1;stmt-1;unmatched_payment;high;resolved;pay-9")
	assert.Contains(t, lines[1], "2024-01-17;ops-1;Paid late")
}
