// Package report renders reconciliation reports, exceptions and statistics for operators.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fjacquet/camt-recon/internal/common"
	"fjacquet/camt-recon/internal/dateutils"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of Generator output.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", s)
	}
}

// Generator encodes report values. The encoding is a plain marshal of the value.
type Generator struct {
	logger logging.Logger
}

// NewGenerator creates a new instance of Generator.
func NewGenerator(logger logging.Logger) *Generator {
	return &Generator{
		logger: logger.WithField(logging.FieldComponent, "report"),
	}
}

// Generate returns v encoded in format.
func (g *Generator) Generate(v interface{}, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal JSON report")
			return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal YAML report")
			return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// Write encodes v to w.
func (g *Generator) Write(w io.Writer, v interface{}, format Format) error {
	out, err := g.Generate(v, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// exceptionRow is the CSV shape of an exception.
type exceptionRow struct {
	ID            string `csv:"id"`
	StatementID   string `csv:"statement_id"`
	Type          string `csv:"type"`
	Severity      string `csv:"severity"`
	Status        string `csv:"status"`
	PaymentID     string `csv:"payment_id"`
	TransactionID string `csv:"transaction_id"`
	Description   string `csv:"description"`
	CreatedAt     string `csv:"created_at"`
	ResolvedAt    string `csv:"resolved_at"`
	ResolvedBy    string `csv:"resolved_by"`
	Resolution    string `csv:"resolution"`
}

// ExportExceptionsCSV writes exceptions to a CSV file for the operations team.
func (g *Generator) ExportExceptionsCSV(exceptions []models.ReconciliationException, path string, delimiter rune) error {
	rows := make([]exceptionRow, 0, len(exceptions))
	for _, e := range exceptions {
		row := exceptionRow{
			ID:            e.ID,
			StatementID:   e.StatementID,
			Type:          string(e.Type),
			Severity:      string(e.Severity),
			Status:        string(e.Status),
			PaymentID:     e.PaymentID,
			TransactionID: e.TransactionID,
			Description:   e.Description,
			CreatedAt:     dateutils.ToISODate(e.CreatedAt),
			ResolvedBy:    e.ResolvedBy,
			Resolution:    e.Resolution,
		}
		if e.ResolvedAt != nil {
			row.ResolvedAt = dateutils.ToISODate(*e.ResolvedAt)
		}
		rows = append(rows, row)
	}
	return common.WriteCSVFile(rows, path, delimiter, g.logger)
}
