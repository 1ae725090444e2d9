// Package common contains shared functionality for command handlers
package common

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/report"

	"github.com/spf13/cobra"
)

// WriteResult encodes v in format and writes it to outputFile, or to the
// command's stdout when outputFile is empty.
func WriteResult(cmd *cobra.Command, v interface{}, outputFile, format string, log logging.Logger) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	generator := report.NewGenerator(log)

	if outputFile == "" {
		return generator.Write(cmd.OutOrStdout(), v, f)
	}

	out, err := generator.Generate(v, f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, out, 0600); err != nil {
		return fmt.Errorf("failed to write result to file %s: %w", outputFile, err)
	}
	log.Info("Result written to file", logging.F(logging.FieldOutputFile, outputFile))
	return nil
}

// RequireInput fails when a command that reads a file was given none.
func RequireInput(input string) error {
	if input == "" {
		return fmt.Errorf("an input file must be specified with --input")
	}
	return nil
}
