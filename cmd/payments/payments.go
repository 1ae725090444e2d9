// Package payments handles pending payment import and listing
package payments

import (
	"fmt"

	"fjacquet/camt-recon/cmd/common"
	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/importer"

	"github.com/spf13/cobra"
)

var listOnly bool

// Cmd represents the payments command
var Cmd = &cobra.Command{
	Use:   "payments",
	Short: "Import or list payments awaiting confirmation",
	Long: `Import payments from a CSV export of the payment system, or list the stored payments.

The CSV must carry the columns id, amount, beneficiary_name, reference, execution_date
and status. The delimiter comes from import.delimiter.

Example:
  camt-recon payments -i payments.csv
  camt-recon payments --list`,
	RunE: paymentsFunc,
}

func init() {
	Cmd.Flags().BoolVar(&listOnly, "list", false, "List stored payments instead of importing")
}

func paymentsFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}

	if listOnly {
		payments, err := c.GetStore().ListPayments(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing payments: %w", err)
		}
		return common.WriteResult(cmd, payments, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
	}

	if err := common.RequireInput(root.SharedFlags.Input); err != nil {
		return err
	}
	payments, err := importer.LoadPaymentsCSV(root.SharedFlags.Input, c.GetConfig().Delimiter(), root.Log)
	if err != nil {
		return err
	}
	if err := c.GetImporter().ImportPayments(cmd.Context(), payments); err != nil {
		return fmt.Errorf("error importing payments: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d payments\n", len(payments))
	return nil
}
