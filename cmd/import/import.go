// Package importcmd handles statement import
package importcmd

import (
	"fmt"

	"fjacquet/camt-recon/cmd/common"
	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/importer"
	"fjacquet/camt-recon/internal/logging"

	"github.com/spf13/cobra"
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement",
	Long: `Import a bank statement document (YAML or JSON) into the ledger.

The statement is stored with status "imported" and waits for reconciliation.

Example:
  camt-recon import -i statement.yaml`,
	RunE: importFunc,
}

func importFunc(cmd *cobra.Command, args []string) error {
	if err := common.RequireInput(root.SharedFlags.Input); err != nil {
		return err
	}
	c, err := root.GetContainer()
	if err != nil {
		return err
	}

	in, err := importer.LoadStatementFile(root.SharedFlags.Input)
	if err != nil {
		return err
	}
	stmt, err := c.GetImporter().ImportStatement(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("error importing statement: %w", err)
	}

	root.Log.Info("Statement imported",
		logging.F(logging.FieldStatementID, stmt.ID),
		logging.F(logging.FieldInputFile, root.SharedFlags.Input))
	return common.WriteResult(cmd, stmt, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}
