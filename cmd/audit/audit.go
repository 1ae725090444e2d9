// Package audit prints the audit trail
package audit

import (
	"fmt"

	"fjacquet/camt-recon/cmd/common"
	"fjacquet/camt-recon/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the audit command
var Cmd = &cobra.Command{
	Use:   "audit [entity-id]",
	Short: "Show the audit trail",
	Long: `Show the audit records of one statement, exception or transaction, or the whole
trail when no id is given.

Example:
  camt-recon audit 7f1c2d9e-0a3b-4c55-9d1e-6b8f0e2a4c71`,
	Args: cobra.MaximumNArgs(1),
	RunE: auditFunc,
}

func auditFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	entityID := ""
	if len(args) == 1 {
		entityID = args[0]
	}
	records, err := c.GetStore().AuditTrail(cmd.Context(), entityID)
	if err != nil {
		return fmt.Errorf("error reading audit trail: %w", err)
	}
	return common.WriteResult(cmd, records, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}
