// Package reconcile runs reconciliation of imported statements
package reconcile

import (
	"fmt"

	"fjacquet/camt-recon/cmd/common"
	"fjacquet/camt-recon/cmd/root"

	"github.com/spf13/cobra"
)

var all bool

// Cmd represents the reconcile command
var Cmd = &cobra.Command{
	Use:   "reconcile [statement-id]",
	Short: "Reconcile a statement against pending payments",
	Long: `Reconcile one imported statement, or every statement still waiting with --all,
and print the resulting reconciliation report.

Example:
  camt-recon reconcile 7f1c2d9e-0a3b-4c55-9d1e-6b8f0e2a4c71
  camt-recon reconcile --all -f yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: reconcileFunc,
}

func init() {
	Cmd.Flags().BoolVar(&all, "all", false, "Reconcile every statement in status imported")
}

func reconcileFunc(cmd *cobra.Command, args []string) error {
	if all == (len(args) == 1) {
		return fmt.Errorf("specify exactly one of a statement id or --all")
	}
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	svc := c.GetReconciler()

	if all {
		reports, err := svc.ProcessImported(cmd.Context())
		if writeErr := common.WriteResult(cmd, reports, root.SharedFlags.Output, root.SharedFlags.Format, root.Log); writeErr != nil {
			return writeErr
		}
		return err
	}

	report, err := svc.ProcessStatement(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("error reconciling statement %s: %w", args[0], err)
	}
	return common.WriteResult(cmd, report, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}
