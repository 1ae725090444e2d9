// Package exceptions lets operators work reconciliation exceptions
package exceptions

import (
	"fmt"

	"fjacquet/camt-recon/cmd/common"
	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconciler"
	"fjacquet/camt-recon/internal/report"

	"github.com/spf13/cobra"
)

var (
	filterStatus    string
	filterSeverity  string
	filterType      string
	filterStatement string
	csvExport       string

	note string

	createInput reconciler.ExceptionInput
)

// Cmd represents the exceptions command
var Cmd = &cobra.Command{
	Use:   "exceptions",
	Short: "List and work reconciliation exceptions",
	Long: `List reconciliation exceptions and move them through their lifecycle:
open -> investigating -> resolved | ignored.

Example:
  camt-recon exceptions list --status open --severity high
  camt-recon exceptions resolve <id> --note "booked manually" --actor ops-1`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List exceptions",
	RunE:  listFunc,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <exception-id>",
	Short: "Resolve an open or investigating exception",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, func(svc *reconciler.Service) (*models.ReconciliationException, error) {
			return svc.ResolveException(cmd.Context(), args[0], note, root.ActorID())
		})
	},
}

var investigateCmd = &cobra.Command{
	Use:   "investigate <exception-id>",
	Short: "Start investigating an open exception",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, func(svc *reconciler.Service) (*models.ReconciliationException, error) {
			return svc.InvestigateException(cmd.Context(), args[0], root.ActorID())
		})
	},
}

var ignoreCmd = &cobra.Command{
	Use:   "ignore <exception-id>",
	Short: "Ignore an exception that needs no action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, func(svc *reconciler.Service) (*models.ReconciliationException, error) {
			return svc.IgnoreException(cmd.Context(), args[0], note, root.ActorID())
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Raise an exception by hand",
	RunE:  createFunc,
}

func init() {
	listCmd.Flags().StringVar(&filterStatus, "status", "", "Filter by status (open, investigating, resolved, ignored)")
	listCmd.Flags().StringVar(&filterSeverity, "severity", "", "Filter by severity (low, medium, high)")
	listCmd.Flags().StringVar(&filterType, "type", "", "Filter by exception type")
	listCmd.Flags().StringVar(&filterStatement, "statement", "", "Filter by statement id")
	listCmd.Flags().StringVar(&csvExport, "csv", "", "Also export the listed exceptions to this CSV file")

	resolveCmd.Flags().StringVar(&note, "note", "", "Resolution note (required)")
	ignoreCmd.Flags().StringVar(&note, "note", "", "Reason for ignoring (required)")

	createCmd.Flags().StringVar((*string)(&createInput.Type), "type", "", "Exception type (required)")
	createCmd.Flags().StringVar(&createInput.Description, "description", "", "Description (required)")
	createCmd.Flags().StringVar((*string)(&createInput.Severity), "severity", "", "Severity (default medium)")
	createCmd.Flags().StringVar(&createInput.StatementID, "statement", "", "Related statement id")
	createCmd.Flags().StringVar(&createInput.PaymentID, "payment", "", "Related payment id")
	createCmd.Flags().StringVar(&createInput.TransactionID, "transaction", "", "Related transaction id")

	Cmd.AddCommand(listCmd, resolveCmd, investigateCmd, ignoreCmd, createCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	filter := models.ExceptionFilter{
		StatementID: filterStatement,
		Status:      models.ExceptionStatus(filterStatus),
		Severity:    models.ExceptionSeverity(filterSeverity),
		Type:        models.ExceptionType(filterType),
	}
	exceptions, err := c.GetReconciler().ListExceptions(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("error listing exceptions: %w", err)
	}
	if csvExport != "" {
		if err := report.NewGenerator(root.Log).ExportExceptionsCSV(exceptions, csvExport, c.GetConfig().Delimiter()); err != nil {
			return fmt.Errorf("error exporting exceptions: %w", err)
		}
	}
	return common.WriteResult(cmd, exceptions, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}

func transition(cmd *cobra.Command, apply func(svc *reconciler.Service) (*models.ReconciliationException, error)) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	exc, err := apply(c.GetReconciler())
	if err != nil {
		return fmt.Errorf("error updating exception: %w", err)
	}
	return common.WriteResult(cmd, exc, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}

func createFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	exc, err := c.GetReconciler().CreateException(cmd.Context(), createInput, root.ActorID())
	if err != nil {
		return fmt.Errorf("error creating exception: %w", err)
	}
	return common.WriteResult(cmd, exc, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}
