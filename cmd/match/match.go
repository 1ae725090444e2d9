// Package match records operator matches
package match

import (
	"fmt"

	"fjacquet/camt-recon/cmd/common"
	"fjacquet/camt-recon/cmd/root"

	"github.com/spf13/cobra"
)

var (
	paymentID     string
	transactionID string
)

// Cmd represents the match command
var Cmd = &cobra.Command{
	Use:   "match",
	Short: "Record a manual match between a payment and a transaction",
	Long: `Record an operator match between a payment and a bank transaction that the
automatic run left unmatched. The match carries confidence 1.0 and type "manual".

Example:
  camt-recon match --payment pay-9 --transaction tx-2 --actor ops-1`,
	RunE: matchFunc,
}

func init() {
	Cmd.Flags().StringVar(&paymentID, "payment", "", "Payment id")
	Cmd.Flags().StringVar(&transactionID, "transaction", "", "Bank transaction id")
}

func matchFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	mm, err := c.GetReconciler().CreateManualMatch(cmd.Context(), paymentID, transactionID, root.ActorID())
	if err != nil {
		return fmt.Errorf("error creating manual match: %w", err)
	}
	return common.WriteResult(cmd, mm, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}
