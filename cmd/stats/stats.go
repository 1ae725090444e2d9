// Package stats reports reconciliation statistics
package stats

import (
	"fmt"
	"time"

	"fjacquet/camt-recon/cmd/common"
	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/dateutils"
	"fjacquet/camt-recon/internal/models"

	"github.com/spf13/cobra"
)

var (
	since string
	from  string
	to    string
)

// Cmd represents the stats command
var Cmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reconciliation statistics",
	Long: `Show statistics computed from the ledger: statements processed, match rates,
exceptions raised and resolved, and average processing time.

Example:
  camt-recon stats --since 2024-01-01`,
	RunE: statsFunc,
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List reconciliation reports generated within a period",
	Long: `List the persisted reconciliation reports whose generation time falls within [from, to].

Example:
  camt-recon stats reports --from 2024-03-01 --to 2024-03-31`,
	RunE: reportsFunc,
}

func init() {
	Cmd.Flags().StringVar(&since, "since", "", "Start of the window (default: 30 days ago)")
	reportsCmd.Flags().StringVar(&from, "from", "", "Start of the period (default: 30 days ago)")
	reportsCmd.Flags().StringVar(&to, "to", "", "End of the period (default: now)")
	Cmd.AddCommand(reportsCmd)
}

func parseOr(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, _, err := dateutils.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t.UTC(), nil
}

func statsFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	start, err := parseOr(since, time.Now().UTC().Add(-30*dateutils.Day))
	if err != nil {
		return err
	}
	stats, err := c.GetReconciler().Statistics(cmd.Context(), start)
	if err != nil {
		return fmt.Errorf("error computing statistics: %w", err)
	}
	return common.WriteResult(cmd, stats, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}

func reportsFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	start, err := parseOr(from, now.Add(-30*dateutils.Day))
	if err != nil {
		return err
	}
	end, err := parseOr(to, now)
	if err != nil {
		return err
	}
	reports, err := c.GetReconciler().ListReports(cmd.Context(), models.Period{Start: start, End: end})
	if err != nil {
		return fmt.Errorf("error listing reports: %w", err)
	}
	return common.WriteResult(cmd, reports, root.SharedFlags.Output, root.SharedFlags.Format, root.Log)
}
