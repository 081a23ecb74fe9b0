package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

var reportList int

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show a stored extraction report",
	Long: `Shows the report of the latest extraction run, or of the run given by ID.
With --list, prints the most recent runs instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportList, "list", 0, "list the N most recent runs")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportReader == nil {
		return errors.New("report service not configured")
	}
	ctx := cmd.Context()

	if reportList > 0 {
		runs, err := reportReader.List(ctx, reportList)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		renderRuns(cmd.OutOrStdout(), runs)
		return nil
	}

	var (
		snap *domain.ReportSnapshot
		err  error
	)
	if len(args) > 0 {
		snap, err = reportReader.Get(ctx, args[0])
	} else {
		snap, err = reportReader.Latest(ctx)
	}
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No report found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	renderReport(cmd.OutOrStdout(), snap)
	return nil
}
