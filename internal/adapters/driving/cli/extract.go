package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
)

var (
	extractStartRow int
	extractDryRun   bool
	extractNoNotify bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Copy treatment notes into the appointment sheet",
	Long: `Reads appointment rows from the sheet, finds each patient's documents
and writes the note dated for the appointment into the notes column.
The run report is stored and emailed to the practice.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&extractStartRow, "start-row", 0, "first sheet row to process (default from config)")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "find notes without writing them to the sheet or sending the report")
	extractCmd.Flags().BoolVar(&extractNoNotify, "no-notify", false, "do not email the run report")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if extractor == nil {
		return errors.New("extraction service not configured")
	}

	snap, err := extractor.Run(cmd.Context(), driving.ExtractOptions{
		StartRow:   extractStartRow,
		DryRun:     extractDryRun,
		SkipNotify: extractNoNotify || extractDryRun,
	})
	if snap != nil {
		renderReport(cmd.OutOrStdout(), snap)
	}
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return nil
}
