package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
)

var (
	organizeDryRun bool
	organizeWatch  bool
	fixMisplaced   bool
	inventoryOut   string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Export signed notes to the archive inbox",
	Long: `Exports every note document as PDF into the archive inbox and moves
the source document to the bin once the upload succeeds.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "File inbox notes into patient folders",
	Long: `Moves each PDF in the archive inbox into the folder of the patient
named in its filename, creating the folder when none matches.
With --watch, keeps running and files notes as they arrive in a local inbox.`,
	Args: cobra.NoArgs,
	RunE: runOrganize,
}

var fixMisplacedCmd = &cobra.Command{
	Use:   "fix-misplaced",
	Short: "Find notes filed under the wrong patient",
	Long: `Lists archived notes whose filename belongs to a different patient
folder. With --fix, moves them to the expected folder.`,
	Args: cobra.NoArgs,
	RunE: runFixMisplaced,
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Write an inventory of the patient archive",
	Long: `Lists every note in the patient folders and writes the inventory to
the spreadsheet, or to a local workbook with --out.`,
	Args: cobra.NoArgs,
	RunE: runInventory,
}

func init() {
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false, "report moves without making them")
	organizeCmd.Flags().BoolVar(&organizeWatch, "watch", false, "keep filing notes as they arrive")
	fixMisplacedCmd.Flags().BoolVar(&fixMisplaced, "fix", false, "move misplaced notes")
	inventoryCmd.Flags().StringVar(&inventoryOut, "out", "", "write to this .xlsx file instead of the spreadsheet")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(fixMisplacedCmd)
	rootCmd.AddCommand(inventoryCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	if filer == nil {
		return errors.New("filing service not configured")
	}

	s, err := filer.Publish(cmd.Context())
	if s != nil {
		cmd.Printf("Uploaded %d, already present %d, moved to bin %d, failed %d.\n",
			s.Uploaded, s.Existing, s.Trashed, s.Failed)
	}
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

func runOrganize(cmd *cobra.Command, _ []string) error {
	if filer == nil {
		return errors.New("filing service not configured")
	}

	if organizeWatch {
		if inboxWatch == nil {
			return errors.New("--watch needs a local archive")
		}
		cmd.Println("Watching the inbox. Press Ctrl+C to stop.")
		err := inboxWatch(cmd.Context())
		if errors.Is(err, cmd.Context().Err()) {
			return nil
		}
		return err
	}

	s, err := filer.Organize(cmd.Context(), organizeDryRun)
	if s != nil {
		renderFiling(cmd.OutOrStdout(), s, organizeDryRun)
	}
	if err != nil {
		return fmt.Errorf("organize failed: %w", err)
	}
	return nil
}

func runFixMisplaced(cmd *cobra.Command, _ []string) error {
	if filer == nil {
		return errors.New("filing service not configured")
	}
	ctx := cmd.Context()

	files, err := filer.FindMisplaced(ctx)
	if err != nil {
		return fmt.Errorf("scan archive: %w", err)
	}
	if len(files) == 0 {
		cmd.Println("No misplaced notes found.")
		return nil
	}
	for _, f := range files {
		cmd.Printf("%s: in %q, expected %q\n", f.Path, f.CurrentFolder, f.ExpectedFolder)
	}
	if !fixMisplaced {
		cmd.Printf("%d misplaced notes. Run with --fix to move them.\n", len(files))
		return nil
	}

	s, err := filer.FixMisplaced(ctx, files)
	if s != nil {
		renderFiling(cmd.OutOrStdout(), s, false)
	}
	if err != nil {
		return fmt.Errorf("fix misplaced: %w", err)
	}
	return nil
}

func runInventory(cmd *cobra.Command, _ []string) error {
	if filer == nil {
		return errors.New("filing service not configured")
	}

	var w driven.InventoryWriter
	switch {
	case inventoryOut != "" && inventoryFile != nil:
		w = inventoryFile(inventoryOut)
	case inventoryOut == "" && inventorySheet != nil:
		w = inventorySheet
	default:
		return errors.New("inventory output not configured")
	}

	rows, err := filer.Inventory(cmd.Context())
	if err != nil {
		return fmt.Errorf("build inventory: %w", err)
	}
	if err := w.WriteInventory(cmd.Context(), rows); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	cmd.Printf("Wrote %d notes to the inventory.\n", len(rows))
	return nil
}
