package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily workflow once",
	Long:  `Extracts notes, signs finished documents, publishes them and files the inbox.`,
	Args:  cobra.NoArgs,
	RunE:  runDaily,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily workflow on the configured schedule",
	Long: `Stays in the foreground and runs the daily workflow at each activation
of the configured cron schedule until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var scheduleHistory int

func init() {
	scheduleCmd.Flags().IntVar(&scheduleHistory, "history", 0, "show the last N scheduled runs and exit")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	if workflow == nil {
		return errors.New("workflow service not configured")
	}
	if err := workflow.RunDaily(cmd.Context()); err != nil {
		return fmt.Errorf("daily workflow: %w", err)
	}
	cmd.Println("Daily workflow complete.")
	return nil
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	ctx := cmd.Context()

	if scheduleHistory > 0 {
		history, err := scheduler.History(ctx, scheduleHistory)
		if err != nil {
			return fmt.Errorf("schedule history: %w", err)
		}
		renderHistory(cmd.OutOrStdout(), history)
		return nil
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err := scheduler.Start(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		cmd.Println("Scheduler stopped.")
		return nil
	}
	return err
}
