package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"toiler/internal/db"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <project-id>",
	Short: "List recent schedule runs of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}

	ctx := context.Background()
	store := db.NewStore(db.GetDB())
	if _, err := store.GetProject(ctx, projectID); err != nil {
		return err
	}
	runs, err := store.ListScheduleRuns(ctx, projectID, historyLimit)
	if err != nil {
		return err
	}
	formatter().Runs(runs)
	return nil
}
