package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <project-id>",
	Short: "Auto-schedule a project (manager only)",
	Long: `Re-time every activity of the project from its planned start, following
dependencies and keeping durations, then widen each task to cover its activities
and the project horizon. Changes are published to the notifier.`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Schedule.Timeout)
	defer cancel()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.engine.Trigger(ctx, user, projectID)
	if err != nil {
		return err
	}
	formatter().Schedule(report)
	return nil
}
