package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"toiler/internal/db"
)

var showCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project with its tasks and top activities",
	Long: `Show a project tree: each task with its first activities by id. The number of
activities per task is schedule.top_activity_limit.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.store.IsAuthorized(ctx, user, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return db.ErrNotFound
	}
	ids, err := a.index.ActivityIDs(ctx, projectID)
	if err != nil {
		return err
	}
	project, err := a.store.ProjectTree(ctx, projectID, ids)
	if err != nil {
		return err
	}
	formatter().Project(project)
	return nil
}
