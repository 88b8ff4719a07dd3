package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"toiler/internal/activity"
)

var (
	activityStart       string
	activityEnd         string
	activityDuration    time.Duration
	activityAfter       uint
	activityState       uint
	activityAssign      []uint
	activityDescription string
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Activity management",
}

var activityAddCmd = &cobra.Command{
	Use:   "add <task-id> <name>",
	Short: "Create an activity",
	Long: `Create an activity in a task. The planned window is --start plus either --end
or --duration. Without --start the activity starts at the task's planned start.`,
	Args: cobra.ExactArgs(2),
	RunE: runActivityAdd,
}

var activityRmCmd = &cobra.Command{
	Use:   "rm <activity-id>",
	Short: "Delete an activity and every activity depending on it",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivityRm,
}

var activityDepCmd = &cobra.Command{
	Use:   "dep <activity-id> <dependency-id|none>",
	Short: "Set or clear the dependency of an activity",
	Long: `Make the first activity start after the second one finishes.
Pass "none" to clear the dependency. Edges that would form a cycle are rejected.`,
	Args: cobra.ExactArgs(2),
	RunE: runActivityDep,
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityAddCmd, activityRmCmd, activityDepCmd)

	activityAddCmd.Flags().StringVar(&activityStart, "start", "", "Planned start (YYYY-MM-DD or RFC3339)")
	activityAddCmd.Flags().StringVar(&activityEnd, "end", "", "Planned end (YYYY-MM-DD or RFC3339)")
	activityAddCmd.Flags().DurationVar(&activityDuration, "duration", 0, "Planned duration, e.g. 48h")
	activityAddCmd.Flags().UintVar(&activityAfter, "after", 0, "Activity id this one depends on")
	activityAddCmd.Flags().UintVar(&activityState, "state", 0, "State id")
	activityAddCmd.Flags().UintSliceVar(&activityAssign, "assign", nil, "Assignee user ids")
	activityAddCmd.Flags().StringVarP(&activityDescription, "description", "d", "", "Description")
}

func runActivityAdd(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	taskID, err := parseID(args[0], "task")
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	in := activity.Input{
		TaskID:      taskID,
		Name:        args[1],
		Description: activityDescription,
		Assignees:   activityAssign,
	}
	if activityStart != "" {
		if in.PlannedStartDate, err = parseTime(activityStart); err != nil {
			return err
		}
	} else {
		task, err := a.store.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("task %d: %w", taskID, err)
		}
		in.PlannedStartDate = task.PlannedStartDate
	}
	switch {
	case activityEnd != "":
		if in.PlannedEndDate, err = parseTime(activityEnd); err != nil {
			return err
		}
	case activityDuration > 0:
		in.PlannedEndDate = in.PlannedStartDate.Add(activityDuration)
	default:
		return fmt.Errorf("--end or --duration is required")
	}
	if activityAfter != 0 {
		in.DependencyID = &activityAfter
	}
	if activityState != 0 {
		in.StateID = &activityState
	}

	created, err := a.activities.Create(ctx, user, in)
	if err != nil {
		return err
	}
	formatter().Activity(created)
	return nil
}

func runActivityRm(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	activityID, err := parseID(args[0], "activity")
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.activities.Delete(ctx, user, activityID)
	if err != nil {
		return err
	}
	if IsJSONOutput() {
		OutputJSON(map[string]interface{}{"deleted": ids})
		return nil
	}
	fmt.Printf("Deleted %d activities: %v\n", len(ids), ids)
	return nil
}

// parseDependency maps "none" to nil
func parseDependency(s string) (*uint, error) {
	if strings.EqualFold(s, "none") || s == "-" {
		return nil, nil
	}
	id, err := parseID(s, "dependency")
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func runActivityDep(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	activityID, err := parseID(args[0], "activity")
	if err != nil {
		return err
	}
	dependency, err := parseDependency(args[1])
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	updated, err := a.activities.SetDependency(ctx, user, activityID, dependency)
	if err != nil {
		return err
	}
	formatter().Activity(updated)
	return nil
}
