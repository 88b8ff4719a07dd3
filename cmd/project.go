package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"toiler/internal/db"
	"toiler/internal/models"
)

var (
	projectStart       string
	projectEnd         string
	projectManager     uint
	projectDescription string

	taskStart       string
	taskEnd         string
	taskBudget      float64
	taskDescription string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Task management",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <project-id> <name>",
	Short: "Create a task; its window defaults to the project horizon",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskCreate,
}

func init() {
	rootCmd.AddCommand(userCmd, projectCmd, taskCmd)
	userCmd.AddCommand(userAddCmd)
	projectCmd.AddCommand(projectCreateCmd)
	taskCmd.AddCommand(taskCreateCmd)

	projectCreateCmd.Flags().StringVar(&projectStart, "start", "", "Planned start date (YYYY-MM-DD)")
	projectCreateCmd.Flags().StringVar(&projectEnd, "end", "", "Planned end date (YYYY-MM-DD)")
	projectCreateCmd.Flags().UintVar(&projectManager, "manager", 0, "Project manager user id (defaults to --user)")
	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "Description")
	projectCreateCmd.MarkFlagRequired("start")
	projectCreateCmd.MarkFlagRequired("end")

	taskCreateCmd.Flags().StringVar(&taskStart, "start", "", "Planned start (YYYY-MM-DD or RFC3339)")
	taskCreateCmd.Flags().StringVar(&taskEnd, "end", "", "Planned end (YYYY-MM-DD or RFC3339)")
	taskCreateCmd.Flags().Float64Var(&taskBudget, "budget", 0, "Planned budget")
	taskCreateCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Description")
}

// parseTime accepts a calendar date or an RFC3339 timestamp, always in UTC
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, models.DateTimeShortFormat, models.DateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC3339", s)
}

func parseID(s, what string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return uint(id), nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	user := &models.User{Username: args[0]}
	if err := db.NewStore(db.GetDB()).CreateUser(context.Background(), user); err != nil {
		return err
	}
	if IsJSONOutput() {
		OutputJSON(user)
		return nil
	}
	fmt.Printf("Created user %d: %s\n", user.ID, user.Username)
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	start, err := parseTime(projectStart)
	if err != nil {
		return err
	}
	end, err := parseTime(projectEnd)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("--end is before --start")
	}
	manager := projectManager
	if manager == 0 {
		if manager, err = requireUser(); err != nil {
			return fmt.Errorf("--manager or --user is required")
		}
	}

	project := &models.Project{
		Name:             args[0],
		PlannedStartDate: start,
		PlannedEndDate:   end,
		Description:      projectDescription,
		ProjectManagerID: manager,
	}
	if err := db.NewStore(db.GetDB()).CreateProject(context.Background(), project); err != nil {
		return err
	}
	if IsJSONOutput() {
		OutputJSON(project)
		return nil
	}
	fmt.Printf("Created project %d: %s\n", project.ID, project.Name)
	return nil
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store := db.NewStore(db.GetDB())

	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("project %d: %w", projectID, err)
	}

	task := &models.Task{
		Name:          args[1],
		ProjectID:     project.ID,
		PlannedBudget: taskBudget,
		Description:   taskDescription,
	}
	task.SetWindow(project.Horizon())
	if taskStart != "" {
		if task.PlannedStartDate, err = parseTime(taskStart); err != nil {
			return err
		}
	}
	if taskEnd != "" {
		if task.PlannedEndDate, err = parseTime(taskEnd); err != nil {
			return err
		}
	}
	if err := store.CreateTask(ctx, task); err != nil {
		return err
	}
	if IsJSONOutput() {
		OutputJSON(task)
		return nil
	}
	fmt.Printf("Created task %d: %s\n", task.ID, task.Name)
	return nil
}
