package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"toiler/internal/db"
)

var (
	memberTeam string
	memberRole string
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Project team membership",
}

var memberAddCmd = &cobra.Command{
	Use:   "add <project-id> <user-id>",
	Short: "Add a user to a project team; members can view and edit activities",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemberAdd,
}

func init() {
	rootCmd.AddCommand(memberCmd)
	memberCmd.AddCommand(memberAddCmd)
	memberAddCmd.Flags().StringVar(&memberTeam, "team", "core", "Team name")
	memberAddCmd.Flags().StringVar(&memberRole, "role", "member", "Role name")
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}
	userID, err := parseID(args[1], "user")
	if err != nil {
		return err
	}

	ctx := context.Background()
	store := db.NewStore(db.GetDB())
	if _, err := store.GetProject(ctx, projectID); err != nil {
		return fmt.Errorf("project %d: %w", projectID, err)
	}
	member, err := store.AddTeamMember(ctx, projectID, userID, memberTeam, memberRole)
	if err != nil {
		return err
	}
	if IsJSONOutput() {
		OutputJSON(member)
		return nil
	}
	fmt.Printf("Added user %d to team %q as %s\n", userID, memberTeam, memberRole)
	return nil
}
