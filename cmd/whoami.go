package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"toiler/internal/db"
	"toiler/internal/models"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the acting user and where changes go",
	Long:  `Display the --user identity, the database, the notifier target and the cache backend.`,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	username := ""
	if principal != 0 {
		var user models.User
		err := db.GetDB().WithContext(context.Background()).First(&user, principal).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("user %d: %w", principal, db.ErrNotFound)
		case err != nil:
			return err
		}
		username = user.Username
	}

	notifier := "log"
	if cfg.Notifier.Enabled {
		notifier = fmt.Sprintf("redis %s channel %q", cfg.Notifier.Redis.Addr, cfg.Notifier.Channel)
	}

	if IsJSONOutput() {
		result := map[string]interface{}{
			"database": displayDSN(),
			"driver":   cfg.Database.Driver,
			"notifier": notifier,
			"cache":    cfg.Cache.Backend,
		}
		if principal != 0 {
			result["user_id"] = principal
			result["username"] = username
		}
		OutputJSON(result)
		return nil
	}

	f := formatter()
	if principal != 0 {
		f.KeyValue("User", fmt.Sprintf("%s (%d)", username, principal))
	} else {
		f.KeyValue("User", "(none, pass --user)")
	}
	f.KeyValue("Database", fmt.Sprintf("%s (%s)", displayDSN(), cfg.Database.Driver))
	f.KeyValue("Notifier", notifier)
	f.KeyValue("Cache", cfg.Cache.Backend)
	return nil
}
