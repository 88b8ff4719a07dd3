package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"toiler/internal/db"
	"toiler/internal/models"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the toiler database",
	Long: `Create the database configured by database.driver/dsn and run migrations.
For sqlite the file is created under .toiler/ by default.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force reinitialize (sqlite only, deletes existing data)")
}

func runInit(cmd *cobra.Command, args []string) error {
	dsn := cfg.Database.DSN
	if cfg.Database.Driver == db.DriverSQLite {
		if _, err := os.Stat(dsn); err == nil {
			if !forceInit {
				return fmt.Errorf("already initialized. Use --force to reinitialize")
			}
			for _, suffix := range []string{"", "-wal", "-shm"} {
				if err := os.Remove(dsn + suffix); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to remove existing database: %w", err)
				}
			}
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	if _, err := db.Open(db.Options{Driver: cfg.Database.Driver, DSN: dsn, Debug: cfg.Log.Debug()}); err != nil {
		return err
	}
	if err := db.SetConfig(models.ConfigSchemaVersion, db.SchemaVersion); err != nil {
		return fmt.Errorf("failed to save schema version: %w", err)
	}
	if err := db.SetConfig(models.ConfigInitializedAt, time.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save initialization time: %w", err)
	}

	if IsJSONOutput() {
		OutputJSON(map[string]interface{}{"success": true, "driver": cfg.Database.Driver, "dsn": displayDSN()})
		return nil
	}
	fmt.Printf("Toiler initialized (%s: %s)\n", cfg.Database.Driver, displayDSN())
	fmt.Println("\nNext steps:")
	fmt.Println("  toiler user add <username>        Create a user")
	fmt.Println("  toiler project create <name> ...  Create a project")
	return nil
}

// displayDSN hides credentials of server DSNs
func displayDSN() string {
	if cfg.Database.Driver == db.DriverSQLite {
		return cfg.Database.DSN
	}
	return "(configured)"
}
