package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toiler/internal/config"
	"toiler/internal/db"
	"toiler/internal/output"
)

var (
	Version    = "0.1.0"
	jsonOutput bool
	configPath string
	principal  uint

	cfg *config.Config
)

// commandsExemptFromDB lists commands that don't require database initialization
var commandsExemptFromDB = map[string]bool{
	"init":           true,
	"version":        true,
	"help":           true,
	"completion":     true,
	"redis-password": true,
}

var rootCmd = &cobra.Command{
	Use:   "toiler",
	Short: "Toiler - gantt projects with automatic scheduling",
	Long: `Toiler keeps projects as tasks of activities. An activity may depend on one
other activity; auto-scheduling re-times every activity from the project start,
keeping durations, and rolls the windows up into tasks.

QUICK START:
  toiler init
  toiler user add alice
  toiler project create "Launch" --start 2024-01-01 --end 2024-02-01 --manager 1
  toiler task create 1 "Design"
  toiler activity add 1 "Sketch" --start 2024-01-01 --duration 48h
  toiler activity add 1 "Review" --duration 72h --after 1
  toiler schedule 1 --user 1
  toiler show 1 --user 1

SERVER:
  toiler serve                      # HTTP API on :8000
  X-User-ID header identifies the caller.

CONFIG: .toiler/config.yaml, overridden by TOILER_* environment variables.

JSON OUTPUT: Add --json flag to any command for machine-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if commandsExemptFromDB[cmd.Name()] {
			return nil
		}
		return openDB()
	},
}

func openDB() error {
	if db.GetDB() != nil {
		return nil
	}
	if cfg.Database.Driver == db.DriverSQLite {
		if _, err := os.Stat(cfg.Database.DSN); os.IsNotExist(err) {
			return fmt.Errorf("not initialized: run 'toiler init' first")
		}
	}
	_, err := db.Open(db.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Log.Debug(),
	})
	return err
}

func Execute() {
	defer db.CloseDB()

	if err := rootCmd.Execute(); err != nil {
		output.New(jsonOutput).Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().UintVarP(&principal, "user", "u", 0, "Acting user id")
	rootCmd.Version = Version
}

func OutputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(data)
}

func IsJSONOutput() bool {
	return jsonOutput
}

func formatter() output.Formatter {
	return output.New(jsonOutput)
}

func requireUser() (uint, error) {
	if principal == 0 {
		return 0, fmt.Errorf("--user is required")
	}
	return principal, nil
}
