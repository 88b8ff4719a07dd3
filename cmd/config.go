package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"toiler/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Toiler configuration",
}

var configRedisPasswordCmd = &cobra.Command{
	Use:   "redis-password",
	Short: "Store the Redis password in the system keyring",
	Long: `Store the password used for the Redis notifier and cache in the system
keyring. Without --password the value is read from stdin. The keyring entry is
only consulted when neither the config file nor TOILER_REDIS_PASSWORD sets one.`,
	RunE: runConfigRedisPassword,
}

var (
	configRedisPassword string
	configRedisClear    bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configRedisPasswordCmd)

	configRedisPasswordCmd.Flags().StringVar(&configRedisPassword, "password", "", "Password (use stdin for security)")
	configRedisPasswordCmd.Flags().BoolVar(&configRedisClear, "clear", false, "Remove the stored password")
}

func runConfigRedisPassword(cmd *cobra.Command, args []string) error {
	if configRedisClear {
		if err := config.SetRedisPassword(""); err != nil {
			return err
		}
		formatter().Success("Redis password cleared")
		return nil
	}

	password := configRedisPassword
	if password == "" {
		if !IsJSONOutput() {
			fmt.Fprint(os.Stderr, "Redis password: ")
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if err := config.SetRedisPassword(password); err != nil {
		return err
	}
	formatter().Success("Redis password stored in system keyring")
	return nil
}
