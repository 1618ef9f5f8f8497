package cmd

import (
	"fmt"

	"kalpdemo/pkg/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration (defaults plus environment) to the config file",
	Long: `Write the current configuration to the config file. An existing file is
backed up next to it first. The API key is never written; keep it in
the environment (KALP_API_KEY) or a .env file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Gateway.APIKey = ""
		if err := config.SaveConfig(cfg, path); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("Configuration written to"), path)
		return nil
	},
}

var configRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the most recent backup of the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath(configFlag)
		if err != nil {
			return err
		}
		if err := config.RestoreLastBackup(path); err != nil {
			return fmt.Errorf("restore %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("Restored last backup of"), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configRestoreCmd)
}
