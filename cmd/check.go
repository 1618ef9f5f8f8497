package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"kalpdemo/pkg/config"
	"kalpdemo/pkg/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var jsonFlag bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and exit",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&jsonFlag, "json", false, "output the report as JSON")
}

func buildReport(path string, cfg config.Config) models.CheckReport {
	problems, warnings := config.Validate(cfg)
	return models.CheckReport{
		ConfigPath:    path,
		Valid:         len(problems) == 0,
		Problems:      problems,
		Warnings:      warnings,
		GatewayURL:    cfg.Gateway.URL,
		APIKeyHeader:  cfg.Gateway.APIKeyHeader,
		APIKeySet:     cfg.Gateway.APIKey != "",
		WalletAddress: cfg.WalletAddress,
		Contracts: map[string]string{
			"greeting": cfg.Contracts.Greeting,
			"token":    cfg.Contracts.Token,
			"airdrop":  cfg.Contracts.Airdrop,
		},
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	report := buildReport(path, cfg)

	out := cmd.OutOrStdout()
	if jsonFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if !report.Valid {
		return fmt.Errorf("configuration at %s is invalid", path)
	}
	return nil
}

func printReport(w io.Writer, r models.CheckReport) {
	fmt.Fprintf(w, "Testing configuration at: %s\n", r.ConfigPath)
	fmt.Fprintf(w, "  gateway:  %s\n", r.GatewayURL)
	key := color.GreenString("set")
	if !r.APIKeySet {
		key = color.YellowString("empty")
	}
	fmt.Fprintf(w, "  api key:  %s (header %s)\n", key, r.APIKeyHeader)
	fmt.Fprintf(w, "  wallet:   %s\n", r.WalletAddress)
	for _, app := range []string{"greeting", "token", "airdrop"} {
		id := r.Contracts[app]
		if id == "" {
			id = color.YellowString("not set")
		}
		fmt.Fprintf(w, "  %-9s %s\n", app+":", id)
	}
	for _, p := range r.Problems {
		fmt.Fprintf(w, "%s %s\n", color.RedString("Error:"), p)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("Warning:"), warn)
	}
	if r.Valid {
		fmt.Fprintln(w, color.GreenString("Configuration OK"))
	}
}
