package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"kalpdemo/pkg/config"
	"kalpdemo/pkg/dapp"
	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/watcher"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version should be set during build
var Version = "dev"

var (
	configFlag   string
	envFileFlag  string
	logLevelFlag string
	logFileFlag  string
)

// rootCmd starts the terminal UI when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "kalpdemo",
	Short: "Kalp smart-contract dApp demos for the terminal and the browser",
	Long: `kalpdemo drives the greeting, token and airdrop demo contracts deployed
behind the Kalp gateway.

Examples:
  kalpdemo                              # Terminal UI
  kalpdemo serve --addr :8080           # HTML forms and JSON proxy routes
  kalpdemo call token totalSupply       # One-shot call
  kalpdemo call airdrop claim <address> # Claim the fixed airdrop amount
  kalpdemo check --json                 # Validate configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to configuration file (default ~/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "load environment variables from this file (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "write logs to this file")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kalpdemo version %s\n", Version)
	},
}

// loadConfig resolves the config path, reads the file and applies the
// environment overlay.
func loadConfig() (config.Config, string, error) {
	if envFileFlag != "" {
		if err := godotenv.Load(envFileFlag); err != nil {
			return config.Config{}, "", fmt.Errorf("load env file %s: %w", envFileFlag, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, "", fmt.Errorf("load .env: %w", err)
	}

	path, err := config.GetConfigPath(configFlag)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine config path: %w", err)
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return config.Config{}, path, fmt.Errorf("load config from %s: %w", path, err)
	}
	return config.ApplyEnv(cfg, os.Getenv), path, nil
}

// newLogger writes to the --log-file when given, otherwise to fallback.
// The returned closer releases the file.
func newLogger(fallback io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(logLevelFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level %q: %w", logLevelFlag, err)
	}

	out, closer := fallback, func() {}
	if logFileFlag != "" {
		f, err := os.OpenFile(logFileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, func() { _ = f.Close() }
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "kalpdemo",
		Level:           level,
	})
	return logger, closer, nil
}

// newSuite wires gateway client, event hub and views for one process.
func newSuite(cfg config.Config, logger *log.Logger) (*gateway.Client, *dapp.Suite) {
	client := gateway.NewClient(cfg, gateway.WithLogger(logger))
	hub := watcher.NewWatcher(cfg.RefreshInterval(), logger)
	suite := dapp.NewSuite(client, hub, dapp.WithLogger(logger), dapp.WithDecimals(cfg.TokenDecimals))
	return client, suite
}

func logWarnings(logger *log.Logger, cfg config.Config) error {
	problems, warnings := config.Validate(cfg)
	for _, w := range warnings {
		logger.Warn(w)
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s (run 'kalpdemo check' for details)", problems[0])
	}
	return nil
}
