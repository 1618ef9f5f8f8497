package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kalpdemo/pkg/server"

	"github.com/spf13/cobra"
)

var (
	addrFlag  string
	rateFlag  float64
	burstFlag int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo forms, JSON proxy routes and event stream over HTTP",
	Long: `Serve the three demo apps as HTML forms, plus:

  POST /api/initialize, /api/mint, /api/transfer   JSON proxy to the token contract
  GET  /api/totalSupply                            JSON proxy to the token contract
  GET  /api/status                                 state of every view
  GET  /ws                                         websocket event stream
  GET  /metrics                                    Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", ":8080", "listen address")
	serveCmd.Flags().Float64Var(&rateFlag, "rate", 5, "allowed /api requests per second per client")
	serveCmd.Flags().IntVar(&burstFlag, "burst", 10, "burst size of the /api rate limit")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	if err := logWarnings(logger, cfg); err != nil {
		return err
	}
	logger.Info("configuration loaded", "path", path, "gateway", cfg.Gateway.URL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, suite := newSuite(cfg, logger)
	defer suite.Close()
	suite.Watcher.Start(ctx)
	defer suite.Watcher.Stop()

	go func() {
		if err := suite.Start(ctx); err != nil {
			logger.Warn("initial total supply load failed", "err", err)
		}
	}()

	srv := server.NewServer(suite, client,
		server.WithLogger(logger),
		server.WithRateLimit(rateFlag, burstFlag),
	)
	return srv.Start(ctx, addrFlag)
}
