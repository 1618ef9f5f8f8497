package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rawFlag bool

var callCmd = &cobra.Command{
	Use:   "call <app> <operation> [args...]",
	Short: "Call one contract operation and print the response",
	Long: `Call one contract operation through the gateway.

Apps and operations:
` + operationHelp() + `
Examples:
  kalpdemo call greeting setGreeting "hello"
  kalpdemo call token transfer <recipient> 10
  kalpdemo call airdrop claim <address>`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCall,
}

func init() {
	callCmd.Flags().BoolVar(&rawFlag, "raw", false, "print the raw response body")
}

func operationHelp() string {
	var b strings.Builder
	for _, app := range gateway.Apps {
		fmt.Fprintf(&b, "  %s\n", app)
		for _, op := range gateway.OperationsFor(app) {
			fmt.Fprintf(&b, "    %-40s %s\n", op.Usage(), op.Kind)
		}
	}
	return b.String()
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := gateway.NewClient(cfg, gateway.WithLogger(logger))
	resp, err := client.Do(ctx, gateway.App(args[0]), args[1], args[2:]...)
	return printCallResult(cmd.OutOrStdout(), args[1], resp, err)
}

func printCallResult(w io.Writer, op string, resp *models.GatewayResponse, err error) error {
	var se *gateway.StatusError
	switch {
	case errors.As(err, &se):
		fmt.Fprintf(w, "%s %s\n", color.RedString("✗ %s failed with status %d:", op, se.Status), se.Error())
		if rawFlag && len(se.Body) > 0 {
			fmt.Fprintln(w, string(se.Body))
		}
		return err
	case err != nil:
		fmt.Fprintf(w, "%s %v\n", color.RedString("✗ %s failed:", op), err)
		return err
	}

	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓ %s", op), color.CyanString("status %d", resp.Status))
	if rawFlag && len(resp.Body) > 0 {
		fmt.Fprintln(w, string(resp.Body))
		return nil
	}
	if display := resp.Display(); display != "" {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("result (%s):", resp.Result.Kind), display)
	}
	if resp.Message != "" {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("message:"), resp.Message)
	}
	return nil
}
