package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/triage/pkg/config"
	"github.com/codeready-toolchain/triage/pkg/metrics"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Run exactly one drain invocation and exit",
	RunE:  runDrain,
}

func init() {
	rootCmd.AddCommand(drainCmd)
}

func runDrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return err
	}

	c, err := buildService(ctx, cfg, metrics.NewPrometheusSink())
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.service.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain: %w", err)
	}

	fmt.Fprintf(os.Stdout, "fetched=%d succeeded=%d failed=%d skipped_inflight=%d poisoned=%d duration=%s\n",
		result.Fetched, result.Succeeded, result.Failed, result.SkippedInflight, result.Poisoned, result.Duration)
	return nil
}
