package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/triage/pkg/cleanup"
	"github.com/codeready-toolchain/triage/pkg/config"
	"github.com/codeready-toolchain/triage/pkg/metrics"
)

var metricsAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the drain scheduler as a long-running daemon",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", getEnv("METRICS_ADDR", ":9090"),
		"Address the Prometheus /metrics endpoint listens on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return err
	}

	sink := metrics.NewPrometheusSink()

	c, err := buildService(ctx, cfg, sink)
	if err != nil {
		return err
	}
	defer c.Close()

	cleanupSvc := cleanup.NewService(&cfg.Retention, c.repo)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		slog.Info("metrics server listening", "addr", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	sched := cron.New()
	if cfg.Drain.Schedule != "" {
		if _, err := sched.AddFunc(cfg.Drain.Schedule, func() { runOneDrain(ctx, c) }); err != nil {
			return err
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
		slog.Info("drain scheduler started", "schedule", cfg.Drain.Schedule)
	} else {
		slog.Warn("drain.schedule is unset, no automatic draining will occur; use `triage drain` externally")
	}

	slog.Info("triage serve ready")
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func runOneDrain(ctx context.Context, c *core) {
	result, err := c.service.Drain(ctx)
	if err != nil {
		slog.Error("drain invocation failed", "error", err)
		return
	}
	slog.Info("drain invocation complete",
		"fetched", result.Fetched, "succeeded", result.Succeeded, "failed", result.Failed,
		"skipped_inflight", result.SkippedInflight, "poisoned", result.Poisoned, "duration", result.Duration)
}
