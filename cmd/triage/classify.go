package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/triage/pkg/classifier"
	"github.com/codeready-toolchain/triage/pkg/config"
	"github.com/codeready-toolchain/triage/pkg/metrics"
)

var (
	classifySubject          string
	classifyBody             string
	classifyIncludeAllScores bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify literal subject/body text without persisting anything",
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifySubject, "subject", "", "Inquiry subject text")
	classifyCmd.Flags().StringVar(&classifyBody, "body", "", "Inquiry body text")
	classifyCmd.Flags().BoolVar(&classifyIncludeAllScores, "include-all-scores", false,
		"Include the category predictor's full per-category score map")
	_ = classifyCmd.MarkFlagRequired("body")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return err
	}

	host, err := buildHost(cfg, metrics.NoopSink{})
	if err != nil {
		return fmt.Errorf("build predictor host: %w", err)
	}

	canonical, err := classifier.Normalize(classifySubject, classifyBody)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	triple, err := host.Predict(ctx, canonical)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	if !classifyIncludeAllScores {
		triple.CategoryAllScores = nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(triple)
}
