package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codeready-toolchain/triage/pkg/routing"
)

// Initialize loads, merges, and validates configuration rooted at
// configDir. It is the primary entry point for every command in
// cmd/triage (this team's established load→validate→return pattern).
//
// Steps performed:
//  1. Start from the built-in defaults.
//  2. Load triage.yaml (database/classifier/drain/retention/routing) and
//     merge any set fields over the defaults.
//  3. Load the routing rules file named by Routing.RoutingRulesPath and
//     merge it over the default weights/SLA/escalations; a missing file
//     is not fatal, leaving the built-in escalation list (routing.
//     DefaultEscalations) and weights in effect.
//  4. Validate the result.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("loading configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	log.Info("configuration loaded",
		"use_rule_based", cfg.Classifier.UseRuleBased,
		"drain_worker_count", cfg.Drain.WorkerCount,
		"assignment_strategy", cfg.Routing.AssignmentStrategy)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.configDir = configDir

	var overlay Config
	if err := loadYAML(configDir, "triage.yaml", &overlay); err != nil {
		return nil, err
	}
	if err := mergeOverride(&cfg, &overlay); err != nil {
		return nil, fmt.Errorf("merging triage.yaml: %w", err)
	}

	rulesPath := cfg.Routing.RoutingRulesPath
	if rulesPath == "" {
		rulesPath = DefaultConfig().Routing.RoutingRulesPath
	}

	var rules routing.RulesConfig
	if err := loadYAML(configDir, rulesPath, &rules); err != nil {
		if !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		// Absence of a routing rules file is not fatal: the engine falls
		// back to the default weights, SLA, escalation list, and
		// category-to-department map.
		rules = routing.RulesConfig{}
	}

	weights := routing.DefaultWeights()
	if cfg.Routing.Weights != nil {
		if err := mergeOverride(&weights, cfg.Routing.Weights); err != nil {
			return nil, fmt.Errorf("merging triage.yaml routing weights: %w", err)
		}
	}
	if rules.Weights != nil {
		if err := mergeOverride(&weights, rules.Weights); err != nil {
			return nil, fmt.Errorf("merging routing weights: %w", err)
		}
	}
	cfg.Routing.Weights = &weights

	if len(rules.SLASeconds) > 0 {
		cfg.Routing.SLASeconds = rules.SLASeconds
	}

	cfg.Routing.Escalations = routing.DefaultEscalations()
	if len(rules.Escalations) > 0 {
		cfg.Routing.Escalations = rules.Escalations
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if !cfg.Classifier.UseRuleBased.IsValid() {
		return NewValidationError("classifier.use_rule_based", fmt.Sprintf("unrecognized mode %q", cfg.Classifier.UseRuleBased))
	}
	if !cfg.Routing.AssignmentStrategy.IsValid() {
		return NewValidationError("routing.assignment_strategy", fmt.Sprintf("unrecognized strategy %q", cfg.Routing.AssignmentStrategy))
	}
	if cfg.Drain.WorkerCount < 1 {
		return NewValidationError("drain.drain_worker_count", "must be at least 1")
	}
	if cfg.Drain.BatchLimitLearned < 0 {
		return NewValidationError("drain.batch_limit_learned", "cannot be negative")
	}
	if cfg.Drain.MaxProcessingAttempts < 1 {
		return NewValidationError("drain.max_processing_attempts", "must be at least 1")
	}
	if cfg.Database.Password == "" {
		return NewValidationError("database.password", "is required")
	}
	for u := range cfg.Routing.SLASeconds {
		if !u.IsValid() {
			return NewValidationError("routing.sla_seconds", fmt.Sprintf("unrecognized urgency %q", u))
		}
	}
	return cfg.Database.Validate()
}

func loadYAML(configDir, filename string, target any) error {
	path := filepath.Join(configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

