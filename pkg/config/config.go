// Package config loads and validates the triage core's configuration
// surface (spec.md §6), following this team's pattern of one immutable
// configuration record assembled at startup from built-in defaults
// merged with an operator-supplied YAML file.
package config

import (
	"github.com/codeready-toolchain/triage/pkg/database"
	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/codeready-toolchain/triage/pkg/routing"
)

// Config is the umbrella configuration object returned by Initialize and
// threaded through the core at construction (spec.md §9's design note on
// consolidating ambient globals into one explicit record).
type Config struct {
	configDir string

	Database   database.Config  `yaml:"database"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Drain      DrainConfig      `yaml:"drain"`
	Retention  RetentionConfig  `yaml:"retention"`
	Routing    RoutingConfig    `yaml:"routing"`
}

// ClassifierConfig configures the Predictor Host (spec.md §4.5, §6).
type ClassifierConfig struct {
	UseRuleBased               models.BackendMode `yaml:"use_rule_based"`
	LearnedMemoryThresholdByte uint64             `yaml:"learned_memory_threshold_bytes"`
	CategoryModelPath          string             `yaml:"category_model_path,omitempty"`
	SentimentModelPath         string             `yaml:"sentiment_model_path,omitempty"`
}

// DrainConfig configures the Batch Drain Loop (spec.md §4.8, §5, §6).
type DrainConfig struct {
	BatchLimitRuleBased      int    `yaml:"batch_limit_rule_based"`
	BatchLimitLearned        int    `yaml:"batch_limit_learned"`
	WorkerCount              int    `yaml:"drain_worker_count"`
	PerInquiryTimeoutSeconds int    `yaml:"per_inquiry_timeout_seconds"`
	SoftDeadlineSeconds      int    `yaml:"drain_soft_deadline_seconds"`
	MaxProcessingAttempts    int    `yaml:"max_processing_attempts"`
	LeaseSeconds             int    `yaml:"lease_seconds"`
	Schedule                 string `yaml:"schedule,omitempty"` // cron expression; empty disables the scheduler
}

// RetentionConfig controls cleanup of terminal inquiries, following this
// team's ticker-driven retention service pattern.
type RetentionConfig struct {
	PoisonedRetentionDays  int `yaml:"poisoned_retention_days"`
	ProcessedRetentionDays int `yaml:"processed_retention_days"`
	CleanupIntervalSeconds int `yaml:"cleanup_interval_seconds"`
}

// RoutingConfig configures the Routing Engine and Consultant Pool
// (spec.md §4.6, §4.7, §6).
type RoutingConfig struct {
	RoutingRulesPath   string                                     `yaml:"routing_rules_path"`
	AssignmentStrategy models.AssignmentStrategy                  `yaml:"assignment_strategy"`
	ConsultantRoster   map[models.Department][]models.Consultant `yaml:"consultant_roster,omitempty"`
	Weights            *routing.Weights                          `yaml:"weights,omitempty"`
	SLASeconds         map[models.Urgency]int                    `yaml:"sla_seconds,omitempty"`

	// Escalations is populated from the routing rules file, not from
	// triage.yaml directly; it is not part of the merge-with-override pass.
	Escalations []routing.EscalationRule `yaml:"-"`
}

// ConfigDir returns the directory Initialize loaded this Config from.
func (c *Config) ConfigDir() string {
	return c.configDir
}
