package config

import (
	"github.com/codeready-toolchain/triage/pkg/database"
	"github.com/codeready-toolchain/triage/pkg/models"
)

// defaultMemoryThresholdBytes matches classifier.defaultMemoryThresholdBytes;
// duplicated here rather than imported to keep pkg/config free of a
// dependency on pkg/classifier.
const defaultMemoryThresholdBytes = 16 << 30

// batchLimitUnbounded is the sentinel BatchLimitRuleBased value meaning
// "drain everything available in one pass" (spec.md §4.8's rule-based
// default).
const batchLimitUnbounded = 0

// DefaultConfig returns the built-in configuration (spec.md §6's default
// column), before any triage.yaml or routing_rules.yaml is merged in.
func DefaultConfig() Config {
	return Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			User:            "triage",
			Database:        "triage",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 0,
			ConnMaxIdleTime: 0,
		},
		Classifier: ClassifierConfig{
			UseRuleBased:               models.BackendModeAuto,
			LearnedMemoryThresholdByte: defaultMemoryThresholdBytes,
		},
		Drain: DrainConfig{
			BatchLimitRuleBased:      batchLimitUnbounded,
			BatchLimitLearned:        50,
			WorkerCount:              4,
			PerInquiryTimeoutSeconds: 30,
			SoftDeadlineSeconds:      3300,
			MaxProcessingAttempts:    5,
			LeaseSeconds:             120,
		},
		Retention: RetentionConfig{
			PoisonedRetentionDays:  30,
			ProcessedRetentionDays: 90,
			CleanupIntervalSeconds: 3600,
		},
		Routing: RoutingConfig{
			RoutingRulesPath:   "routing_rules.yaml",
			AssignmentStrategy: models.AssignmentRoundRobin,
		},
	}
}
