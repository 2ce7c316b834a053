package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/triage/pkg/classifier"
	"github.com/codeready-toolchain/triage/pkg/config"
	"github.com/codeready-toolchain/triage/pkg/database"
	"github.com/codeready-toolchain/triage/pkg/metrics"
	"github.com/codeready-toolchain/triage/pkg/queue"
	"github.com/codeready-toolchain/triage/pkg/routing"
	"github.com/codeready-toolchain/triage/pkg/storage"
	"github.com/codeready-toolchain/triage/pkg/sysprobe"
	"github.com/codeready-toolchain/triage/pkg/triage"
)

// buildHost constructs the Predictor Host from configuration, probing
// available memory for the auto-mode backend decision (spec.md §4.5).
func buildHost(cfg *config.Config, sink metrics.Sink) (*classifier.Host, error) {
	available, err := sysprobe.AvailableMemoryBytes()
	if err != nil {
		available = 0 // treated as below threshold, the safest default
	}

	return classifier.NewHost(classifier.HostConfig{
		Mode:                 cfg.Classifier.UseRuleBased,
		AvailableMemoryBytes: available,
		MemoryThresholdBytes: cfg.Classifier.LearnedMemoryThresholdByte,
		CategoryModelPath:    cfg.Classifier.CategoryModelPath,
		SentimentModelPath:   cfg.Classifier.SentimentModelPath,
		Listener:             triage.NewFallbackListener(sink),
	})
}

func buildEngine(cfg *config.Config) *routing.Engine {
	pool := routing.NewConsultantPool(cfg.Routing.ConsultantRoster)

	sla := routing.DefaultSLA()
	for urgency, seconds := range cfg.Routing.SLASeconds {
		sla[urgency] = time.Duration(seconds) * time.Second
	}

	weights := routing.DefaultWeights()
	if cfg.Routing.Weights != nil {
		weights = *cfg.Routing.Weights
	}

	return routing.NewEngine(routing.EngineConfig{
		Weights:     weights,
		SLA:         sla,
		Escalations: cfg.Routing.Escalations,
		Pool:        pool,
		Strategy:    cfg.Routing.AssignmentStrategy,
	})
}

// core bundles everything buildService needs disposed of on shutdown.
type core struct {
	db      *database.Client
	service *triage.Service
	repo    *storage.Repository
}

func (c *core) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

// buildService wires the full classification-and-routing core against a
// live database, for serve and drain.
func buildService(ctx context.Context, cfg *config.Config, sink metrics.Sink) (*core, error) {
	dbClient, err := database.NewClient(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	host, err := buildHost(cfg, sink)
	if err != nil {
		dbClient.Close()
		return nil, fmt.Errorf("build predictor host: %w", err)
	}

	engine := buildEngine(cfg)
	repo := storage.NewRepository(dbClient.Pool())

	loopCfg := queue.Config{
		WorkerCount:           cfg.Drain.WorkerCount,
		PerInquiryTimeout:     time.Duration(cfg.Drain.PerInquiryTimeoutSeconds) * time.Second,
		SoftDeadline:          time.Duration(cfg.Drain.SoftDeadlineSeconds) * time.Second,
		LeaseDuration:         time.Duration(cfg.Drain.LeaseSeconds) * time.Second,
		MaxProcessingAttempts: cfg.Drain.MaxProcessingAttempts,
	}
	drainCfg := triage.DrainBatchConfig{
		BatchLimitRuleBased: cfg.Drain.BatchLimitRuleBased,
		BatchLimitLearned:   cfg.Drain.BatchLimitLearned,
	}

	svc := triage.New(host, engine, repo, sink, drainCfg, loopCfg)
	return &core{db: dbClient, service: svc, repo: repo}, nil
}
