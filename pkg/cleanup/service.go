// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/triage/pkg/config"
)

// Store is the persistence capability the retention service depends on.
// Satisfied by *storage.Repository.
type Store interface {
	DeleteProcessedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeletePoisonedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service periodically enforces retention policy on terminal inquiries:
// successfully processed inquiries past their retention window, and
// poison-quarantined inquiries past theirs. Both operations are idempotent
// and safe to run from multiple pods.
type Service struct {
	config *config.RetentionConfig
	store  Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, store Store) *Service {
	return &Service{config: cfg, store: store}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"processed_retention_days", s.config.ProcessedRetentionDays,
		"poisoned_retention_days", s.config.PoisonedRetentionDays,
		"interval_seconds", s.config.CleanupIntervalSeconds)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	interval := time.Duration(s.config.CleanupIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.deleteProcessed(ctx)
	s.deletePoisoned(ctx)
}

func (s *Service) deleteProcessed(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.ProcessedRetentionDays)
	n, err := s.store.DeleteProcessedOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("retention: delete processed inquiries failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("retention: deleted processed inquiries", "count", n)
	}
}

func (s *Service) deletePoisoned(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.PoisonedRetentionDays)
	n, err := s.store.DeletePoisonedOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("retention: delete poisoned inquiries failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("retention: deleted poisoned inquiries", "count", n)
	}
}
