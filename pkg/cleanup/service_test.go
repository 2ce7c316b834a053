package cleanup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/triage/pkg/config"
)

type fakeStore struct {
	mu               sync.Mutex
	processedCutoffs []time.Time
	poisonedCutoffs  []time.Time
	processedDeleted int64
	poisonedDeleted  int64
}

func (f *fakeStore) DeleteProcessedOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processedCutoffs = append(f.processedCutoffs, cutoff)
	return f.processedDeleted, nil
}

func (f *fakeStore) DeletePoisonedOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poisonedCutoffs = append(f.poisonedCutoffs, cutoff)
	return f.poisonedDeleted, nil
}

func TestServiceRunAllUsesConfiguredRetentionWindows(t *testing.T) {
	store := &fakeStore{processedDeleted: 3, poisonedDeleted: 1}
	cfg := &config.RetentionConfig{
		ProcessedRetentionDays: 90,
		PoisonedRetentionDays:  30,
		CleanupIntervalSeconds: 3600,
	}
	svc := NewService(cfg, store)

	svc.runAll(context.Background())

	require.Len(t, store.processedCutoffs, 1)
	require.Len(t, store.poisonedCutoffs, 1)

	now := time.Now()
	assert.WithinDuration(t, now.AddDate(0, 0, -90), store.processedCutoffs[0], time.Minute)
	assert.WithinDuration(t, now.AddDate(0, 0, -30), store.poisonedCutoffs[0], time.Minute)
}

func TestServiceStartRunsImmediatelyThenStops(t *testing.T) {
	store := &fakeStore{}
	cfg := &config.RetentionConfig{ProcessedRetentionDays: 1, PoisonedRetentionDays: 1, CleanupIntervalSeconds: 3600}
	svc := NewService(cfg, store)

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.processedCutoffs) >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestServiceStopIdempotent(t *testing.T) {
	svc := NewService(&config.RetentionConfig{CleanupIntervalSeconds: 3600}, &fakeStore{})
	svc.Stop() // never started; must not panic
	svc.Start(context.Background())
	svc.Stop()
	svc.Stop()
}
