package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/triage/pkg/models"
)

type fakeClassifier struct {
	mu   sync.Mutex
	fail map[string]error
}

func (f *fakeClassifier) Predict(_ context.Context, text string) (models.PredictionTriple, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[text]; ok {
		return models.PredictionTriple{}, err
	}
	return models.PredictionTriple{
		Category:  models.CategoryBilling,
		Sentiment: models.SentimentNeutral,
		Urgency:   models.UrgencyLow,
	}, nil
}

type fakeRouter struct{}

func (fakeRouter) Decide(_ context.Context, inquiryID string, triple models.PredictionTriple, _ []string) models.RoutingDecision {
	return models.RoutingDecision{InquiryID: inquiryID, Department: models.DepartmentFinance, PriorityScore: 10}
}

type fakeStore struct {
	mu         sync.Mutex
	batch      []models.Inquiry
	results    map[string]models.Prediction
	failures   map[string]string
	conflictOn string
}

func (f *fakeStore) FetchUnprocessed(_ context.Context, limit int, _ time.Duration) ([]models.Inquiry, error) {
	if limit > 0 && limit < len(f.batch) {
		return f.batch[:limit], nil
	}
	return f.batch, nil
}

func (f *fakeStore) RecordResult(_ context.Context, inquiryID string, pred models.Prediction, _ models.RoutingDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inquiryID == f.conflictOn {
		return models.ErrPersistenceConflict
	}
	if f.results == nil {
		f.results = map[string]models.Prediction{}
	}
	f.results[inquiryID] = pred
	return nil
}

func (f *fakeStore) RecordFailure(_ context.Context, inquiryID, reason string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures == nil {
		f.failures = map[string]string{}
	}
	f.failures[inquiryID] = reason
	return nil
}

func newTestInquiry(id string) models.Inquiry {
	return models.Inquiry{ID: id, Subject: "s", Body: "b"}
}

func joinNormalizer(subject, body string) (string, error) {
	return subject + "\n" + body, nil
}

func TestDrainLoopRunSucceedsForAllInquiries(t *testing.T) {
	store := &fakeStore{batch: []models.Inquiry{newTestInquiry("1"), newTestInquiry("2"), newTestInquiry("3")}}
	loop := NewDrainLoop(&fakeClassifier{}, joinNormalizer, fakeRouter{}, store, nil, Config{WorkerCount: 2, MaxProcessingAttempts: 5})

	result, err := loop.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, store.results, 3)
}

func TestDrainLoopRunRecordsFailureAndPoisons(t *testing.T) {
	classifier := &fakeClassifier{fail: map[string]error{"s\nb": models.ErrClassificationError}}
	inq := newTestInquiry("bad")
	inq.ProcessingAttempts = 5 // next failure is the 6th attempt, exceeding MaxProcessingAttempts
	store := &fakeStore{batch: []models.Inquiry{inq}}
	loop := NewDrainLoop(classifier, joinNormalizer, fakeRouter{}, store, nil, Config{WorkerCount: 1, MaxProcessingAttempts: 5})

	result, err := loop.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Poisoned)
	assert.Contains(t, store.failures, "bad")
}

func TestDrainLoopRunCountsConflictAsSkippedInflight(t *testing.T) {
	store := &fakeStore{batch: []models.Inquiry{newTestInquiry("1")}, conflictOn: "1"}
	loop := NewDrainLoop(&fakeClassifier{}, joinNormalizer, fakeRouter{}, store, nil, Config{WorkerCount: 1, MaxProcessingAttempts: 5})

	result, err := loop.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SkippedInflight)
	assert.Equal(t, 0, result.Failed)
}

func TestDrainLoopRunEmptyBatchIsNotAnError(t *testing.T) {
	store := &fakeStore{}
	loop := NewDrainLoop(&fakeClassifier{}, joinNormalizer, fakeRouter{}, store, nil, Config{WorkerCount: 4})

	result, err := loop.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Fetched)
}

func TestDrainLoopRunRespectsBatchLimit(t *testing.T) {
	store := &fakeStore{batch: []models.Inquiry{newTestInquiry("1"), newTestInquiry("2")}}
	loop := NewDrainLoop(&fakeClassifier{}, joinNormalizer, fakeRouter{}, store, nil, Config{WorkerCount: 4})

	result, err := loop.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
}
