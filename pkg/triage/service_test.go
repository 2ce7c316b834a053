package triage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/codeready-toolchain/triage/pkg/queue"
	"github.com/codeready-toolchain/triage/pkg/storage"
)

type fakeClassifier struct {
	triple       models.PredictionTriple
	err          error
	usingLearned bool
}

func (f *fakeClassifier) Predict(_ context.Context, _ string) (models.PredictionTriple, error) {
	return f.triple, f.err
}

func (f *fakeClassifier) UsingLearned() bool { return f.usingLearned }

type fakeRouter struct {
	decision models.RoutingDecision
}

func (f *fakeRouter) Decide(_ context.Context, inquiryID string, _ models.PredictionTriple, _ []string) models.RoutingDecision {
	d := f.decision
	d.InquiryID = inquiryID
	return d
}

type fakeStore struct {
	mu        sync.Mutex
	inserted  []models.Inquiry
	recorded  map[string]models.Prediction
	failures  map[string]string
	batch     []models.Inquiry
	insertErr error
	findView  *storage.CombinedView
	findErr   error
	stats     models.Stats
}

func (f *fakeStore) InsertInquiry(_ context.Context, inq *models.Inquiry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if inq.ID == "" {
		inq.ID = "generated-id"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, *inq)
	return nil
}

func (f *fakeStore) RecordResult(_ context.Context, inquiryID string, pred models.Prediction, _ models.RoutingDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recorded == nil {
		f.recorded = map[string]models.Prediction{}
	}
	f.recorded[inquiryID] = pred
	return nil
}

func (f *fakeStore) FindInquiry(_ context.Context, _ string) (*storage.CombinedView, error) {
	return f.findView, f.findErr
}

func (f *fakeStore) Statistics(_ context.Context, _ time.Duration) (models.Stats, error) {
	return f.stats, nil
}

func (f *fakeStore) FetchUnprocessed(_ context.Context, limit int, _ time.Duration) ([]models.Inquiry, error) {
	if limit > 0 && limit < len(f.batch) {
		return f.batch[:limit], nil
	}
	return f.batch, nil
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

func newTestService(t *testing.T, classifier *fakeClassifier, router *fakeRouter, store *fakeStore) *Service {
	t.Helper()
	return New(classifier, router, store, nil, DrainBatchConfig{BatchLimitRuleBased: 0, BatchLimitLearned: 50},
		queue.Config{WorkerCount: 2, MaxProcessingAttempts: 5})
}

func TestServiceSubmitPersistsAllThreeRecords(t *testing.T) {
	classifier := &fakeClassifier{triple: models.PredictionTriple{
		Category: models.CategoryBilling, Sentiment: models.SentimentNeutral, Urgency: models.UrgencyLow,
	}}
	router := &fakeRouter{decision: models.RoutingDecision{Department: models.DepartmentFinance, PriorityScore: 10}}
	store := &fakeStore{}
	svc := newTestService(t, classifier, router, store)

	id, pred, decision, err := svc.Submit(context.Background(), SubmitInput{
		Subject: "Billing question", Body: "Why was I charged twice?", SenderEmail: "a@example.com",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, models.CategoryBilling, pred.Category)
	assert.Equal(t, models.DepartmentFinance, decision.Department)
	assert.Len(t, store.inserted, 1)
	assert.Contains(t, store.recorded, id)
}

func TestServiceSubmitRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, &fakeClassifier{}, &fakeRouter{}, &fakeStore{})

	tests := map[string]SubmitInput{
		"empty subject":   {Subject: "", Body: "body", SenderEmail: "a@example.com"},
		"empty body":      {Subject: "subject", Body: "", SenderEmail: "a@example.com"},
		"malformed email": {Subject: "subject", Body: "body", SenderEmail: "not-an-email"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := svc.Submit(context.Background(), in)
			require.Error(t, err)
			var verr *models.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestServiceClassifyTextDoesNotPersist(t *testing.T) {
	classifier := &fakeClassifier{triple: models.PredictionTriple{
		Category: models.CategorySales, CategoryAllScores: map[models.Category]float64{models.CategorySales: 0.9},
	}}
	store := &fakeStore{}
	svc := newTestService(t, classifier, &fakeRouter{}, store)

	triple, err := svc.ClassifyText(context.Background(), "subject", "body", false)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySales, triple.Category)
	assert.Nil(t, triple.CategoryAllScores)
	assert.Empty(t, store.inserted)
}

func TestServiceClassifyTextIncludesAllScoresWhenRequested(t *testing.T) {
	scores := map[models.Category]float64{models.CategorySales: 0.9}
	classifier := &fakeClassifier{triple: models.PredictionTriple{Category: models.CategorySales, CategoryAllScores: scores}}
	svc := newTestService(t, classifier, &fakeRouter{}, &fakeStore{})

	triple, err := svc.ClassifyText(context.Background(), "subject", "body", true)
	require.NoError(t, err)
	assert.Equal(t, scores, triple.CategoryAllScores)
}

func TestServiceDrainUsesLearnedBatchLimitWhenClassifierIsLearned(t *testing.T) {
	classifier := &fakeClassifier{usingLearned: true}
	store := &fakeStore{batch: make([]models.Inquiry, 100)}
	for i := range store.batch {
		store.batch[i] = models.Inquiry{ID: string(rune('a' + i%26))}
	}
	svc := newTestService(t, classifier, &fakeRouter{}, store)

	result, err := svc.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, result.Fetched)
}

func TestServiceDrainUsesUnboundedLimitWhenClassifierIsRuleBased(t *testing.T) {
	classifier := &fakeClassifier{usingLearned: false}
	store := &fakeStore{batch: []models.Inquiry{{ID: "1"}, {ID: "2"}}}
	svc := newTestService(t, classifier, &fakeRouter{}, store)

	result, err := svc.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
}

func TestServiceFindInquiryDelegatesToStore(t *testing.T) {
	view := &storage.CombinedView{Inquiry: models.Inquiry{ID: "abc"}}
	store := &fakeStore{findView: view}
	svc := newTestService(t, &fakeClassifier{}, &fakeRouter{}, store)

	got, err := svc.FindInquiry(context.Background(), "abc")
	require.NoError(t, err)
	assert.Same(t, view, got)
}

func TestServiceStatisticsDelegatesToStore(t *testing.T) {
	store := &fakeStore{stats: models.Stats{Total: 5, Processed: 3}}
	svc := newTestService(t, &fakeClassifier{}, &fakeRouter{}, store)

	stats, err := svc.Statistics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
}
