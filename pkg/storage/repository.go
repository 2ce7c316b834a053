// Package storage implements the abstract persistence capability spec.md
// §4.9 describes, directly against PostgreSQL via pgx — the same driver
// this team already uses underneath its previous ORM, now queried
// directly instead of through generated code.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// Repository implements the persistence interface from spec.md §4.9
// directly against the pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertInquiry persists a newly submitted inquiry with processed=false,
// generating its ID if unset. Used by classify_and_route's submit path
// (spec.md §6) before the synchronous core runs.
func (r *Repository) InsertInquiry(ctx context.Context, inq *models.Inquiry) error {
	if inq.ID == "" {
		inq.ID = uuid.NewString()
	}
	if inq.ReceivedAt.IsZero() {
		inq.ReceivedAt = time.Now().UTC()
	}

	metadata, err := json.Marshal(inq.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO inquiries (id, subject, body, sender_email, sender_name, metadata, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inq.ID, inq.Subject, inq.Body, inq.SenderEmail, nullableString(inq.SenderName), metadata, inq.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inquiry: %w", err)
	}
	return nil
}

// FetchUnprocessed returns up to limit unprocessed, non-poisoned inquiries
// ordered by received_at ascending, claiming each with a lease so
// concurrent drain workers or replicas skip rows already in flight
// (spec.md §4.9). leaseDuration bounds how long the claim holds before
// another drain invocation may re-select the row, so a crashed worker
// does not orphan a row forever.
func (r *Repository) FetchUnprocessed(ctx context.Context, limit int, leaseDuration time.Duration) ([]models.Inquiry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin fetch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		SELECT id, subject, body, sender_email, sender_name, metadata, received_at,
		       processed, processing_attempts, poisoned, last_error
		FROM inquiries
		WHERE processed = false AND poisoned = false
		  AND (claimed_until IS NULL OR claimed_until < now())
		ORDER BY received_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	query += " FOR UPDATE SKIP LOCKED"

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed inquiries: %w", err)
	}

	var (
		inquiries []models.Inquiry
		ids       []string
	)
	for rows.Next() {
		var (
			inq          models.Inquiry
			senderName   *string
			rawMetadata  []byte
			lastErr      *string
		)
		if err := rows.Scan(
			&inq.ID, &inq.Subject, &inq.Body, &inq.SenderEmail, &senderName, &rawMetadata,
			&inq.ReceivedAt, &inq.Processed, &inq.ProcessingAttempts, &inq.Poisoned, &lastErr,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan inquiry row: %w", err)
		}
		if senderName != nil {
			inq.SenderName = *senderName
		}
		if lastErr != nil {
			inq.LastError = *lastErr
		}
		if len(rawMetadata) > 0 {
			if err := json.Unmarshal(rawMetadata, &inq.Metadata); err != nil {
				rows.Close()
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", inq.ID, err)
			}
		}
		inquiries = append(inquiries, inq)
		ids = append(ids, inq.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unprocessed inquiries: %w", err)
	}
	rows.Close()

	if len(ids) > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE inquiries SET claimed_until = now() + make_interval(secs => $2) WHERE id = ANY($1)`,
			ids, leaseDuration.Seconds(),
		); err != nil {
			return nil, fmt.Errorf("lease unprocessed inquiries: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit fetch transaction: %w", err)
	}

	return inquiries, nil
}

// RecordResult atomically writes a Prediction and RoutingDecision and
// flips processed=true (spec.md §4.9). Returns ErrPersistenceConflict if
// the inquiry was already processed — callers MUST treat that as success
// (idempotent retry).
func (r *Repository) RecordResult(ctx context.Context, inquiryID string, pred models.Prediction, decision models.RoutingDecision) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin record-result transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var alreadyProcessed bool
	if err := tx.QueryRow(ctx, `SELECT processed FROM inquiries WHERE id = $1 FOR UPDATE`, inquiryID).Scan(&alreadyProcessed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("inquiry %s: %w", inquiryID, models.ErrNotFound)
		}
		return fmt.Errorf("lock inquiry %s: %w", inquiryID, err)
	}
	if alreadyProcessed {
		return fmt.Errorf("inquiry %s: %w", inquiryID, models.ErrPersistenceConflict)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO predictions (inquiry_id, category, category_confidence, sentiment, sentiment_confidence,
		                          urgency, urgency_confidence, model_identifier, classified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inquiryID, pred.Category, pred.CategoryConfidence, pred.Sentiment, pred.SentimentConfidence,
		pred.Urgency, pred.UrgencyConfidence, pred.ModelIdentifier, pred.ClassifiedAt,
	); err != nil {
		return fmt.Errorf("insert prediction for %s: %w", inquiryID, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO routing_decisions (inquiry_id, department, consultant, priority_score, escalated,
		                                response_deadline, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inquiryID, decision.Department, nullableString(decision.Consultant), decision.PriorityScore,
		decision.Escalated, decision.ResponseDeadline, decision.DecidedAt,
	); err != nil {
		return fmt.Errorf("insert routing decision for %s: %w", inquiryID, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE inquiries SET processed = true, claimed_until = NULL WHERE id = $1`, inquiryID,
	); err != nil {
		return fmt.Errorf("flip processed for %s: %w", inquiryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit record-result transaction: %w", err)
	}
	return nil
}

// RecordFailure increments processing_attempts, stores the error reason,
// and poisons the inquiry once attempts exceed maxAttempts (spec.md §4.9).
func (r *Repository) RecordFailure(ctx context.Context, inquiryID string, reason string, maxAttempts int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE inquiries
		SET processing_attempts = processing_attempts + 1,
		    last_error = $2,
		    claimed_until = NULL,
		    poisoned = (processing_attempts + 1) > $3
		WHERE id = $1`,
		inquiryID, reason, maxAttempts,
	)
	if err != nil {
		return fmt.Errorf("record failure for %s: %w", inquiryID, err)
	}
	return nil
}

// FindInquiry returns the combined view of an inquiry and its prediction
// and routing decision if they exist (spec.md §6).
func (r *Repository) FindInquiry(ctx context.Context, id string) (*CombinedView, error) {
	var (
		view        CombinedView
		senderName  *string
		rawMetadata []byte
		lastErr     *string
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, subject, body, sender_email, sender_name, metadata, received_at,
		       processed, processing_attempts, poisoned, last_error
		FROM inquiries WHERE id = $1`, id,
	).Scan(
		&view.Inquiry.ID, &view.Inquiry.Subject, &view.Inquiry.Body, &view.Inquiry.SenderEmail,
		&senderName, &rawMetadata, &view.Inquiry.ReceivedAt, &view.Inquiry.Processed,
		&view.Inquiry.ProcessingAttempts, &view.Inquiry.Poisoned, &lastErr,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("inquiry %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find inquiry %s: %w", id, err)
	}
	if senderName != nil {
		view.Inquiry.SenderName = *senderName
	}
	if lastErr != nil {
		view.Inquiry.LastError = *lastErr
	}
	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &view.Inquiry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", id, err)
		}
	}

	if !view.Inquiry.Processed {
		return &view, nil
	}

	pred := models.Prediction{InquiryID: id}
	if err := r.pool.QueryRow(ctx, `
		SELECT category, category_confidence, sentiment, sentiment_confidence,
		       urgency, urgency_confidence, model_identifier, classified_at
		FROM predictions WHERE inquiry_id = $1`, id,
	).Scan(
		&pred.Category, &pred.CategoryConfidence, &pred.Sentiment, &pred.SentimentConfidence,
		&pred.Urgency, &pred.UrgencyConfidence, &pred.ModelIdentifier, &pred.ClassifiedAt,
	); err == nil {
		view.Prediction = &pred
	}

	decision := models.RoutingDecision{InquiryID: id}
	var consultant *string
	if err := r.pool.QueryRow(ctx, `
		SELECT department, consultant, priority_score, escalated, response_deadline, decided_at
		FROM routing_decisions WHERE inquiry_id = $1`, id,
	).Scan(
		&decision.Department, &consultant, &decision.PriorityScore, &decision.Escalated,
		&decision.ResponseDeadline, &decision.DecidedAt,
	); err == nil {
		if consultant != nil {
			decision.Consultant = *consultant
		}
		view.RoutingDecision = &decision
	}

	return &view, nil
}

// CombinedView is the combined projection of an inquiry with its
// prediction and routing decision, if they exist (spec.md §6's
// find_inquiry).
type CombinedView struct {
	Inquiry         models.Inquiry
	Prediction      *models.Prediction
	RoutingDecision *models.RoutingDecision
}

// Statistics computes the read-only statistics projection (spec.md §6).
// window, if non-zero, restricts the count to inquiries received within
// the last window duration.
func (r *Repository) Statistics(ctx context.Context, window time.Duration) (models.Stats, error) {
	var stats models.Stats
	stats.PerCategoryCounts = make(map[models.Category]int)
	stats.PerDepartmentCounts = make(map[models.Department]int)

	cutoffClause := ""
	args := []any{}
	if window > 0 {
		cutoffClause = "WHERE received_at >= $1"
		args = append(args, time.Now().Add(-window))
	}

	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*), count(*) FILTER (WHERE processed) FROM inquiries %s`, cutoffClause),
		args...,
	).Scan(&stats.Total, &stats.Processed); err != nil {
		return stats, fmt.Errorf("count inquiries: %w", err)
	}

	categoryQuery := `SELECT p.category, count(*) FROM predictions p JOIN inquiries i ON i.id = p.inquiry_id`
	departmentQuery := `SELECT d.department, count(*) FROM routing_decisions d JOIN inquiries i ON i.id = d.inquiry_id`
	escalationQuery := `SELECT count(*) FILTER (WHERE d.escalated), count(*) FROM routing_decisions d JOIN inquiries i ON i.id = d.inquiry_id`
	if window > 0 {
		categoryQuery += " WHERE i.received_at >= $1"
		departmentQuery += " WHERE i.received_at >= $1"
		escalationQuery += " WHERE i.received_at >= $1"
	}
	categoryQuery += " GROUP BY p.category"
	departmentQuery += " GROUP BY d.department"

	rows, err := r.pool.Query(ctx, categoryQuery, args...)
	if err != nil {
		return stats, fmt.Errorf("per-category counts: %w", err)
	}
	for rows.Next() {
		var cat models.Category
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("scan per-category count: %w", err)
		}
		stats.PerCategoryCounts[cat] = count
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, departmentQuery, args...)
	if err != nil {
		return stats, fmt.Errorf("per-department counts: %w", err)
	}
	for rows.Next() {
		var dept models.Department
		var count int
		if err := rows.Scan(&dept, &count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("scan per-department count: %w", err)
		}
		stats.PerDepartmentCounts[dept] = count
	}
	rows.Close()

	var escalated, routed int
	if err := r.pool.QueryRow(ctx, escalationQuery, args...).Scan(&escalated, &routed); err != nil {
		return stats, fmt.Errorf("escalation rate: %w", err)
	}
	if routed > 0 {
		stats.EscalationRate = float64(escalated) / float64(routed)
	}

	return stats, nil
}

// DeleteProcessedOlderThan permanently removes successfully processed
// inquiries (and their predictions/routing decisions, via ON DELETE
// CASCADE) received before the cutoff. Used by the retention service.
func (r *Repository) DeleteProcessedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM inquiries WHERE processed = true AND poisoned = false AND received_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete processed inquiries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeletePoisonedOlderThan permanently removes poison-quarantined inquiries
// received before the cutoff, so a persistently failing inquiry does not
// occupy storage forever once an operator has had time to investigate it.
func (r *Repository) DeletePoisonedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM inquiries WHERE poisoned = true AND received_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete poisoned inquiries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
