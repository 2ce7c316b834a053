// Package models holds the data types shared across the classification and
// routing core: inquiries, predictions, routing decisions, and the fixed
// taxonomies they are drawn from.
package models

import "time"

// Inquiry is a submitted customer inquiry awaiting (or having received)
// classification and routing.
//
// Invariant: once Processed is true, exactly one Prediction and one
// RoutingDecision exist referencing this inquiry (spec.md §3).
type Inquiry struct {
	ID                 string         `json:"id"`
	Subject            string         `json:"subject"`
	Body               string         `json:"body"`
	SenderEmail        string         `json:"sender_email"`
	SenderName         string         `json:"sender_name,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	ReceivedAt         time.Time      `json:"received_at"`
	Processed          bool           `json:"processed"`
	ProcessingAttempts int            `json:"processing_attempts"`
	Poisoned           bool           `json:"poisoned"`
	LastError          string         `json:"last_error,omitempty"`
}

// Prediction is the classifier output for exactly one Inquiry.
//
// Invariant: a Prediction exists iff its Inquiry is processed (spec.md §3).
type Prediction struct {
	InquiryID           string    `json:"inquiry_id"`
	Category            Category  `json:"category"`
	CategoryConfidence  float64   `json:"category_confidence"`
	Sentiment           Sentiment `json:"sentiment"`
	SentimentConfidence float64   `json:"sentiment_confidence"`
	Urgency             Urgency   `json:"urgency"`
	UrgencyConfidence   float64   `json:"urgency_confidence"`
	ModelIdentifier     string    `json:"model_identifier"`
	ClassifiedAt        time.Time `json:"classified_at"`
}

// RoutingDecision is the routing output for exactly one Inquiry and its
// Prediction.
//
// Invariant: Escalated == true implies PriorityScore >= 80 and Department
// is either DepartmentEscalation or the category's default department
// (spec.md §3).
type RoutingDecision struct {
	InquiryID        string     `json:"inquiry_id"`
	Department       Department `json:"department"`
	Consultant       string     `json:"consultant,omitempty"`
	PriorityScore    int        `json:"priority_score"`
	Escalated        bool       `json:"escalated"`
	ResponseDeadline time.Time  `json:"response_deadline"`
	DecidedAt        time.Time  `json:"decided_at"`
}

// PredictionTriple is the combined output of the three predictors for one
// canonical text (spec.md GLOSSARY).
type PredictionTriple struct {
	Category            Category
	CategoryConfidence  float64
	CategoryAllScores   map[Category]float64
	Sentiment           Sentiment
	SentimentConfidence float64
	Urgency             Urgency
	UrgencyConfidence   float64
	ModelIdentifier     string
}

// Stats is the read-only statistics projection returned by
// statistics(window) (spec.md §6).
type Stats struct {
	Total               int                `json:"total"`
	Processed           int                `json:"processed"`
	PerCategoryCounts   map[Category]int   `json:"per_category_counts"`
	PerDepartmentCounts map[Department]int `json:"per_department_counts"`
	EscalationRate      float64            `json:"escalation_rate"`
}
