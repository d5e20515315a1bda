package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobGhostWordCleanup  = "ghost-word-cleanup"
	JobGhostWordSweep    = "ghost-word-sweep"
	JobMissedReviewReset = "missed-review-reset"
)

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job is a queued maintenance task. Reference carries the job argument: the
// word for a ghost cleanup, the reference date for a missed-review reset.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"`
	Reference    string          `json:"reference"`
	Status       string          `json:"status"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types
const (
	EventDayCompleted = "day_completed"
	EventReviewsReset = "reviews_reset"
	EventJobFinished  = "job_finished"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type DayCompletedEvent struct {
	Date          string `json:"date"`
	CurrentStreak int    `json:"current_streak"`
}

type ReviewsResetEvent struct {
	Date  string   `json:"date"`
	Words []string `json:"words"`
}

type JobFinishedEvent struct {
	JobID  uuid.UUID `json:"job_id"`
	Type   string    `json:"type"`
	Status string    `json:"status"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
