package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the final outcome of a dispatched request
type RequestStatus string

const (
	RequestStatusSucceeded RequestStatus = "succeeded"
	RequestStatusFailed    RequestStatus = "failed"
	RequestStatusRejected  RequestStatus = "rejected" // unknown or unconfigured provider
)

// RequestLog is one row per SendLLMRequest call
type RequestLog struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	RequestID    string        `json:"request_id" db:"request_id"`
	Provider     string        `json:"provider" db:"provider"`
	Model        string        `json:"model" db:"model"`
	Status       RequestStatus `json:"status" db:"status"`
	Attempts     int           `json:"attempts" db:"attempts"`
	LatencyMs    int64         `json:"latency_ms" db:"latency_ms"`
	ErrorMessage *string       `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the RequestLog model
func (RequestLog) TableName() string {
	return "llm_request_logs"
}

// NewRequestLog creates a new RequestLog instance
func NewRequestLog(requestID, provider, model string) *RequestLog {
	return &RequestLog{
		ID:        uuid.New(),
		RequestID: requestID,
		Provider:  provider,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
}

// MarkAsSucceeded records a successful outcome
func (l *RequestLog) MarkAsSucceeded(attempts int, latency time.Duration) {
	l.Status = RequestStatusSucceeded
	l.Attempts = attempts
	l.LatencyMs = latency.Milliseconds()
	l.ErrorMessage = nil
}

// MarkAsFailed records the error of the final attempt
func (l *RequestLog) MarkAsFailed(attempts int, latency time.Duration, err error) {
	l.Status = RequestStatusFailed
	l.Attempts = attempts
	l.LatencyMs = latency.Milliseconds()
	l.setError(err)
}

// MarkAsRejected records a request that never reached a provider
func (l *RequestLog) MarkAsRejected(err error) {
	l.Status = RequestStatusRejected
	l.Attempts = 0
	l.LatencyMs = 0
	l.setError(err)
}

func (l *RequestLog) setError(err error) {
	if err == nil {
		l.ErrorMessage = nil
		return
	}
	msg := err.Error()
	l.ErrorMessage = &msg
}
