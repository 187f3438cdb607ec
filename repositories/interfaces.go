package repositories

import (
	"context"

	"github.com/upb/llm-dispatch/models"
)

// RequestLogRepository handles request log data operations
type RequestLogRepository interface {
	// Insert inserts a new request log row
	Insert(ctx context.Context, log *models.RequestLog) error

	// ListRecent returns the newest rows first, at most limit
	ListRecent(ctx context.Context, limit int) ([]*models.RequestLog, error)
}
