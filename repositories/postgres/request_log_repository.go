package postgres

import (
	"context"
	"fmt"

	"github.com/upb/llm-dispatch/models"
	"github.com/upb/llm-dispatch/repositories"
	"go.uber.org/zap"
)

// DefaultListLimit caps ListRecent when the caller passes a non-positive limit
const DefaultListLimit = 50

// MaxListLimit is the largest page ListRecent returns
const MaxListLimit = 500

// RequestLogRepository implements the repositories.RequestLogRepository interface
type RequestLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRequestLogRepository creates a new request log repository
func NewRequestLogRepository(db *DB, logger *zap.Logger) repositories.RequestLogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestLogRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new request log row
func (r *RequestLogRepository) Insert(ctx context.Context, log *models.RequestLog) error {
	query := `
		INSERT INTO llm_request_logs (
			id, request_id, provider, model, status, attempts, latency_ms, error_message, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.RequestID,
		log.Provider,
		log.Model,
		log.Status,
		log.Attempts,
		log.LatencyMs,
		log.ErrorMessage,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request log: %w", err)
	}

	r.logger.Debug("request log inserted",
		zap.String("id", log.ID.String()),
		zap.String("status", string(log.Status)))
	return nil
}

// ListRecent returns the newest rows first
func (r *RequestLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
		SELECT id, request_id, provider, model, status, attempts, latency_ms, error_message, created_at
		FROM llm_request_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.RequestLog, 0, limit)
	for rows.Next() {
		log := &models.RequestLog{}
		if err := rows.Scan(
			&log.ID,
			&log.RequestID,
			&log.Provider,
			&log.Model,
			&log.Status,
			&log.Attempts,
			&log.LatencyMs,
			&log.ErrorMessage,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate request logs: %w", err)
	}

	return logs, nil
}
