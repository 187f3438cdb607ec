package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/llm-dispatch/internal/observability"
	"github.com/upb/llm-dispatch/models"
	"github.com/upb/llm-dispatch/repositories"
	"github.com/upb/llm-dispatch/services"
	"github.com/upb/llm-dispatch/services/providers"
	"go.uber.org/zap"
)

const requestLogTimeout = 3 * time.Second

// Service forwards a single prompt to the provider named by a tag and
// retries failed attempts under a constant-delay policy.
// It holds no per-call state and is safe for concurrent use.
type Service struct {
	registry    *providers.Registry
	policy      providers.RetryPolicy
	maxTokens   int
	logger      *zap.Logger
	metrics     observability.Metrics
	requestLogs repositories.RequestLogRepository
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Service
type Option func(*Service)

// WithMaxTokens overrides the max_tokens sent to providers
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithMetrics records dispatch and attempt metrics
func WithMetrics(m observability.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRequestLog stores one row per call
func WithRequestLog(repo repositories.RequestLogRepository) Option {
	return func(s *Service) {
		s.requestLogs = repo
	}
}

// WithSleep replaces the wait between attempts
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// NewService creates a new dispatch service
func NewService(registry *providers.Registry, policy providers.RetryPolicy, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		registry:  registry,
		policy:    policy,
		maxTokens: providers.DefaultMaxTokens,
		logger:    logger,
		metrics:   observability.NopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendLLMRequest sends message to the given provider and model and returns
// the reply text. The provider tag is matched case-insensitively. Unknown
// tags fail immediately with services.ErrUnsupportedProvider. When every
// attempt fails the error of the last attempt is returned as is.
func (s *Service) SendLLMRequest(ctx context.Context, provider, model, message string) (string, error) {
	start := time.Now()
	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	record := models.NewRequestLog(requestID, provider, model)

	kind, err := providers.ParseKind(provider)
	if err != nil {
		return "", s.reject(ctx, record, "unsupported", services.UnsupportedProvider(provider))
	}
	record.Provider = kind.String()

	client, err := s.registry.Get(kind)
	if err != nil {
		return "", s.reject(ctx, record, kind.String(), services.ProviderNotConfigured(kind.String()))
	}

	logger := s.logger.With(
		zap.String("dispatch_id", record.ID.String()),
		zap.String("request_id", requestID),
		zap.String("provider", kind.String()),
		zap.String("model", model),
	)

	req := providers.NewUserRequest(model, message, s.maxTokens)
	attempts := 0

	hooks := providers.RetryHooks{
		OnAttemptError: func(attempt int, err error) {
			s.metrics.RecordAttempt(kind.String(), "error")
			logger.Error("LLM request attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", s.policy.MaxAttempts),
				zap.Error(err))
		},
		Sleep: s.sleep,
	}

	resp, err := providers.Retry(ctx, s.policy, hooks, func(ctx context.Context, attempt int) (*providers.ChatResponse, error) {
		attempts = attempt
		logger.Debug("sending LLM request", zap.Int("attempt", attempt))
		return client.ChatCompletion(ctx, req)
	})
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.RecordDispatch(kind.String(), string(models.RequestStatusFailed), attempts, elapsed)
		record.MarkAsFailed(attempts, elapsed, err)
		s.storeRequestLog(ctx, record)
		return "", err
	}

	s.metrics.RecordAttempt(kind.String(), "success")
	s.metrics.RecordDispatch(kind.String(), string(models.RequestStatusSucceeded), attempts, elapsed)
	record.MarkAsSucceeded(attempts, elapsed)
	s.storeRequestLog(ctx, record)

	logger.Info("LLM request succeeded",
		zap.Int("attempts", attempts),
		zap.Duration("latency", elapsed))

	return resp.Text, nil
}

// Providers returns the tags of the configured providers
func (s *Service) Providers() []string {
	return s.registry.Names()
}

// RequestLogEnabled reports whether calls are being recorded
func (s *Service) RequestLogEnabled() bool {
	return s.requestLogs != nil
}

// RecentRequests returns the newest request log rows
func (s *Service) RecentRequests(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	if s.requestLogs == nil {
		return nil, services.ErrRequestLogDisabled
	}
	logs, err := s.requestLogs.ListRecent(ctx, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to list request logs", err)
	}
	return logs, nil
}

// reject records a call that never reached a provider. label keeps raw
// tags out of metric labels.
func (s *Service) reject(ctx context.Context, record *models.RequestLog, label string, err *services.DomainError) error {
	s.logger.Warn("LLM request rejected",
		zap.String("provider", record.Provider),
		zap.String("model", record.Model),
		zap.Error(err))

	s.metrics.RecordDispatch(label, string(models.RequestStatusRejected), 0, 0)
	record.MarkAsRejected(err)
	s.storeRequestLog(ctx, record)
	return err
}

func (s *Service) storeRequestLog(ctx context.Context, record *models.RequestLog) {
	if s.requestLogs == nil {
		return
	}

	// Recorded even when the caller's context was cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestLogTimeout)
	defer cancel()

	if err := s.requestLogs.Insert(ctx, record); err != nil {
		s.logger.Warn("failed to store request log",
			zap.String("dispatch_id", record.ID.String()),
			zap.Error(err))
	}
}
