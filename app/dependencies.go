package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/llm-dispatch/config"
	"github.com/upb/llm-dispatch/internal/observability"
	"github.com/upb/llm-dispatch/middleware"
	"github.com/upb/llm-dispatch/repositories"
	"github.com/upb/llm-dispatch/repositories/postgres"
	"github.com/upb/llm-dispatch/services/dispatch"
	"github.com/upb/llm-dispatch/services/providers"
	"github.com/upb/llm-dispatch/services/providers/anthropic"
	"github.com/upb/llm-dispatch/services/providers/google"
	"github.com/upb/llm-dispatch/services/providers/openai"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when the request log is disabled
	Logger *zap.Logger

	// Metrics. MetricsRegistry is nil when metrics are disabled.
	MetricsRegistry *prometheus.Registry
	Metrics         observability.Metrics

	// Repositories
	RequestLogs repositories.RequestLogRepository

	// Providers and dispatch
	ProviderRegistry *providers.Registry
	Dispatcher       *dispatch.Service

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
}

// Option adjusts how dependencies are built
type Option func(*options)

type options struct {
	db *postgres.DB
}

// WithDatabase uses an existing connection instead of opening one from config
func WithDatabase(db *postgres.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg, o.db); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initMetrics(cfg); err != nil {
		deps.closeDB()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := deps.initProviders(ctx, cfg); err != nil {
		deps.closeDB()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initDispatcher(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Strings("providers", deps.ProviderRegistry.Names()),
		zap.Bool("request_log", deps.RequestLogs != nil),
		zap.Bool("metrics", deps.MetricsRegistry != nil),
		zap.Bool("auth", deps.AuthMiddleware.Enabled()))
	return deps, nil
}

// initDatabase opens PostgreSQL when configured and builds the request log repository
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config, db *postgres.DB) error {
	if db == nil {
		if cfg.Database == nil {
			d.Logger.Info("no database configured, request log disabled")
			return nil
		}
		var err error
		db, err = postgres.NewDB(ctx, *cfg.Database, d.Logger)
		if err != nil {
			return err
		}
	}
	d.DB = db

	if cfg.Database == nil || cfg.Database.InitSchema {
		if err := db.InitSchema(ctx); err != nil {
			d.closeDB()
			return err
		}
	}

	d.RequestLogs = postgres.NewRequestLogRepository(db, d.Logger)
	d.Logger.Info("repositories initialized")
	return nil
}

// initMetrics builds a dedicated Prometheus registry
func (d *Dependencies) initMetrics(cfg *config.Config) error {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := observability.NewPrometheusMetrics(reg)
	if err != nil {
		return err
	}

	d.MetricsRegistry = reg
	d.Metrics = m
	return nil
}

// initProviders registers a client for every provider that has credentials
func (d *Dependencies) initProviders(ctx context.Context, cfg *config.Config) error {
	registry := providers.NewRegistry()

	if cfg.Providers.OpenAI.Enabled() {
		adapter := openai.NewOpenAIAdapter(providerConfig(cfg.Providers.OpenAI), d.Logger)
		if err := registry.Register(providers.KindOpenAI, adapter); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider")
	}

	if cfg.Providers.Anthropic.Enabled() {
		adapter := anthropic.NewAnthropicAdapter(providerConfig(cfg.Providers.Anthropic), d.Logger)
		if err := registry.Register(providers.KindAnthropic, adapter); err != nil {
			return err
		}
		d.Logger.Info("registered Anthropic provider")
	}

	if cfg.Providers.Google.Enabled() {
		adapter, err := google.NewGoogleAdapter(ctx, providerConfig(cfg.Providers.Google), d.Logger)
		if err != nil {
			return err
		}
		if err := registry.Register(providers.KindGoogle, adapter); err != nil {
			return err
		}
		d.Logger.Info("registered Google provider")
	}

	if registry.Count() == 0 {
		d.Logger.Warn("no LLM providers configured")
	}

	d.ProviderRegistry = registry
	return nil
}

// initDispatcher builds the dispatch service from the retry settings
func (d *Dependencies) initDispatcher(cfg *config.Config) {
	d.Dispatcher = dispatch.NewService(d.ProviderRegistry, RetryPolicy(cfg.Dispatch), d.Logger,
		dispatch.WithMaxTokens(cfg.Dispatch.MaxTokens),
		dispatch.WithMetrics(d.Metrics),
		dispatch.WithRequestLog(d.RequestLogs),
	)
}

// initAuth enables bearer auth when a secret is configured
func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("AUTH_JWT_SECRET not set, API is unauthenticated")
		d.AuthMiddleware = middleware.NewAuthMiddleware(nil, d.Logger)
		return
	}
	validator := middleware.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
}

// RetryPolicy converts dispatch settings to a providers.RetryPolicy
func RetryPolicy(cfg config.DispatchConfig) providers.RetryPolicy {
	policy := providers.RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		Delay:          cfg.RetryDelay,
		AttemptTimeout: cfg.AttemptTimeout,
	}
	if cfg.SkipPermanentErrors {
		policy.ShouldRetry = providers.PermanentErrorsOnly
	}
	return policy
}

func providerConfig(cfg config.ProviderConfig) providers.ProviderConfig {
	return providers.ProviderConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}
}

func (d *Dependencies) closeDB() error {
	if d.DB == nil {
		return nil
	}
	err := d.DB.Close()
	d.DB = nil
	return err
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if err := d.closeDB(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
