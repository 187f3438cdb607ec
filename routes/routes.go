package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/llm-dispatch/app"
	"github.com/upb/llm-dispatch/handlers"
	"github.com/upb/llm-dispatch/middleware"
	"github.com/upb/llm-dispatch/utils"
)

// RequestTimeout bounds a single HTTP request. It covers every retry
// attempt plus the delays between them.
const RequestTimeout = 5 * time.Minute

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.PropagateRequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	health := handlers.NewHealthHandler(db, deps.ProviderRegistry.Count, deps.Logger)
	dispatch := handlers.NewDispatchHandler(deps.Dispatcher, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Prometheus scrape endpoint
	if deps.MetricsRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Post("/completions", dispatch.HandleCompletion)
		r.Get("/providers", dispatch.HandleListProviders)
		r.Get("/requests", dispatch.HandleListRequests)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
