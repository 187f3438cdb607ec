package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/upb/llm-dispatch/middleware"
	"github.com/upb/llm-dispatch/models"
	"github.com/upb/llm-dispatch/services/providers"
	"github.com/upb/llm-dispatch/utils"
	"go.uber.org/zap"
)

// CompletionRequest is the body of POST /api/v1/completions
type CompletionRequest struct {
	Provider string `json:"provider" validate:"required,max=64"`
	Model    string `json:"model" validate:"required,max=255"`
	Message  string `json:"message" validate:"required"`
}

// CompletionResponse carries the reply text
type CompletionResponse struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Text     string `json:"text"`
}

// ProvidersResponse lists configured provider tags
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// Dispatcher is the service behind the dispatch endpoints
type Dispatcher interface {
	SendLLMRequest(ctx context.Context, provider, model, message string) (string, error)
	Providers() []string
	RecentRequests(ctx context.Context, limit int) ([]*models.RequestLog, error)
}

// DispatchHandler handles the LLM dispatch endpoints
type DispatchHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewDispatchHandler creates a new DispatchHandler
func NewDispatchHandler(dispatcher Dispatcher, logger *zap.Logger) *DispatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleCompletion handles POST /api/v1/completions
func (h *DispatchHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req CompletionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.logger.Debug("invalid completion request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	text, err := h.dispatcher.SendLLMRequest(ctx, req.Provider, req.Model, req.Message)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	// SendLLMRequest only succeeds for known tags
	provider := req.Provider
	if kind, err := providers.ParseKind(req.Provider); err == nil {
		provider = kind.String()
	}

	resp := CompletionResponse{
		Provider: provider,
		Model:    req.Model,
		Text:     text,
	}
	if err := utils.WriteOK(w, resp); err != nil {
		h.logger.Error("failed to write completion response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleListProviders handles GET /api/v1/providers
func (h *DispatchHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, ProvidersResponse{Providers: h.dispatcher.Providers()})
}

// HandleListRequests handles GET /api/v1/requests?limit=N
func (h *DispatchHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = utils.WriteBadRequest(w, "limit must be a positive integer", map[string]interface{}{"limit": raw})
			return
		}
		limit = n
	}

	logs, err := h.dispatcher.RecentRequests(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, logs)
}
