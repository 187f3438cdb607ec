package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-dispatch/models"
	"github.com/upb/llm-dispatch/services"
	"github.com/upb/llm-dispatch/services/providers"
	"go.uber.org/zap"
)

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) SendLLMRequest(ctx context.Context, provider, model, message string) (string, error) {
	args := m.Called(ctx, provider, model, message)
	return args.String(0), args.Error(1)
}

func (m *MockDispatcher) Providers() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockDispatcher) RecentRequests(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RequestLog), args.Error(1)
}

func postCompletion(h *DispatchHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleCompletion(w, req)
	return w
}

func TestHandleCompletion(t *testing.T) {
	logger := zap.NewNop()

	t.Run("success", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("SendLLMRequest", mock.Anything, "OpenAI", "gpt-4", "hello").Return("hi there", nil)
		h := NewDispatchHandler(dispatcher, logger)

		w := postCompletion(h, `{"provider":"OpenAI","model":"gpt-4","message":"hello"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data CompletionResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "hi there", response.Data.Text)
		assert.Equal(t, "openai", response.Data.Provider)
		assert.Equal(t, "gpt-4", response.Data.Model)
		dispatcher.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		h := NewDispatchHandler(dispatcher, logger)

		w := postCompletion(h, `{"provider":"openai"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "model is required")
		dispatcher.AssertNotCalled(t, "SendLLMRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := NewDispatchHandler(new(MockDispatcher), logger)

		w := postCompletion(h, `{"provider":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid JSON body")
	})

	t.Run("unsupported provider", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("SendLLMRequest", mock.Anything, "bogus", "x", "y").Return("", services.UnsupportedProvider("bogus"))
		h := NewDispatchHandler(dispatcher, logger)

		w := postCompletion(h, `{"provider":"bogus","model":"x","message":"y"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported LLM provider: bogus")
	})

	t.Run("provider not configured", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("SendLLMRequest", mock.Anything, "google", "gemini-1.5-pro", "y").Return("", services.ProviderNotConfigured("google"))
		h := NewDispatchHandler(dispatcher, logger)

		w := postCompletion(h, `{"provider":"google","model":"gemini-1.5-pro","message":"y"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("provider failure after retries", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		provErr := providers.NewProviderError("anthropic", "API_ERROR", "overloaded", 529, true, nil)
		dispatcher.On("SendLLMRequest", mock.Anything, "anthropic", "claude", "y").Return("", provErr)
		h := NewDispatchHandler(dispatcher, logger)

		w := postCompletion(h, `{"provider":"anthropic","model":"claude","message":"y"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "overloaded")
	})
}

func TestHandleListProviders(t *testing.T) {
	dispatcher := new(MockDispatcher)
	dispatcher.On("Providers").Return([]string{"openai", "google"})
	h := NewDispatchHandler(dispatcher, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleListProviders(w, httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Data ProvidersResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, []string{"openai", "google"}, response.Data.Providers)
}

func TestHandleListRequests(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns rows", func(t *testing.T) {
		row := models.NewRequestLog("req-1", "openai", "gpt-4")
		row.MarkAsSucceeded(1, 0)

		dispatcher := new(MockDispatcher)
		dispatcher.On("RecentRequests", mock.Anything, 5).Return([]*models.RequestLog{row}, nil)
		h := NewDispatchHandler(dispatcher, logger)

		w := httptest.NewRecorder()
		h.HandleListRequests(w, httptest.NewRequest(http.MethodGet, "/api/v1/requests?limit=5", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data []models.RequestLog `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, models.RequestStatusSucceeded, response.Data[0].Status)
		dispatcher.AssertExpectations(t)
	})

	t.Run("default limit", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("RecentRequests", mock.Anything, 0).Return([]*models.RequestLog{}, nil)
		h := NewDispatchHandler(dispatcher, logger)

		w := httptest.NewRecorder()
		h.HandleListRequests(w, httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		dispatcher.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		h := NewDispatchHandler(new(MockDispatcher), logger)

		w := httptest.NewRecorder()
		h.HandleListRequests(w, httptest.NewRequest(http.MethodGet, "/api/v1/requests?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("request log disabled", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("RecentRequests", mock.Anything, 0).Return(nil, services.ErrRequestLogDisabled)
		h := NewDispatchHandler(dispatcher, logger)

		w := httptest.NewRecorder()
		h.HandleListRequests(w, httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("RecentRequests", mock.Anything, 0).Return(nil, services.WrapInternal("failed to list request logs", errors.New("db")))
		h := NewDispatchHandler(dispatcher, logger)

		w := httptest.NewRecorder()
		h.HandleListRequests(w, httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db")
	})
}
