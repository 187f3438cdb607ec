package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-dispatch/services/providers"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const messageResponse = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-20250514",
	"content": [
		{"type": "text", "text": "first block"},
		{"type": "text", "text": "second block"}
	],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 12, "output_tokens": 7}
}`

func TestAnthropicAdapter_ChatCompletion(t *testing.T) {
	var captured map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageResponse))
	}))
	defer server.Close()

	adapter := NewAnthropicAdapter(providers.ProviderConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	assert.Equal(t, "anthropic", adapter.Name())

	resp, err := adapter.ChatCompletion(context.Background(),
		providers.NewUserRequest("claude-sonnet-4-20250514", "hello", providers.DefaultMaxTokens))
	require.NoError(t, err)

	assert.Equal(t, "first block", resp.Text)
	assert.Equal(t, "msg_01", resp.ID)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 19, resp.Usage.TotalTokens)
	assert.NotNil(t, resp.Raw)

	assert.Equal(t, "claude-sonnet-4-20250514", captured["model"])
	assert.EqualValues(t, 1024, captured["max_tokens"])
	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]interface{})["role"])
}

func TestAnthropicAdapter_ChatCompletion_DebugLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageResponse))
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewAnthropicAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL}, zap.New(core))

	_, err := adapter.ChatCompletion(context.Background(),
		providers.NewUserRequest("claude-sonnet-4-20250514", "hello there", providers.DefaultMaxTokens))
	require.NoError(t, err)

	sent := logs.FilterMessage("sending request to Anthropic").All()
	require.Len(t, sent, 1)
	fields := sent[0].ContextMap()
	assert.Equal(t, "claude-sonnet-4-20250514", fields["model"])
	assert.EqualValues(t, 1024, fields["max_tokens"])
	assert.EqualValues(t, len("hello there"), fields["content_length"])

	received := logs.FilterMessage("received response from Anthropic").All()
	require.Len(t, received, 1)
	fields = received[0].ContextMap()
	assert.Equal(t, "msg_01", fields["id"])
	assert.Equal(t, "end_turn", fields["stop_reason"])
	assert.EqualValues(t, len("first block"), fields["text_length"])
}

func TestAnthropicAdapter_ChatCompletion_APIError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{name: "authentication error", status: http.StatusUnauthorized, wantRetryable: false},
		{name: "overloaded", status: 529, wantRetryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"nope"}}`))
			}))
			defer server.Close()

			adapter := NewAnthropicAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL + "/"}, nil)

			_, err := adapter.ChatCompletion(context.Background(), providers.NewUserRequest("claude", "hello", 10))
			require.Error(t, err)

			var provErr *providers.ProviderError
			require.True(t, errors.As(err, &provErr))
			assert.Equal(t, tt.status, provErr.StatusCode)
			assert.Equal(t, tt.wantRetryable, provErr.Retryable)
			assert.Equal(t, 1, calls, "SDK retries must be disabled")
		})
	}
}

func TestAnthropicAdapter_ChatCompletion_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","model":"claude","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer server.Close()

	adapter := NewAnthropicAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL}, nil)

	_, err := adapter.ChatCompletion(context.Background(), providers.NewUserRequest("claude", "hello", 10))

	var provErr *providers.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "EMPTY_RESPONSE", provErr.Code)
}

func TestBuildMessageParams(t *testing.T) {
	params := buildMessageParams(&providers.ChatRequest{
		Model: "claude",
		Messages: []providers.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "again"},
		},
	})

	assert.EqualValues(t, providers.DefaultMaxTokens, params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "be brief", params.System[0].Text)
	require.Len(t, params.Messages, 3)
	assert.Equal(t, "assistant", string(params.Messages[1].Role))
}
