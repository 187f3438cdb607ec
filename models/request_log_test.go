package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestLog(t *testing.T) {
	log := NewRequestLog("req-1", "openai", "gpt-4")

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, "req-1", log.RequestID)
	assert.Equal(t, "openai", log.Provider)
	assert.Equal(t, "gpt-4", log.Model)
	assert.Empty(t, log.Status)
	assert.False(t, log.CreatedAt.IsZero())
}

func TestRequestLog_TableName(t *testing.T) {
	assert.Equal(t, "llm_request_logs", RequestLog{}.TableName())
}

func TestRequestLog_MarkAsSucceeded(t *testing.T) {
	log := NewRequestLog("", "anthropic", "claude")
	log.MarkAsSucceeded(2, 1500*time.Millisecond)

	assert.Equal(t, RequestStatusSucceeded, log.Status)
	assert.Equal(t, 2, log.Attempts)
	assert.Equal(t, int64(1500), log.LatencyMs)
	assert.Nil(t, log.ErrorMessage)
}

func TestRequestLog_MarkAsFailed(t *testing.T) {
	log := NewRequestLog("", "google", "gemini")
	log.MarkAsFailed(3, 2*time.Second, errors.New("upstream 500"))

	assert.Equal(t, RequestStatusFailed, log.Status)
	assert.Equal(t, 3, log.Attempts)
	require.NotNil(t, log.ErrorMessage)
	assert.Equal(t, "upstream 500", *log.ErrorMessage)
}

func TestRequestLog_MarkAsRejected(t *testing.T) {
	log := NewRequestLog("", "bogus", "x")
	log.MarkAsRejected(errors.New("unsupported LLM provider: bogus"))

	assert.Equal(t, RequestStatusRejected, log.Status)
	assert.Zero(t, log.Attempts)
	require.NotNil(t, log.ErrorMessage)
}

func TestRequestLog_JSONOmitsNilError(t *testing.T) {
	log := NewRequestLog("req-1", "openai", "gpt-4")
	log.MarkAsSucceeded(1, time.Millisecond)

	data, err := json.Marshal(log)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "error_message")
	assert.Contains(t, string(data), `"status":"succeeded"`)
}
