package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultMaxTokens is the generation cap applied to every dispatched request
const DefaultMaxTokens = 1024

// ErrUnsupportedProvider is returned by ParseKind for unknown provider tags
var ErrUnsupportedProvider = errors.New("unsupported LLM provider")

// Kind identifies one of the supported LLM providers
type Kind int

const (
	KindOpenAI Kind = iota + 1
	KindAnthropic
	KindGoogle
)

// String returns the lower-case provider tag
func (k Kind) String() string {
	switch k {
	case KindOpenAI:
		return "openai"
	case KindAnthropic:
		return "anthropic"
	case KindGoogle:
		return "google"
	default:
		return "unknown"
	}
}

// Kinds returns every supported provider kind
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindAnthropic, KindGoogle}
}

// ParseKind maps a provider tag to its Kind. Matching is case-insensitive.
func ParseKind(tag string) (Kind, error) {
	switch strings.ToLower(tag) {
	case "openai":
		return KindOpenAI, nil
	case "anthropic":
		return KindAnthropic, nil
	case "google":
		return KindGoogle, nil
	default:
		return 0, ErrUnsupportedProvider
	}
}

// Provider represents a single LLM provider client
type Provider interface {
	// Name returns the provider tag (e.g., "openai", "anthropic", "google")
	Name() string

	// ChatCompletion performs exactly one completion call, without retries
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ChatRequest represents a unified chat completion request
type ChatRequest struct {
	// Model identifier, forwarded verbatim
	Model string `json:"model"`

	// Messages in the conversation
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	// Role can be "system", "user", or "assistant"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// NewUserRequest builds a single-turn request holding one user message
func NewUserRequest(model, message string, maxTokens int) *ChatRequest {
	return &ChatRequest{
		Model:     model,
		Messages:  []Message{{Role: "user", Content: message}},
		MaxTokens: maxTokens,
	}
}

// ContentLength is the total size in bytes of all message contents
func (r *ChatRequest) ContentLength() int {
	n := 0
	for _, m := range r.Messages {
		n += len(m.Content)
	}
	return n
}

// ChatResponse is the outcome of one successful provider call
type ChatResponse struct {
	// ID is the provider-assigned identifier, when one is returned
	ID string `json:"id"`

	// Model reported by the provider
	Model string `json:"model"`

	// Provider that handled the request
	Provider string `json:"provider"`

	// Text is the extracted completion text
	Text string `json:"text"`

	// FinishReason as reported by the provider
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage statistics
	Usage Usage `json:"usage"`

	// Latency of the call
	Latency time.Duration `json:"latency"`

	// Raw is the provider-native response value
	Raw interface{} `json:"-"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for a single HTTP exchange
	Timeout time.Duration

	// Additional headers
	Headers map[string]string

	// HTTPClient overrides the transport used by the adapter
	HTTPClient *http.Client
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}

// IsTransientStatus reports whether an HTTP status is worth retrying
func IsTransientStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
