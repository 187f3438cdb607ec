package anthropic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/upb/llm-dispatch/services/providers"
	"go.uber.org/zap"
)

// AnthropicAdapter implements the Provider interface on top of the Anthropic SDK
type AnthropicAdapter struct {
	client anthropic.Client
	logger *zap.Logger
}

// NewAnthropicAdapter creates a new Anthropic adapter.
// SDK-level retries are disabled; attempts are owned by the caller.
func NewAnthropicAdapter(config providers.ProviderConfig, logger *zap.Logger) *AnthropicAdapter {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(config.Timeout),
	}
	if config.BaseURL != "" {
		baseURL := config.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &AnthropicAdapter{
		client: anthropic.NewClient(opts...),
		logger: logger,
	}
}

// Name returns the provider name
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// ChatCompletion performs a single Messages API call
func (a *AnthropicAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	params := buildMessageParams(req)

	a.logger.Debug("sending request to Anthropic",
		zap.String("model", req.Model),
		zap.Int("messages", len(params.Messages)),
		zap.Int64("max_tokens", params.MaxTokens),
		zap.Int("content_length", req.ContentLength()))

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, a.wrapError(err)
	}

	if len(message.Content) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "Response contained no content blocks", 0, false, nil)
	}

	a.logger.Debug("received response from Anthropic",
		zap.String("id", message.ID),
		zap.String("stop_reason", string(message.StopReason)),
		zap.Int("text_length", len(message.Content[0].Text)))

	inputTokens := int(message.Usage.InputTokens)
	outputTokens := int(message.Usage.OutputTokens)

	return &providers.ChatResponse{
		ID:           message.ID,
		Model:        string(message.Model),
		Provider:     a.Name(),
		Text:         message.Content[0].Text,
		FinishReason: string(message.StopReason),
		Usage: providers.Usage{
			PromptTokens:     inputTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      inputTokens + outputTokens,
		},
		Latency: time.Since(startTime),
		Raw:     message,
	}, nil
}

// buildMessageParams converts unified request to Messages API params.
// System messages are lifted into the System field.
func buildMessageParams(req *providers.ChatRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = providers.DefaultMaxTokens
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return params
}

func (a *AnthropicAdapter) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return providers.NewProviderError(
			a.Name(),
			"API_ERROR",
			"Messages API request failed",
			apiErr.StatusCode,
			providers.IsTransientStatus(apiErr.StatusCode),
			err,
		)
	}
	return providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
}
