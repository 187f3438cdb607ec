package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/llm-dispatch/services/providers"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GoogleAdapter implements the Provider interface for the Gemini API.
// Requests use the documented contents/parts schema.
type GoogleAdapter struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGoogleAdapter creates a new Gemini adapter
func NewGoogleAdapter(ctx context.Context, config providers.ProviderConfig, logger *zap.Logger) (*GoogleAdapter, error) {
	if config.APIKey == "" {
		return nil, errors.New("google API key is required")
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = config.BaseURL
	}
	if len(config.Headers) > 0 {
		clientConfig.HTTPOptions.Headers = http.Header{}
		for k, v := range config.Headers {
			clientConfig.HTTPOptions.Headers.Set(k, v)
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GoogleAdapter{
		client: client,
		logger: logger,
	}, nil
}

// Name returns the provider name
func (a *GoogleAdapter) Name() string {
	return "google"
}

// ChatCompletion performs a single generateContent call
func (a *GoogleAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	contents, genConfig := buildGenerateContent(req)

	a.logger.Debug("sending request to Google",
		zap.String("model", req.Model),
		zap.Int("contents", len(contents)),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Int("content_length", req.ContentLength()))

	resp, err := a.client.Models.GenerateContent(ctx, req.Model, contents, genConfig)
	if err != nil {
		return nil, a.wrapError(err)
	}

	if len(resp.Candidates) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "Response contained no candidates", 0, false, nil)
	}

	text := resp.Text()

	a.logger.Debug("received response from Google",
		zap.String("model_version", resp.ModelVersion),
		zap.String("finish_reason", string(resp.Candidates[0].FinishReason)),
		zap.Int("text_length", len(text)))

	out := &providers.ChatResponse{
		ID:           resp.ResponseID,
		Model:        resp.ModelVersion,
		Provider:     a.Name(),
		Text:         text,
		FinishReason: string(resp.Candidates[0].FinishReason),
		Latency:      time.Since(startTime),
		Raw:          resp,
	}
	if resp.UsageMetadata != nil {
		out.Usage = providers.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out, nil
}

// buildGenerateContent maps unified messages onto Gemini contents.
// Gemini names the assistant role "model"; system text goes to SystemInstruction.
func buildGenerateContent(req *providers.ChatRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	genConfig := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			genConfig.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, genConfig
}

func (a *GoogleAdapter) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return providers.NewProviderError(a.Name(), apiErr.Status, apiErr.Message, apiErr.Code, providers.IsTransientStatus(apiErr.Code), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return providers.NewProviderError(a.Name(), apiErrPtr.Status, apiErrPtr.Message, apiErrPtr.Code, providers.IsTransientStatus(apiErrPtr.Code), err)
	}
	return providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
}
