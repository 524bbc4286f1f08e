package openai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/metrics"
)

const endpointChat = "chat"

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// CompleterConfig holds the chat provider settings.
type CompleterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete implements domain.Completer with a single-shot request.
func (c *Completer) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	apiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, apiReq)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(endpointChat, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(endpointChat, c.model, "api_error").Inc()
		return domain.CompletionResult{}, parseAPIError(err, domain.ErrCompletionProvider)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(endpointChat, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(endpointChat, c.model, "empty_response").Inc()
		return domain.CompletionResult{}, domain.ErrCompletionProvider
	}

	metrics.LLMRequestsTotal.WithLabelValues(endpointChat, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(endpointChat, c.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(endpointChat, c.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(endpointChat, c.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	return domain.CompletionResult{
		Content:      resp.Choices[0].Message.Content,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return err
	}
	return nil
}
