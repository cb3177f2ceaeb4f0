package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/platform/config"
	"github.com/lueurxax/scholarfeed/internal/platform/observability"
)

const (
	rateLimiterBurst = 5
	statusSuccess    = "success"
	statusError      = "error"
)

// OpenAIClient talks to any OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	cfg         config.LLMConfig
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	circuit     *circuitBreaker
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAI(cfg config.LLMConfig, logger *zerolog.Logger) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}

	return &OpenAIClient{
		cfg:         cfg,
		client:      openai.NewClientWithConfig(clientCfg),
		logger:      logger,
		rateLimiter: rate.NewLimiter(limit, rateLimiterBurst),
		circuit:     newCircuitBreaker(cfg.CircuitThreshold, cfg.CircuitTimeout, logger),
	}
}

// CompleteJSON sends a schema-constrained chat completion and returns the
// message content. Transport failures count against the circuit breaker.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, req StructuredRequest) (string, error) {
	if err := c.circuit.check(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	model := c.resolveModel(req.Model)

	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(model, req))

	observability.LLMRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		c.circuit.recordFailure()
		observability.LLMRequests.WithLabelValues(model, statusError).Inc()

		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	c.circuit.recordSuccess()
	observability.LLMRequests.WithLabelValues(model, statusSuccess).Inc()
	observability.LLMTokensPrompt.WithLabelValues(model).Add(float64(resp.Usage.PromptTokens))
	observability.LLMTokensCompletion.WithLabelValues(model).Add(float64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return "", coreerrors.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	c.logger.Debug().
		Str("model", model).
		Str("schema", req.SchemaName).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("structured completion received")

	return content, nil
}

func (c *OpenAIClient) buildRequest(model string, req StructuredRequest) openai.ChatCompletionRequest {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}

	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		}
	} else {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return chatReq
}

func (c *OpenAIClient) resolveModel(model string) string {
	if model != "" {
		return model
	}

	if c.cfg.Model != "" {
		return c.cfg.Model
	}

	return openai.GPT4oMini
}
