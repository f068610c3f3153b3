// CLAUDE:SUMMARY OpenAI-backed oracle client with tier→model mapping and per-call timeout.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures the OpenAI-backed oracle client.
type Config struct {
	// APIKey for the service. Required.
	APIKey string `json:"-" yaml:"-"`

	// BaseURL overrides the API endpoint (for compatible gateways).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// FastModel handles classification calls. Default: gpt-4o-mini.
	FastModel string `json:"fast_model" yaml:"fast_model"`

	// DeepModel handles content rewrites. Default: gpt-4o.
	DeepModel string `json:"deep_model" yaml:"deep_model"`

	// Timeout bounds every Complete call. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.FastModel == "" {
		c.FastModel = openai.GPT4oMini
	}
	if c.DeepModel == "" {
		c.DeepModel = openai.GPT4o
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// OpenAI is a Client backed by the OpenAI chat completion API.
type OpenAI struct {
	cfg    Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI-backed oracle client.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, errors.New("oracle: API key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger,
	}, nil
}

// Complete sends one chat completion request. The call is bounded by the
// configured timeout regardless of the parent context's deadline.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	model := o.cfg.FastModel
	if req.Tier == TierDeep {
		model = o.cfg.DeepModel
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONOutput {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		o.logger.Warn("oracle completion failed",
			"model", model, "elapsed", time.Since(start), "error", err)
		return "", fmt.Errorf("oracle: complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("oracle: empty response")
	}

	o.logger.Debug("oracle completion",
		"model", model, "elapsed", time.Since(start),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}
