package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/strandworks/deepresearch/internal/metrics"
	"github.com/strandworks/deepresearch/internal/util"
)

// OpenAIConfig configures the OpenAI-backed completion client.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RequestsPerMinute caps the call rate across all tiers; zero disables
	// the limiter.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	// Models maps each tier to a concrete model name.
	Models map[string]string `mapstructure:"models"`
}

// OpenAIClient implements Client using the official openai-go SDK
// (chat completions).
type OpenAIClient struct {
	client  openai.Client
	models  map[Tier]string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// defaultModels is used for tiers the config leaves unmapped.
var defaultModels = map[Tier]string{
	TierPremiumPlus: "gpt-4o",
	TierPremium:     "gpt-4o",
	TierStandard:    "gpt-4o-mini",
	TierBasic:       "gpt-4o-mini",
}

// NewOpenAIClient constructs the client from config.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	models := make(map[Tier]string, len(defaultModels))
	for tier, model := range defaultModels {
		models[tier] = model
	}
	for tier, model := range cfg.Models {
		models[Tier(tier)] = model
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		models:  models,
		limiter: limiter,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Complete sends prompt to the model mapped for tier.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, tier Tier, opts Options) (string, error) {
	model, ok := c.models[tier]
	if !ok {
		return "", fmt.Errorf("no model configured for tier %q", tier)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		metrics.CompletionCalls.WithLabelValues(string(tier), "error").Inc()
		c.logger.Warn("Completion call failed",
			zap.String("tier", string(tier)),
			zap.String("model", model),
			zap.Error(err),
		)
		return "", fmt.Errorf("completion call (%s): %w", tier, err)
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionCalls.WithLabelValues(string(tier), "error").Inc()
		return "", errors.New("completion returned no choices")
	}

	metrics.CompletionCalls.WithLabelValues(string(tier), "ok").Inc()
	text := resp.Choices[0].Message.Content
	c.logger.Debug("Completion call complete",
		zap.String("tier", string(tier)),
		zap.String("model", model),
		zap.String("preview", util.TruncateString(text, 120)),
	)
	return text, nil
}
