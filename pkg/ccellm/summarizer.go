// Package ccellm provides a langchaingo-backed Summarizer for
// github.com/fyrsmithlabs/cce. It is a separate package specifically so
// that cce's core never imports an LLM SDK or makes a network call: only
// code that imports ccellm pays for that dependency.
package ccellm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/cce/pkg/cce"
)

// Rate limit defaults: 50 requests per minute, with bursts up to 5.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds configuration for the langchaingo-backed summarizer.
type Config struct {
	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string

	// Model is the chat model to use.
	Model string

	// APIKey authenticates against BaseURL.
	APIKey string

	// MaxTokens caps the model's response length.
	MaxTokens int

	// SystemPrompt and PreserveTerms are forwarded unchanged into
	// cce.MakeEscalatingSummarizer's prompt template (cce.buildPrompt),
	// the same template every Summarizer implementation renders from.
	SystemPrompt  string
	PreserveTerms []string
}

// ConfigFromEnv builds a Config from environment variables.
//
// Environment variables:
//   - CCE_LLM_BASE_URL: API base URL (default: https://api.openai.com/v1)
//   - CCE_LLM_MODEL: chat model name (default: gpt-4o-mini)
//   - CCE_LLM_API_KEY / OPENAI_API_KEY: API key
func ConfigFromEnv() Config {
	baseURL := os.Getenv("CCE_LLM_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := os.Getenv("CCE_LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	apiKey := os.Getenv("CCE_LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return Config{BaseURL: baseURL, Model: model, APIKey: apiKey, MaxTokens: 512}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	return nil
}

// modelCaller adapts a langchaingo llms.Model, rate-limited, to
// cce.CallLLM: the raw prompt-in, text-out callable cce.MakeSummarizer and
// cce.MakeEscalatingSummarizer wrap with the standard prompt template.
type modelCaller struct {
	model     llms.Model
	maxTokens int
	limiter   *rate.Limiter
}

func (c *modelCaller) call(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("llm summarize: %w", err)
	}
	return out, nil
}

// NewSummarizer builds a cce.Summarizer backed by an OpenAI-compatible
// chat model through langchaingo. The returned Summarizer renders prompts
// through cce.MakeEscalatingSummarizer, so cfg.SystemPrompt and
// cfg.PreserveTerms are rendered into every model call; the deterministic
// fallback level does not use them.
func NewSummarizer(cfg Config) (cce.Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("building openai client: %w", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	caller := &modelCaller{
		model:     model,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	return cce.MakeEscalatingSummarizer(caller.call, cce.MakeSummarizerOptions{
		SystemPrompt:  cfg.SystemPrompt,
		PreserveTerms: cfg.PreserveTerms,
	}), nil
}
