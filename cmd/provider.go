package cmd

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/bookswap/internal/assessment"
	"github.com/lehigh-university-libraries/bookswap/internal/config"
	"github.com/lehigh-university-libraries/bookswap/internal/gemini"
	"github.com/lehigh-university-libraries/bookswap/internal/ollama"
	"github.com/lehigh-university-libraries/bookswap/internal/openai"
	"github.com/lehigh-university-libraries/bookswap/internal/providers"
)

func noClose() error { return nil }

// newProvider builds the configured vision provider. The returned func
// releases any client resources.
func newProvider(ctx context.Context, cfg *config.Config) (providers.Provider, func() error, error) {
	switch cfg.Assessment.Provider {
	case "gemini":
		g, err := gemini.New(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL), noClose, nil
	case "ollama":
		return ollama.New(cfg.Ollama.URL), noClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported provider: %s", cfg.Assessment.Provider)
	}
}

// newAssessor wraps the provider in the model fallback service and the
// retry decorator
func newAssessor(ctx context.Context, cfg *config.Config) (assessment.Assessor, func() error, error) {
	provider, closeFn, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	service := assessment.NewService(provider, cfg.Assessment.Models, cfg.Assessment.Timeout)
	retrying := assessment.NewRetrying(service, assessment.RetryPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
	})
	return retrying, closeFn, nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
