package app

import (
	"fmt"

	"github.com/cexll/prbot/internal/provider"
	"github.com/cexll/prbot/internal/provider/gemini"
	"github.com/cexll/prbot/internal/provider/openai"
)

// NewProvider creates a provider based on configuration
func NewProvider(cfg *provider.Config) (provider.Provider, error) {
	switch cfg.Name {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini: GEMINI_API_KEY is required")
		}
		model := cfg.GeminiModel
		if model == "" {
			model = gemini.DefaultModel
		}
		return gemini.NewProvider(cfg.GeminiAPIKey, model, cfg.GeminiBaseURL)

	case "openai":
		// OpenAI-compatible servers behind a custom base URL may not need a key.
		if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai: OPENAI_API_KEY is required")
		}
		model := cfg.OpenAIModel
		if model == "" {
			model = openai.DefaultModel
		}
		return openai.NewProvider(cfg.OpenAIAPIKey, model, cfg.OpenAIBaseURL), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: gemini, openai)", cfg.Name)
	}
}
