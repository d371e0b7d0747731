package provider

import "context"

// Provider is the interface that all text generation backends implement
type Provider interface {
	// Generate returns the review text for a prompt. A single request, no session.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name
	Name() string
}

// Config contains provider configuration
type Config struct {
	// Provider name: "gemini" or "openai"
	Name string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}
