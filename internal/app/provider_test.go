package app

import (
	"strings"
	"testing"

	"github.com/cexll/prbot/internal/provider"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *provider.Config
		wantErr     bool
		errContains string
		checkName   string
	}{
		{
			name: "gemini provider with all fields",
			cfg: &provider.Config{
				Name:         "gemini",
				GeminiAPIKey: "test-key",
				GeminiModel:  "gemini-1.5-pro",
			},
			checkName: "gemini",
		},
		{
			name:      "gemini provider with default model",
			cfg:       &provider.Config{Name: "gemini", GeminiAPIKey: "test-key"},
			checkName: "gemini",
		},
		{
			name:        "gemini provider missing API key",
			cfg:         &provider.Config{Name: "gemini"},
			wantErr:     true,
			errContains: "GEMINI_API_KEY is required",
		},
		{
			name:      "openai provider",
			cfg:       &provider.Config{Name: "openai", OpenAIAPIKey: "sk-test", OpenAIBaseURL: "https://api.example.com/v1/"},
			checkName: "openai",
		},
		{
			name:      "openai-compatible server without key",
			cfg:       &provider.Config{Name: "openai", OpenAIBaseURL: "http://localhost:11434/v1/"},
			checkName: "openai",
		},
		{
			name:        "openai provider missing API key",
			cfg:         &provider.Config{Name: "openai"},
			wantErr:     true,
			errContains: "OPENAI_API_KEY is required",
		},
		{
			name:        "unknown provider",
			cfg:         &provider.Config{Name: "claude"},
			wantErr:     true,
			errContains: "unknown provider: claude (supported: gemini, openai)",
		},
		{
			name:        "empty provider name",
			cfg:         &provider.Config{},
			wantErr:     true,
			errContains: "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewProvider() error = nil, want error containing %q", tt.errContains)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("NewProvider() error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() unexpected error: %v", err)
			}
			if p.Name() != tt.checkName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.checkName)
			}
		})
	}
}
