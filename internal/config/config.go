package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// validReactions are the issue reaction contents GitHub accepts.
var validReactions = map[string]bool{
	"+1": true, "-1": true, "laugh": true, "confused": true,
	"heart": true, "hooray": true, "rocket": true, "eyes": true,
}

// Config holds all configuration for the review bot
type Config struct {
	// Target repository
	RepoOwner string
	RepoName  string

	// GitHub credentials: a token, or a GitHub App
	GitHubToken      string
	GitHubAppID      string
	GitHubPrivateKey string
	GitHubAPIURL     string
	// BotLogin owns the attempt markers. Resolved from the token when empty.
	BotLogin string

	// Generation provider selection
	Provider string // "gemini" or "openai"

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Cycle settings
	GenerationTimeout time.Duration
	PageSize          int
	ItemDelay         time.Duration
	CycleDelay        time.Duration

	// Review content
	SquashAdvisory bool
	ExcludedSizes  []string
	Header         string
	Requirements   string
	Question       string

	// Marker reactions
	MarkerPrimary   string
	MarkerSecondary string

	// Status server port (serve)
	Port     int
	LogLevel string

	// ConfigFile is the optional YAML overlay that was applied.
	ConfigFile string
}

// Overlay is the YAML file format. Unset fields keep their env values.
type Overlay struct {
	Header         string   `yaml:"header"`
	Requirements   string   `yaml:"requirements"`
	Question       string   `yaml:"question"`
	ExcludedSizes  []string `yaml:"excluded_sizes"`
	SquashAdvisory *bool    `yaml:"squash_advisory"`
}

// Load loads configuration from environment variables and the optional
// overlay file named by PRBOT_CONFIG.
func Load() (*Config, error) {
	return load(true)
}

// LoadOperator loads configuration for tools that only touch GitHub
// markers and never call a generation provider.
func LoadOperator() (*Config, error) {
	return load(false)
}

func load(requireProvider bool) (*Config, error) {
	cfg := &Config{
		RepoOwner:         getEnv("REPO_OWNER", "apache"),
		RepoName:          getEnv("REPO_NAME", "nuttx"),
		GitHubToken:       os.Getenv("GITHUB_TOKEN"),
		GitHubAppID:       os.Getenv("GITHUB_APP_ID"),
		GitHubPrivateKey:  normalizePrivateKey(os.Getenv("GITHUB_PRIVATE_KEY")),
		GitHubAPIURL:      os.Getenv("GITHUB_API_URL"),
		BotLogin:          os.Getenv("BOT_LOGIN"),
		Provider:          strings.ToLower(getEnv("PROVIDER", "gemini")),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		GenerationTimeout: time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 30)) * time.Second,
		PageSize:          getEnvInt("PAGE_SIZE", 20),
		ItemDelay:         time.Duration(getEnvInt("ITEM_DELAY_SECONDS", 5)) * time.Second,
		CycleDelay:        time.Duration(getEnvInt("CYCLE_DELAY_SECONDS", 600)) * time.Second,
		SquashAdvisory:    getEnvBool("SQUASH_ADVISORY", false),
		ExcludedSizes:     getEnvList("EXCLUDED_SIZES", []string{"Size: XS"}),
		MarkerPrimary:     getEnv("MARKER_PRIMARY", "rocket"),
		MarkerSecondary:   getEnv("MARKER_SECONDARY", "eyes"),
		Port:              getEnvInt("PORT", 8000),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ConfigFile:        os.Getenv("PRBOT_CONFIG"),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyOverlayFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	// Validate required fields
	if err := cfg.validate(requireProvider); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Repo returns "owner/name"
func (c *Config) Repo() string { return c.RepoOwner + "/" + c.RepoName }

// UsesAppAuth reports whether GitHub App credentials are used instead of a token.
func (c *Config) UsesAppAuth() bool { return c.GitHubToken == "" }

func (c *Config) applyOverlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ApplyOverlay(o)
	return nil
}

// ApplyOverlay copies the set fields of o into c.
func (c *Config) ApplyOverlay(o Overlay) {
	if o.Header != "" {
		c.Header = o.Header
	}
	if o.Requirements != "" {
		c.Requirements = o.Requirements
	}
	if o.Question != "" {
		c.Question = o.Question
	}
	if o.ExcludedSizes != nil {
		c.ExcludedSizes = o.ExcludedSizes
	}
	if o.SquashAdvisory != nil {
		c.SquashAdvisory = *o.SquashAdvisory
	}
}

func normalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\r", "\n")
	if strings.Contains(trimmed, "\\n") {
		trimmed = strings.ReplaceAll(trimmed, "\\r", "")
		trimmed = strings.ReplaceAll(trimmed, "\\n", "\n")
	}

	return trimmed
}

// validate checks that all required configuration is present
func (c *Config) validate(requireProvider bool) error {
	if c.RepoOwner == "" || c.RepoName == "" {
		return fmt.Errorf("REPO_OWNER and REPO_NAME are required")
	}

	if err := c.validateGitHubCredentials(); err != nil {
		return err
	}

	if requireProvider {
		if err := c.validateProviderConfig(); err != nil {
			return err
		}
	}

	return c.validateCycleConfig()
}

func (c *Config) validateGitHubCredentials() error {
	if c.GitHubToken != "" {
		return nil
	}
	if c.GitHubAppID == "" {
		return fmt.Errorf("GITHUB_TOKEN or GITHUB_APP_ID is required")
	}
	if c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY is required with GITHUB_APP_ID")
	}
	// Installation tokens cannot look up their own login.
	if c.BotLogin == "" {
		return fmt.Errorf("BOT_LOGIN is required with GitHub App authentication")
	}
	return nil
}

func (c *Config) validateProviderConfig() error {
	switch c.Provider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for gemini provider")
		}
	case "openai":
		// OpenAI-compatible local servers may not need a key.
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
	default:
		return fmt.Errorf("invalid provider: %s (must be 'gemini' or 'openai')", c.Provider)
	}
	return nil
}

func (c *Config) validateCycleConfig() error {
	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.ItemDelay < 0 {
		return fmt.Errorf("ITEM_DELAY_SECONDS must not be negative")
	}
	if c.CycleDelay < 0 {
		return fmt.Errorf("CYCLE_DELAY_SECONDS must not be negative")
	}
	if !validReactions[c.MarkerPrimary] {
		return fmt.Errorf("MARKER_PRIMARY %q is not a GitHub reaction", c.MarkerPrimary)
	}
	if !validReactions[c.MarkerSecondary] {
		return fmt.Errorf("MARKER_SECONDARY %q is not a GitHub reaction", c.MarkerSecondary)
	}
	if c.MarkerPrimary == c.MarkerSecondary {
		return fmt.Errorf("MARKER_PRIMARY and MARKER_SECONDARY must differ")
	}
	return nil
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
