// Package app wires configuration into the GitHub adapter, the attempt
// tracker and the review orchestrator.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cexll/prbot/internal/attempt"
	"github.com/cexll/prbot/internal/config"
	"github.com/cexll/prbot/internal/eligibility"
	"github.com/cexll/prbot/internal/github"
	"github.com/cexll/prbot/internal/precheck"
	"github.com/cexll/prbot/internal/prompt"
	"github.com/cexll/prbot/internal/provider"
	"github.com/cexll/prbot/internal/reviewer"
	"github.com/cexll/prbot/internal/runstore"
	"go.uber.org/zap"
)

// App holds the GitHub side of the bot
type App struct {
	Config   *config.Config
	Platform *github.Platform
	Tracker  *attempt.Tracker
	Login    string
	Logger   *zap.Logger
}

// Auth returns the GitHub credentials described by cfg.
func Auth(cfg *config.Config) github.AuthProvider {
	if !cfg.UsesAppAuth() {
		return github.StaticToken(cfg.GitHubToken)
	}
	return &github.AppAuth{
		AppID:      cfg.GitHubAppID,
		PrivateKey: cfg.GitHubPrivateKey,
		APIURL:     cfg.GitHubAPIURL,
	}
}

// New builds the GitHub client and resolves the marker owner.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := github.NewClient(github.ClientConfig{
		Auth:    Auth(cfg),
		Repo:    cfg.Repo(),
		APIURL:  cfg.GitHubAPIURL,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	login := cfg.BotLogin
	if login == "" {
		login, err = github.ResolveLogin(ctx, client)
		if err != nil {
			return nil, err
		}
	}

	p := github.NewPlatform(client, cfg.RepoOwner, cfg.RepoName, github.Reactions{
		Primary:   cfg.MarkerPrimary,
		Secondary: cfg.MarkerSecondary,
	})
	logger.Info("GitHub ready",
		zap.String("repo", p.Repo()),
		zap.String("login", login),
		zap.Bool("app_auth", cfg.UsesAppAuth()),
	)

	return &App{
		Config:   cfg,
		Platform: p,
		Tracker:  attempt.NewTracker(p, login, logger.Named("attempt")),
		Login:    login,
		Logger:   logger,
	}, nil
}

// ProviderConfig maps the configuration onto the provider factory.
func ProviderConfig(cfg *config.Config) *provider.Config {
	return &provider.Config{
		Name:          cfg.Provider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		GeminiBaseURL: cfg.GeminiBaseURL,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
	}
}

// ReviewerConfig maps the configuration onto the orchestrator settings.
func ReviewerConfig(cfg *config.Config) reviewer.Config {
	tmpl := prompt.Default()
	if cfg.Requirements != "" {
		tmpl.Requirements = cfg.Requirements
	}
	if cfg.Question != "" {
		tmpl.Question = cfg.Question
	}
	return reviewer.Config{
		Repo:              cfg.Repo(),
		PageSize:          cfg.PageSize,
		ItemDelay:         cfg.ItemDelay,
		CycleDelay:        cfg.CycleDelay,
		GenerationTimeout: cfg.GenerationTimeout,
		Header:            cfg.Header,
		Template:          tmpl,
	}
}

// NewReviewer builds the orchestrator over the app's platform.
func (a *App) NewReviewer(gen provider.Provider, store *runstore.Store, pacer reviewer.Pacer) *reviewer.Reviewer {
	opts := []reviewer.Option{
		reviewer.WithLogger(a.Logger.Named("reviewer")),
		reviewer.WithFilter(eligibility.NewFilter(a.Config.ExcludedSizes)),
		reviewer.WithAnalyzer(precheck.Analyzer{SquashCommits: a.Config.SquashAdvisory}),
	}
	if store != nil {
		opts = append(opts, reviewer.WithStore(store))
	}
	if pacer != nil {
		opts = append(opts, reviewer.WithPacer(pacer))
	}
	return reviewer.New(a.Platform, a.Tracker, gen, ReviewerConfig(a.Config), opts...)
}
