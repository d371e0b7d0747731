package app

import (
	"context"
	"testing"
	"time"

	"github.com/cexll/prbot/internal/attempt"
	"github.com/cexll/prbot/internal/config"
	"github.com/cexll/prbot/internal/github"
	"github.com/cexll/prbot/internal/github/ghtest"
	"github.com/cexll/prbot/internal/prompt"
	"github.com/cexll/prbot/internal/reviewer"
	"github.com/cexll/prbot/internal/runstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type staticGenerator struct{ calls int }

func (g *staticGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return "Looks fine.", nil
}

func (g *staticGenerator) Name() string { return "static" }

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		RepoOwner:         "apache",
		RepoName:          "nuttx",
		GitHubToken:       "ghp_test",
		GitHubAPIURL:      apiURL,
		Provider:          "gemini",
		GeminiAPIKey:      "k",
		GenerationTimeout: time.Second,
		PageSize:          20,
		ExcludedSizes:     []string{"Size: XS"},
		MarkerPrimary:     "rocket",
		MarkerSecondary:   "eyes",
	}
}

func strPtr(s string) *string { return &s }

func TestAuth(t *testing.T) {
	cfg := testConfig("")
	assert.Equal(t, github.StaticToken("ghp_test"), Auth(cfg))

	cfg.GitHubToken = ""
	cfg.GitHubAppID = "1"
	cfg.GitHubPrivateKey = "key"
	appAuth, ok := Auth(cfg).(*github.AppAuth)
	require.True(t, ok)
	assert.Equal(t, "1", appAuth.AppID)
}

func TestReviewerConfig(t *testing.T) {
	cfg := testConfig("")
	cfg.Question = "# Custom?"
	cfg.ItemDelay = 2 * time.Second

	rc := ReviewerConfig(cfg)
	assert.Equal(t, "apache/nuttx", rc.Repo)
	assert.Equal(t, prompt.DefaultRequirements, rc.Template.Requirements)
	assert.Equal(t, "# Custom?", rc.Template.Question)
	assert.Equal(t, 2*time.Second, rc.ItemDelay)
}

func TestProviderConfig(t *testing.T) {
	cfg := testConfig("")
	cfg.Provider = "openai"
	cfg.OpenAIBaseURL = "http://localhost:11434/v1"

	pc := ProviderConfig(cfg)
	assert.Equal(t, "openai", pc.Name)
	assert.Equal(t, "http://localhost:11434/v1", pc.OpenAIBaseURL)

	cfg.GeminiBaseURL = "http://127.0.0.1:9999"
	assert.Equal(t, "http://127.0.0.1:9999", ProviderConfig(cfg).GeminiBaseURL)
}

func TestNew_ResolvesLogin(t *testing.T) {
	srv, cleanup := ghtest.NewServer("nuttxpr")
	defer cleanup()

	a, err := New(context.Background(), testConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "nuttxpr", a.Login)
	assert.Equal(t, "nuttxpr", a.Tracker.Identity())

	cfg := testConfig(srv.URL)
	cfg.BotLogin = "configured[bot]"
	a, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "configured[bot]", a.Login)
}

func TestReviewCycleAgainstGitHub(t *testing.T) {
	srv, cleanup := ghtest.NewServer("nuttxpr")
	defer cleanup()
	srv.AddPR(ghtest.PR{
		Number:  42,
		State:   "open",
		Body:    strPtr("## Summary\nfoo"),
		Labels:  []string{"Size: M"},
		Commits: []string{"arch: fix\n\nDetails"},
	})
	srv.AddPR(ghtest.PR{
		Number:  43,
		State:   "open",
		Body:    strPtr("## Summary\nbar"),
		Labels:  []string{"Size: XS"},
		Commits: []string{"arch: tiny\n\nDetails"},
	})

	a, err := New(context.Background(), testConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	gen := &staticGenerator{}
	store := runstore.NewStore(0)
	r := a.NewReviewer(gen, store, reviewer.NoopPacer{})

	cycle, err := r.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, cycle.Items, 2)
	assert.Equal(t, runstore.OutcomeSkipped, cycle.Items[0].Outcome)
	assert.Equal(t, runstore.OutcomePublished, cycle.Items[1].Outcome)

	assert.Equal(t, []string{prompt.DefaultHeader + "\n\n\n\nLooks fine."}, srv.Comments(42))
	assert.Empty(t, srv.Reactions(42))
	assert.Empty(t, srv.Comments(43))
	assert.Empty(t, srv.Reactions(43))
	assert.Equal(t, 1, gen.calls)

	state, err := a.Tracker.State(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, attempt.S0, state)
	assert.Len(t, store.List(), 1)
}
