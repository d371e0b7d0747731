// Package reviewer drives the poll cycle: it walks the newest open pull
// requests one at a time and publishes a generated review on each eligible
// one, counting attempts in markers on the pull request itself.
package reviewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cexll/prbot/internal/attempt"
	"github.com/cexll/prbot/internal/eligibility"
	"github.com/cexll/prbot/internal/platform"
	"github.com/cexll/prbot/internal/precheck"
	"github.com/cexll/prbot/internal/prompt"
	"github.com/cexll/prbot/internal/provider"
	"github.com/cexll/prbot/internal/runstore"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyReview is returned when generation produced no usable text.
var ErrEmptyReview = errors.New("generated review is empty")

// Default pacing and limits
const (
	DefaultPageSize          = 20
	DefaultItemDelay         = 5 * time.Second
	DefaultCycleDelay        = 10 * time.Minute
	DefaultGenerationTimeout = 30 * time.Second
)

// Config holds the tunables of the orchestrator
type Config struct {
	// Repo is "owner/repo", used in reports and logs.
	Repo              string
	PageSize          int
	ItemDelay         time.Duration
	CycleDelay        time.Duration
	GenerationTimeout time.Duration
	Header            string
	Template          prompt.Template
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.ItemDelay < 0 {
		c.ItemDelay = 0
	}
	if c.CycleDelay < 0 {
		c.CycleDelay = 0
	}
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = DefaultGenerationTimeout
	}
	if c.Header == "" {
		c.Header = prompt.DefaultHeader
	}
	if c.Template.Requirements == "" && c.Template.Question == "" {
		c.Template = prompt.Default()
	}
	return c
}

// Reviewer is the review orchestrator
type Reviewer struct {
	platform  platform.Platform
	tracker   *attempt.Tracker
	generator provider.Provider
	filter    *eligibility.Filter
	analyzer  precheck.Analyzer
	pacer     Pacer
	store     *runstore.Store
	logger    *zap.Logger
	cfg       Config
	newID     func() string
	now       func() time.Time
}

// Option customizes a Reviewer
type Option func(*Reviewer)

// WithPacer replaces the wall-clock pacer.
func WithPacer(p Pacer) Option { return func(r *Reviewer) { r.pacer = p } }

// WithFilter replaces the default eligibility filter.
func WithFilter(f *eligibility.Filter) Option { return func(r *Reviewer) { r.filter = f } }

// WithAnalyzer replaces the default precheck analyzer.
func WithAnalyzer(a precheck.Analyzer) Option { return func(r *Reviewer) { r.analyzer = a } }

// WithStore records every finished cycle in s.
func WithStore(s *runstore.Store) Option { return func(r *Reviewer) { r.store = s } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(r *Reviewer) { r.logger = l } }

// New creates an orchestrator. The tracker must be built over the same platform.
func New(p platform.Platform, tracker *attempt.Tracker, generator provider.Provider, cfg Config, opts ...Option) *Reviewer {
	r := &Reviewer{
		platform:  p,
		tracker:   tracker,
		generator: generator,
		filter:    eligibility.NewFilter(eligibility.DefaultExcludedSizes),
		pacer:     SleepPacer{},
		logger:    zap.NewNop(),
		cfg:       cfg.withDefaults(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunCycle processes the newest open items once, strictly in order.
// A failure on one item never stops the cycle; only a failed listing
// or a cancelled context does. The report is returned in both cases.
func (r *Reviewer) RunCycle(ctx context.Context) (*runstore.Cycle, error) {
	cycle := &runstore.Cycle{
		ID:        r.newID(),
		Repo:      r.cfg.Repo,
		StartedAt: r.now(),
	}
	log := r.logger.With(zap.String("cycle", cycle.ID))
	defer func() {
		cycle.FinishedAt = r.now()
		if r.store != nil {
			r.store.Add(cycle)
		}
	}()

	numbers, err := r.platform.ListOpenItems(ctx, r.cfg.PageSize)
	if err != nil {
		log.Error("Failed to list open pull requests", zap.Error(err))
		cycle.Error = err.Error()
		return cycle, fmt.Errorf("list candidates: %w", err)
	}
	cycle.Candidates = len(numbers)
	log.Info("Cycle started", zap.String("repo", r.cfg.Repo), zap.Int("candidates", len(numbers)))

	for i, number := range numbers {
		result := r.processItem(ctx, log.With(zap.Int("pr", number)), number)
		cycle.Items = append(cycle.Items, result)

		if i == len(numbers)-1 {
			break
		}
		if err := r.pacer.Wait(ctx, r.cfg.ItemDelay); err != nil {
			cycle.Error = err.Error()
			return cycle, err
		}
	}

	log.Info("Cycle finished",
		zap.Int("published", cycle.Count(runstore.OutcomePublished)),
		zap.Int("skipped", cycle.Count(runstore.OutcomeSkipped)),
		zap.Int("exhausted", cycle.Count(runstore.OutcomeExhausted)),
		zap.Int("failed", cycle.Count(runstore.OutcomeFailed)),
	)
	return cycle, nil
}

// Run repeats RunCycle with CycleDelay between cycles. cycles <= 0 runs
// until ctx is done. Cycle failures are logged and do not stop the loop.
func (r *Reviewer) Run(ctx context.Context, cycles int) error {
	for n := 1; cycles <= 0 || n <= cycles; n++ {
		if _, err := r.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("Cycle failed", zap.Int("n", n), zap.Error(err))
		}
		if cycles > 0 && n == cycles {
			break
		}
		if err := r.pacer.Wait(ctx, r.cfg.CycleDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reviewer) processItem(ctx context.Context, log *zap.Logger, number int) runstore.ItemResult {
	result := runstore.ItemResult{Number: number}
	fail := func(stage string, err error) runstore.ItemResult {
		if errors.Is(err, attempt.ErrContractViolation) {
			log.Error("Attempt counter invariant broken", zap.String("stage", stage), zap.Error(err))
		} else {
			log.Warn("Item abandoned for this cycle", zap.String("stage", stage), zap.Error(err))
		}
		result.Outcome = runstore.OutcomeFailed
		result.Error = fmt.Sprintf("%s: %v", stage, err)
		result.At = r.now()
		return result
	}

	item, err := r.platform.GetItem(ctx, number)
	if err != nil {
		return fail("fetch", err)
	}

	if ok, reason := r.filter.Check(item); !ok {
		log.Info("Skipping pull request", zap.String("reason", string(reason)))
		result.Outcome = runstore.OutcomeSkipped
		result.Reason = string(reason)
		result.At = r.now()
		return result
	}

	advisories := r.analyzer.Analyze(item.Changes)

	// The attempt is counted before generation so a crash still consumes it.
	decision, err := r.tracker.Evaluate(ctx, number)
	if err != nil {
		return fail("track", err)
	}
	result.StateBefore = decision.Before.String()
	result.StateAfter = decision.After.String()
	if !decision.Proceed {
		result.Outcome = runstore.OutcomeExhausted
		result.At = r.now()
		return result
	}

	review, err := r.generate(ctx, item.Body)
	if err != nil {
		return fail("generate", err)
	}

	body := prompt.Compose(r.cfg.Header, advisories, review)
	comment, err := r.platform.CreateComment(ctx, number, body)
	if err != nil {
		return fail("publish", err)
	}
	result.CommentID = comment.ID
	log.Info("Review published", zap.Int64("comment", comment.ID), zap.String("attempt", decision.After.String()))

	// The review is out; a failed clear only leaves a stale count behind.
	if err := r.tracker.Clear(ctx, number); err != nil {
		log.Warn("Failed to clear attempt markers", zap.Error(err))
	} else {
		result.StateAfter = attempt.S0.String()
	}
	result.Outcome = runstore.OutcomePublished
	result.At = r.now()
	return result
}

func (r *Reviewer) generate(ctx context.Context, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.GenerationTimeout)
	defer cancel()

	text, err := r.generator.Generate(ctx, r.cfg.Template.Build(body))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", platform.ErrRemote, r.generator.Name(), err)
	}
	review := prompt.SanitizeReview(text)
	if review == "" {
		return "", ErrEmptyReview
	}
	return review, nil
}
