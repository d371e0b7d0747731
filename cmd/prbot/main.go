package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cexll/prbot/internal/app"
	"github.com/cexll/prbot/internal/attempt"
	"github.com/cexll/prbot/internal/config"
	"github.com/cexll/prbot/internal/logging"
	"github.com/cexll/prbot/internal/provider"
	"github.com/cexll/prbot/internal/runstore"
	"github.com/cexll/prbot/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	loadDotEnv   = godotenv.Load
	newLogger    = logging.New
	newApp       = app.New
	newGenerator = app.NewProvider
	serveHTTP    = listenAndServe
)

type options struct {
	owner   string
	repo    string
	verbose bool
	cycles  int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "prbot",
		Short:        "Review new pull requests with a generated comment",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.owner, "owner", "", "repository owner (overrides REPO_OWNER)")
	root.PersistentFlags().StringVar(&opts.repo, "repo", "", "repository name (overrides REPO_NAME)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run review cycles and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, opts)
		},
	}
	runCmd.Flags().IntVar(&opts.cycles, "cycles", 1, "number of cycles, paced by CYCLE_DELAY_SECONDS")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Review continuously and serve the status endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}

	attemptsCmd := &cobra.Command{
		Use:   "attempts",
		Short: "Inspect or reset the attempt markers of a pull request",
	}
	attemptsCmd.AddCommand(
		&cobra.Command{
			Use:   "show NUMBER",
			Short: "Show the attempt counter",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return showAttempts(cmd, opts, args[0])
			},
		},
		&cobra.Command{
			Use:   "reset NUMBER",
			Short: "Clear the markers so the pull request is tried again",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return resetAttempts(cmd, opts, args[0])
			},
		},
	)

	root.AddCommand(runCmd, serveCmd, attemptsCmd)
	return root
}

// setup loads .env and configuration, applying flag overrides.
func setup(opts *options, load func() (*config.Config, error)) (*config.Config, *zap.Logger, error) {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.owner != "" {
		cfg.RepoOwner = opts.owner
	}
	if opts.repo != "" {
		cfg.RepoName = opts.repo
	}

	logger, err := newLogger(cfg.LogLevel, opts.verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func newReviewerApp(ctx context.Context, opts *options) (*app.App, provider.Provider, error) {
	cfg, logger, err := setup(opts, config.Load)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	gen, err := newGenerator(app.ProviderConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize provider: %w", err)
	}
	logger.Info("Provider ready", zap.String("provider", gen.Name()))
	return a, gen, nil
}

func runReview(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	a, gen, err := newReviewerApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Logger.Sync() }()

	store := runstore.NewStore(0)
	r := a.NewReviewer(gen, store, nil)

	if opts.cycles == 1 {
		cycle, err := r.RunCycle(ctx)
		if cycle != nil {
			printCycle(cmd, cycle)
		}
		return err
	}
	if err := r.Run(ctx, opts.cycles); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	for _, c := range store.List() {
		printCycle(cmd, c)
	}
	return nil
}

func printCycle(cmd *cobra.Command, c *runstore.Cycle) {
	fmt.Fprintf(cmd.OutOrStdout(), "cycle %s %s: candidates=%d published=%d skipped=%d exhausted=%d failed=%d\n",
		c.ID, c.Repo, c.Candidates,
		c.Count(runstore.OutcomePublished),
		c.Count(runstore.OutcomeSkipped),
		c.Count(runstore.OutcomeExhausted),
		c.Count(runstore.OutcomeFailed),
	)
}

func serve(cmd *cobra.Command, opts *options) error {
	a, gen, err := newReviewerApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Logger.Sync() }()

	store := runstore.NewStore(0)
	r := a.NewReviewer(gen, store, nil)
	handler := web.NewHandler(store, a.Tracker, a.Config.Repo(), a.Logger.Named("web"))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := r.Run(gctx, 0)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		// The loop stops with the status server.
		defer cancel()
		addr := fmt.Sprintf(":%d", a.Config.Port)
		a.Logger.Info("Status server listening", zap.String("addr", addr))
		return serveHTTP(gctx, addr, handler.Router())
	})
	return g.Wait()
}

func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func parseNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q", arg)
	}
	return n, nil
}

func operatorApp(cmd *cobra.Command, opts *options) (*app.App, error) {
	cfg, logger, err := setup(opts, config.LoadOperator)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, logger)
}

func showAttempts(cmd *cobra.Command, opts *options, arg string) error {
	number, err := parseNumber(arg)
	if err != nil {
		return err
	}
	a, err := operatorApp(cmd, opts)
	if err != nil {
		return err
	}
	state, err := a.Tracker.State(cmd.Context(), number)
	if err != nil {
		return err
	}
	suffix := ""
	if state.Exhausted() {
		suffix = ", exhausted"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s#%d: %s (%d/%d attempts%s)\n",
		a.Config.Repo(), number, state, state.Attempts(), attempt.MaxAttempts, suffix)
	return nil
}

func resetAttempts(cmd *cobra.Command, opts *options, arg string) error {
	number, err := parseNumber(arg)
	if err != nil {
		return err
	}
	a, err := operatorApp(cmd, opts)
	if err != nil {
		return err
	}
	before, err := a.Tracker.State(cmd.Context(), number)
	if err != nil {
		return err
	}
	if err := a.Tracker.Clear(cmd.Context(), number); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s#%d: markers cleared (was %s)\n", a.Config.Repo(), number, before)
	return nil
}
