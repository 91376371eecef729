package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/pkg/config"
	"github.com/user/site-mirror/pkg/logger"
)

// NewRootCmd creates the root command. Run without a subcommand it mirrors
// a single site and exits.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemirror",
		Short: "Mirror a website to a local directory",
		Long: `sitemirror renders each page of a website in a browser, follows in-scope
links depth-first and saves pages, stylesheets, images, videos and scripts
under --out using the URL pathname as the file path.

Exit status is 0 when everything was mirrored, 2 when the run finished but
some resources failed, and 1 when the run failed.`,
		Example: `  sitemirror --url https://example.com/ --only-host example.com --out ./mirror
  sitemirror --url https://example.com/ --out ./mirror --engine static --on-page-error skip`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMirror,
	}

	cmd.Flags().String("url", "", "Start URL of the site to mirror")
	cmd.Flags().String("only-host", "", "Only follow page links and scripts whose URL contains this host")

	// Settings shared with serve
	pf := cmd.PersistentFlags()
	pf.String("config", "", "Path to a config file (yaml, json or toml)")
	pf.String("out", "", "Output directory")
	pf.String("engine", config.EngineChrome, "Page renderer: chrome or static")
	pf.Bool("headless", true, "Run Chrome headless")
	pf.String("on-page-error", config.PageErrorAbort, "What a failed page does to the run: abort or skip")
	pf.Int("max-pages", 0, "Stop after this many pages (0 means no limit)")
	pf.Duration("page-load-timeout", 60*time.Second, "Timeout for rendering one page (0 disables it)")
	pf.Duration("fetch-timeout", 30*time.Second, "Timeout for downloading one asset")
	pf.String("user-agent", "", "User-Agent header sent by the renderer and fetcher")
	pf.String("state", config.StateMemory, "Where the visited set and frontier live: memory or redis")
	pf.String("redis-addr", "localhost:6379", "Redis address for --state redis")
	pf.String("postgres-dsn", "", "PostgreSQL DSN for the run ledger (disabled when empty)")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address during a run")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return exitCode(err)
}

// loadConfig merges defaults, the config file, MIRROR_* variables and the
// flags that were set on cmd, then installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, err
	}
	logger.Init(cmd.ErrOrStderr(), logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func runMirror(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	if err := cfg.ValidateRun(); err != nil {
		return &exitError{code: exitFailed, err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	defer a.Close()

	if cfg.MetricsAddr != "" {
		shutdown := a.serveMetrics(cfg.MetricsAddr)
		defer shutdown()
	}

	run := &entity.MirrorRun{
		ID:         uuid.NewString(),
		Seed:       cfg.URL,
		OnlyHost:   cfg.OnlyHost,
		OutputRoot: cfg.Out,
		Phase:      entity.PhaseRunning,
		StartedAt:  time.Now(),
	}
	a.saveRun(ctx, run)

	scope := entity.ScopeConfig{Seed: cfg.URL, OnlyHost: cfg.OnlyHost, OutputRoot: cfg.Out}
	report, runErr := a.mirror.Run(ctx, run.ID, scope, nil)

	finishRun(run, report, runErr)
	a.saveRun(context.WithoutCancel(ctx), run)
	printSummary(cmd.OutOrStdout(), report)

	if runErr != nil {
		return &exitError{code: exitFailed, err: fmt.Errorf("mirror %s: %w", cfg.URL, runErr)}
	}
	if report.Partial() {
		return &exitError{code: exitPartial, err: fmt.Errorf("mirror %s finished with %d failed resources", cfg.URL, report.Failures)}
	}
	return nil
}

func finishRun(run *entity.MirrorRun, report *entity.Report, err error) {
	run.Phase = report.Phase
	run.Pages = report.Pages
	run.Assets = report.Assets
	run.Failures = report.Failures
	run.Skipped = report.Skipped
	if err != nil {
		run.Error = err.Error()
	}
	finished := time.Now()
	run.FinishedAt = &finished
}

func printSummary(w io.Writer, report *entity.Report) {
	fmt.Fprintf(w, "run %s: %s\n", report.RunID, report.Phase)
	fmt.Fprintf(w, "  pages:    %d\n", report.Pages)
	fmt.Fprintf(w, "  assets:   %d\n", report.Assets)
	fmt.Fprintf(w, "  skipped:  %d\n", report.Skipped)
	fmt.Fprintf(w, "  failures: %d\n", report.Failures)
	if report.Truncated {
		fmt.Fprintln(w, "  stopped at the page limit")
	}
	for _, o := range report.OutcomesOf(entity.OutcomeFailed) {
		fmt.Fprintf(w, "  failed %s: %s\n", o.URL, o.Reason)
	}
}
