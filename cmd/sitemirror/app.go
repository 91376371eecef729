package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/user/site-mirror/internal/adapter/chromedp_renderer"
	"github.com/user/site-mirror/internal/adapter/fswriter"
	"github.com/user/site-mirror/internal/adapter/httpfetch"
	"github.com/user/site-mirror/internal/adapter/memory"
	"github.com/user/site-mirror/internal/adapter/postgres"
	redis_adapter "github.com/user/site-mirror/internal/adapter/redis"
	"github.com/user/site-mirror/internal/adapter/static_renderer"
	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/internal/usecase"
	"github.com/user/site-mirror/pkg/config"
	"github.com/user/site-mirror/pkg/metrics"
)

// app holds the wired dependencies shared by the run and serve commands.
type app struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	mirror   *usecase.Mirror
	runs     repository.RunRepository
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	// --- Run state ---
	var state repository.RunStateStore = memory.NewRunStateStore()
	if cfg.State == config.StateRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		slog.Info("Redis connection established", "addr", cfg.RedisAddr)
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		state = redis_adapter.NewRunStateStore(rdb)
	}

	// --- Run ledger ---
	a.runs = memory.NewRunRepo()
	var outcomes repository.OutcomeRepository
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			a.Close()
			return nil, err
		}
		slog.Info("PostgreSQL connection pool established")
		a.runs = postgres.NewRunRepo(pool)
		outcomes = postgres.NewOutcomeRepo(pool)
	}

	// --- Renderer, fetcher, writer ---
	fetcher := httpfetch.NewFetcher(httpfetch.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.FetchTimeout,
	})
	var renderer repository.Renderer
	switch cfg.Engine {
	case config.EngineStatic:
		renderer = static_renderer.NewRenderer(fetcher)
	default:
		renderer = chromedp_renderer.NewRenderer(chromedp_renderer.Options{
			Headless:        cfg.Headless,
			UserAgent:       cfg.UserAgent,
			PageLoadTimeout: cfg.PageLoadTimeout,
		})
	}
	writer := fswriter.NewWriter(afero.NewOsFs())

	opts := []usecase.MirrorOption{
		usecase.WithPageErrorPolicy(usecase.PageErrorPolicy(cfg.OnPageError)),
		usecase.WithMaxPages(cfg.MaxPages),
		usecase.WithMetrics(a.metrics),
	}
	if outcomes != nil {
		opts = append(opts, usecase.WithOutcomeRepository(outcomes))
	}
	a.mirror = usecase.NewMirror(renderer, fetcher, writer, state, opts...)

	return a, nil
}

func (a *app) saveRun(ctx context.Context, run *entity.MirrorRun) {
	if err := a.runs.Save(ctx, run); err != nil {
		slog.Warn("Failed to record mirror run", "run_id", run.ID, "error", err)
	}
}

// serveMetrics exposes /metrics on addr and returns a function stopping it.
func (a *app) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server stopped", "addr", addr, "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
