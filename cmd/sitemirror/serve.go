package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/site-mirror/internal/delivery/http/handler"
	"github.com/user/site-mirror/internal/delivery/http/router"
	"github.com/user/site-mirror/internal/usecase"
	"github.com/user/site-mirror/pkg/config"
)

const shutdownTimeout = 30 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API that accepts mirror runs",
		Long: `Serve starts an HTTP API. POST /api/mirrors submits a run, GET
/api/mirrors/{id} reports its progress and /metrics exposes Prometheus
metrics. Each run writes to <out>/<run id>.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("server-port", "8080", "Port the API listens on")
	cmd.Flags().Int("max-concurrency", 2, "Maximum number of mirror runs executing at once")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	if cfg.Out == "" {
		return &exitError{code: exitFailed, err: config.ErrMissingOut}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	defer a.Close()

	manager := usecase.NewRunManager(a.mirror, a.runs, cfg.Out, cfg.MaxConcurrency)
	apiHandler := handler.NewHandler(manager)
	httpRouter := router.New(apiHandler, a.metrics, a.registry)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			return &exitError{code: exitFailed, err: err}
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		slog.Error("Mirror runs did not stop in time", "error", err)
		return &exitError{code: exitFailed, err: err}
	}
	return nil
}
