package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/dice/internal/adapters/http/api"
	"github.com/okian/dice/internal/adapters/http/site"
	"github.com/okian/dice/internal/adapters/http/swagger"
	service "github.com/okian/dice/internal/app"
	"github.com/okian/dice/internal/config"
	"github.com/okian/dice/pkg/logger"
	"github.com/okian/dice/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize logging
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to set log format: " + err.Error() + "\n")
		return 1
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithCustomLabels(map[string]string{"env": cfg.Env}),
	)

	svc := service.New(
		service.WithLogger(loggerInstance.Named("service")),
		service.WithMetricsInterval(metrics.Global().RefreshInterval()),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return 1
	}
	defer svc.Stop()

	handler, apiServer := newHandler(ctx, cfg, svc, loggerInstance)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
		_, _ = os.Stdout.WriteString(banner(cfg, apiServer.Endpoints()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			return 1
		}
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
		return 1
	}

	loggerInstance.Info(ctx, "server stopped")
	return 0
}

// newHandler builds the full HTTP surface: docs and metrics when enabled,
// the dice API, and the static client at the root.
func newHandler(ctx context.Context, cfg *config.Config, deps api.Dependencies, l logger.Logger) (http.Handler, *api.Server) {
	mux := http.NewServeMux()

	if cfg.DocsEnabled {
		swagger.Register(ctx, mux)
	}
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	files, onDisk := site.FS(cfg.StaticDir)
	if !onDisk {
		l.Info(ctx, "static directory not found; serving embedded client", logger.String("static_dir", cfg.StaticDir))
	}

	apiServer := api.NewServer(deps, cfg, api.WithLogger(l.Named("http")), api.WithStatic(files))
	apiServer.Register(ctx, mux)
	return apiServer.Handler(mux), apiServer
}

// banner is printed once the listener is about to start.
func banner(cfg *config.Config, endpoints []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dice server listening on port %d (%s)\n", cfg.Port, cfg.Env)
	b.WriteString("Available endpoints:\n")
	for _, e := range endpoints {
		fmt.Fprintf(&b, "  %s\n", e)
	}
	if cfg.DocsEnabled {
		b.WriteString("  GET /api-docs\n")
	}
	if cfg.MetricsEnabled {
		b.WriteString("  GET /metrics\n")
	}
	fmt.Fprintf(&b, "Allowed origins: %s\n", strings.Join(cfg.AllowedOrigins, ", "))
	return b.String()
}
