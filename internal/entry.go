package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/headonpro/contenthooks/internal/api"
	"github.com/headonpro/contenthooks/internal/audit"
	"github.com/headonpro/contenthooks/internal/hook"
	"github.com/headonpro/contenthooks/internal/mcpserver"
	"github.com/headonpro/contenthooks/internal/metrics"
	"github.com/headonpro/contenthooks/internal/ruleconfig"
	"github.com/headonpro/contenthooks/internal/rules"
	"github.com/headonpro/contenthooks/internal/rules/builtin"
	"github.com/headonpro/contenthooks/internal/sse"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logger with a runtime-adjustable level. Settings
	// updates steer the level var, so PUT /api/settings changes log
	// verbosity without a restart.
	levelVar := new(slog.LevelVar)
	levelVar.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelVar,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("audit_path", cfg.Audit.Path),
		slog.String("rules_path", cfg.Rules.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	settings := hook.NewSettingsStore(cfg.Hooks.Settings(cfg.App.LogLevel), levelVar)

	// Metrics recorder plus Prometheus mirrors.
	recorder := metrics.NewRecorder()
	promReg := prometheus.NewRegistry()
	if err := recorder.Register(promReg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Execution audit log.
	auditStore, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		return fmt.Errorf("init audit store: %w", err)
	}
	defer auditStore.Close()

	// Rule registry with the stock rule pack.
	registry := rules.NewRegistry()
	if err := builtin.Register(registry); err != nil {
		return fmt.Errorf("register builtin rules: %w", err)
	}

	engine := rules.NewEngine(registry, settings, logger, cfg.Rules.CacheSize, cfg.Rules.CacheTTL())

	// SSE broker for the monitoring stream.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Completion sink: persist every execution and stream it to dashboards.
	onComplete := func(hctx hook.Context, res hook.Result) {
		entry := audit.Entry{
			OperationID: hctx.OperationID,
			Category:    hctx.Category,
			Kind:        string(hctx.Kind),
			Success:     res.Success,
			CanProceed:  res.CanProceed,
			DurationMs:  res.ExecutionTimeMs,
		}
		if len(res.Errors) > 0 {
			entry.ErrorCode = res.Errors[0].Code
			entry.ErrorMsg = res.Errors[0].Message
		}
		if err := auditStore.Record(entry); err != nil {
			logger.Warn("audit record failed",
				slog.String("operation_id", hctx.OperationID),
				slog.String("error", err.Error()))
		}
		broker.PublishHookEvent(hctx.OperationID, hctx.Category, string(hctx.Kind),
			res.Success, res.CanProceed, res.ExecutionTimeMs)
	}

	executor := hook.NewExecutor(settings, recorder, logger, onComplete)

	// Wire validation hooks for every category known to the registry.
	dispatcher := hook.NewDispatcher(executor)
	for _, category := range registry.Categories() {
		dispatcher.Register(category, rules.ValidationHooks(engine, category))
	}

	// Optional rule-set override file.
	if cfg.Rules.Path != "" {
		if err := ruleconfig.LoadAndApply(cfg.Rules.Path, registry, settings, logger); err != nil {
			logger.Warn("rule config load failed",
				slog.String("path", cfg.Rules.Path),
				slog.String("error", err.Error()))
		}
	}

	// Build API handler and router.
	h := api.NewHandler(dispatcher, engine, registry, recorder, auditStore, settings)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Prometheus scrape endpoint.
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the rule-set override file for runtime changes.
	if cfg.Rules.Path != "" {
		g.Go(func() error {
			if err := ruleconfig.Watch(gCtx, cfg.Rules.Path, registry, settings, logger); err != nil {
				logger.Warn("rule config watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdio. It builds the same validation
// stack as Run but without the HTTP surface; logs go to stderr so stdout
// stays reserved for the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	levelVar := new(slog.LevelVar)
	levelVar.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelVar,
	}))
	slog.SetDefault(logger)

	settings := hook.NewSettingsStore(cfg.Hooks.Settings(cfg.App.LogLevel), levelVar)
	recorder := metrics.NewRecorder()

	registry := rules.NewRegistry()
	if err := builtin.Register(registry); err != nil {
		return fmt.Errorf("register builtin rules: %w", err)
	}
	engine := rules.NewEngine(registry, settings, logger, cfg.Rules.CacheSize, cfg.Rules.CacheTTL())

	if cfg.Rules.Path != "" {
		if err := ruleconfig.LoadAndApply(cfg.Rules.Path, registry, settings, logger); err != nil {
			logger.Warn("rule config load failed",
				slog.String("path", cfg.Rules.Path),
				slog.String("error", err.Error()))
		}
	}

	srv := mcpserver.New(engine, registry, recorder)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
