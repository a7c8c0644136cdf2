// Package app assembles the license server: configuration, logging,
// metrics, the store backend, the license engine, and the HTTP router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"qtxlicense/internal/config"
	"qtxlicense/internal/infrastructure"
	"qtxlicense/internal/license"
	custommw "qtxlicense/internal/middleware"
	"qtxlicense/internal/services"
	"qtxlicense/internal/store"
	handlers "qtxlicense/internal/transport/http"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Application is the main application container.
type Application struct {
	Config  *config.Config
	Router  *chi.Mux
	Server  *http.Server
	Store   store.Store
	Engine  *license.Engine
	Logger  *slog.Logger
	Metrics *infrastructure.MetricsProviders

	licenseService services.LicenseService
}

// NewApplication wires the application with dependency injection.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", "license-server"),
		slog.String("version", Version),
	)

	metrics, err := infrastructure.InitializeMetrics("license-server", Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open license store: %w", err)
	}
	logger.Info("license store opened", slog.String("driver", cfg.Store.Driver))

	engine := license.NewEngine(st, logger)
	engineMetrics, err := license.NewMetrics(metrics.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create license metrics: %w", err)
	}
	engine.SetMetrics(engineMetrics)

	app := &Application{
		Config:         cfg,
		Store:          st,
		Engine:         engine,
		Logger:         logger,
		Metrics:        metrics,
		licenseService: services.NewLicenseService(engine, logger),
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// setupRouter configures the HTTP router and middleware chain.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(Version, a.Store, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", handlers.VersionHandler(Version))

		licenseHandler := handlers.NewLicenseHandler(a.licenseService, a.Logger)
		r.Mount("/license", licenseHandler.Routes())

		premiumHandler := handlers.NewPremiumHandler(a.licenseService, a.Logger)
		r.Mount("/premium", premiumHandler.Routes())
	})

	// Prometheus scrape endpoint stays outside the API middleware group.
	if a.Metrics != nil && a.Metrics.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Metrics.PrometheusHTTP)
	}

	a.Router = r
}

// createServer builds the HTTP server from the configuration.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run starts the HTTP server and blocks until shutdown completes. It
// stops on SIGINT/SIGTERM or when the server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Stop(shutdownCtx)
	})

	return g.Wait()
}

// Stop gracefully shuts down the server and releases resources.
func (a *Application) Stop(ctx context.Context) error {
	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("http server shutdown failed", slog.String("error", err.Error()))
	}

	if err := a.Store.Close(); err != nil {
		a.Logger.Error("store close failed", slog.String("error", err.Error()))
	}

	if a.Metrics != nil {
		if err := a.Metrics.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics shutdown failed", slog.String("error", err.Error()))
		}
	}

	a.Logger.Info("application stopped")
	return nil
}
