package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"reportclean/internal/config"
	apierrors "reportclean/internal/errors"
	"reportclean/internal/files"
	"reportclean/internal/infrastructure"
	appmiddleware "reportclean/internal/middleware"
	"reportclean/internal/services"
	handlers "reportclean/internal/transport/http"
	"reportclean/pkg/contracts"
)

const (
	AppName = "Specialization Report Cleaner"
	RepoURL = "https://github.com/reportclean/reportclean"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Scheduler     *cron.Cron
	Services      *ServiceContainer
	errorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Cleaning *services.CleaningService
	Health   *services.HealthService
}

// NewApplication loads configuration, initializes the global logger and
// builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New creates an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupScheduler(); err != nil {
		return nil, fmt.Errorf("failed to set up scheduler: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	store, err := files.NewOutputStore(a.Paths.OutputDir, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open output store: %w", err)
	}

	metrics, err := infrastructure.NewCleaningMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create cleaning metrics: %w", err)
	}

	cleaning := services.NewCleaningService(services.CleaningConfig{
		WorkDir: a.Paths.WorkDir,
		Limits: files.ExtractLimits{
			MaxEntries: a.Config.Upload.MaxEntries,
			MaxBytes:   a.Config.Upload.MaxExtractedBytes,
		},
		ExcelBOM: a.Config.Output.ExcelBOM,
	}, store, a.OTelProviders.Tracer, metrics, a.Logger)

	health := services.NewHealthService(services.BuildInfo{
		Version:   contracts.Version,
		RepoURL:   RepoURL,
		BuildTime: contracts.BuildTime,
		BuildID:   contracts.GitCommit,
	}, map[string]string{
		"work":   a.Paths.WorkDir,
		"output": store.Root(),
	}, a.Logger)

	a.Services = &ServiceContainer{
		Cleaning: cleaning,
		Health:   health,
	}
	return nil
}

// setupScheduler registers the output reaper on the configured schedule
func (a *Application) setupScheduler() error {
	logger := infrastructure.WithComponent(a.Logger, "scheduler")
	a.Scheduler = cron.New(
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: logger}), cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)

	_, err := a.Scheduler.AddFunc(a.Config.Output.ReaperSchedule, func() {
		a.ReapOutputs(context.Background())
	})
	if err != nil {
		return apierrors.NewConfigError(fmt.Sprintf("invalid reaper schedule %q", a.Config.Output.ReaperSchedule), err)
	}
	return nil
}

// ReapOutputs removes cleaned reports older than the retention period
func (a *Application) ReapOutputs(ctx context.Context) {
	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.LoggerWithContext(ctx, infrastructure.WithComponent(a.Logger, "reaper"))

	removed, err := a.Services.Cleaning.ReapOutputs(ctx, a.Config.Output.Retention)
	if err != nil {
		infrastructure.WithError(logger, err).Error("Output reaping failed",
			slog.Int("removed", removed))
		return
	}
	if removed > 0 {
		logger.Info("Expired outputs removed",
			slog.Int("removed", removed),
			slog.Duration("retention", a.Config.Output.Retention))
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → headers
	r.Use(appmiddleware.RequestID)
	r.Use(appmiddleware.RealIP)

	otelMiddleware, err := appmiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)
	r.Use(appmiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.errorHandler))
	r.Use(appmiddleware.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(appmiddleware.CORS(a.Config.Security.AllowedOrigins))
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// Prometheus scrape endpoint, outside rate limiting
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	cleanHandler := handlers.NewCleanHandler(
		a.Services.Cleaning,
		appmiddleware.NewValidator(),
		a.errorHandler,
		a.Config.Upload.MaxBytes,
		a.Logger,
	)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Group(func(r chi.Router) {
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(appmiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.errorHandler).Handler)
		}
		r.Use(appmiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			cleanHandler.RegisterRoutes(r)
			healthHandler.RegisterRoutes(r)
		})

		// Legacy path still used by existing upload clients
		r.With(cleanHandler.RequireMultipart).Post("/clean-automated-csv", cleanHandler.Clean)
	})

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run listens on the configured address and serves until ctx is done
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server and the scheduler on ln until ctx is done or
// the server fails, then shuts everything down.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	a.Scheduler.Start()
	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", ln.Addr().String()),
		slog.String("output_dir", a.Paths.OutputDir),
		slog.String("reaper_schedule", a.Config.Output.ReaperSchedule))

	g.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	// Wait for a running reap to finish
	select {
	case <-a.Scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		a.Logger.WarnContext(ctx, "Scheduler did not stop before shutdown timeout")
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
