package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"contestlens/internal/config"
	"contestlens/internal/dataset"
	apierrors "contestlens/internal/errors"
	"contestlens/internal/infrastructure"
	customMiddleware "contestlens/internal/middleware"
	"contestlens/internal/services"
	handlers "contestlens/internal/transport/http"
	ws "contestlens/internal/websocket"
	"contestlens/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Store         *dataset.MemoryStore
	WebSocketHub  *ws.Hub
	DataService   *services.DataService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication loads configuration and the process logger, then wires
// the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, apierrors.NewConfigError("failed to initialize logger", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", cfg.Server.Address()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, apierrors.NewTelemetryError("failed to initialize OpenTelemetry", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, apierrors.NewTelemetryError("failed to create business metrics", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	if err := a.initializeServices(); err != nil {
		return nil, err
	}
	a.setupRouter()
	a.createServer()

	return a, nil
}

func (a *Application) initializeServices() error {
	location, err := time.LoadLocation(a.Config.Data.Timezone)
	if err != nil {
		return apierrors.NewConfigError("unknown data timezone", err).
			WithContext("timezone", a.Config.Data.Timezone)
	}

	a.Store = dataset.NewMemoryStore()
	a.WebSocketHub = ws.NewHub(a.Logger,
		ws.WithMetrics(a.Metrics),
		ws.WithDatasetState(a.Store.Loaded),
	)

	a.DataService = services.NewDataService(a.Store, a.Logger,
		services.WithLocation(location),
		services.WithAllowedExtensions(a.Config.Upload.AllowedExtensions),
		services.WithDefaultPageSize(a.Config.Data.DefaultPageSize),
		services.WithCSVByteOrderMark(a.Config.Data.CSVByteOrderMark),
		services.WithPublisher(a.WebSocketHub),
		services.WithMetrics(a.Metrics),
		services.WithTracer(a.OTelProviders.Tracer),
	)
	a.HealthService = services.NewHealthService(a.Store, a.WebSocketHub, a.Logger)
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Root middleware must not wrap the ResponseWriter; /ws hijacks it
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.Logger, a.ErrorHandler)
	r.With(customMiddleware.WebSocketTrace(a.OTelProviders.Tracer, a.Logger)).
		Get(config.WebSocketEndpoint, wsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Scrapes bypass rate limiting and request logging
	r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get(config.HealthEndpoint, healthHandler.HealthCheck)
		r.Get(config.ReadyEndpoint, healthHandler.ReadinessCheck)
		r.Get(config.LiveEndpoint, healthHandler.LivenessCheck)
		r.Get(config.VersionEndpoint, healthHandler.Version)

		clientLogHandler := handlers.NewClientLogHandler(a.Logger, a.ErrorHandler)
		r.Post(config.ClientLogEndpoint, clientLogHandler.Handle)

		dataHandler := handlers.NewDataHandler(a.DataService, a.Config.Upload.MaxBytes, a.Logger, a.ErrorHandler)
		r.With(customMiddleware.AuditLog(a.Logger)).Mount(config.DataEndpoint, dataHandler.Routes())
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		Logger:         a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(infrastructure.WithComponent(a.Logger, "http.server").Handler(), slog.LevelWarn),
	}
}

// Run listens on the configured address and serves until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return apierrors.NewServerError("failed to listen", err).WithContext("address", a.Server.Addr)
	}
	return a.Serve(ctx, ln)
}

// Serve starts the websocket hub and serves HTTP on ln until ctx is done or
// the server fails, then shuts everything down.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.WebSocketHub.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("address", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return apierrors.NewServerError("server failed", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.Logger.Info("Shutdown requested")
		}
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
		errs = append(errs, apierrors.NewServerError("server shutdown", err))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, apierrors.NewTelemetryError("telemetry shutdown", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.Logger.ErrorContext(ctx, "Shutdown incomplete", slog.String("error", err.Error()))
		return err
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}
