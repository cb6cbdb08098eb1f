// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/6tail/lunar-go/calendar"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/subgarden/subgarden/internal/config"
	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/identity"
	"github.com/subgarden/subgarden/internal/notifications"
	"github.com/subgarden/subgarden/internal/notifications/email"
	"github.com/subgarden/subgarden/internal/notifications/notifyx"
	"github.com/subgarden/subgarden/internal/notifications/telegram"
	"github.com/subgarden/subgarden/internal/notifications/webhook"
	"github.com/subgarden/subgarden/internal/notifications/wechatbot"
	"github.com/subgarden/subgarden/internal/pkg/ctxlog"
	"github.com/subgarden/subgarden/internal/pkg/httputil"
	"github.com/subgarden/subgarden/internal/pkg/metrics"
	"github.com/subgarden/subgarden/internal/pkg/postgres"
	"github.com/subgarden/subgarden/internal/renewals"
	"github.com/subgarden/subgarden/internal/scheduler"
	"github.com/subgarden/subgarden/internal/settings"
	settingspostgres "github.com/subgarden/subgarden/internal/settings/postgres"
	"github.com/subgarden/subgarden/internal/subscriptions"
	subscriptionspostgres "github.com/subgarden/subgarden/internal/subscriptions/postgres"
	"github.com/subgarden/subgarden/internal/version"
	"github.com/subgarden/subgarden/migrations"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	checker       *renewals.Checker
	bgCancel      context.CancelFunc
	bgWait        sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := postgres.Migrate(migrations.FS, cfg.Database.URL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		bgCancel: bgCancel,
	}

	app.bgWait.Add(1)
	go func() {
		defer app.bgWait.Done()
		app.collectDBMetrics(bgCtx)
	}()

	router := app.setupRouter()

	if cfg.Checker.Enabled {
		sched := scheduler.New(app.checker, cfg.Checker.Interval, logger)
		app.bgWait.Add(1)
		go func() {
			defer app.bgWait.Done()
			sched.Start(bgCtx)
		}()
	} else {
		logger.Warn("check scheduler is disabled: renewal checks run only on manual trigger")
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.bgCancel()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()
	a.bgWait.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Checker returns the renewal checker instance. Used in tests to
// trigger passes directly.
func (a *App) Checker() *renewals.Checker {
	return a.checker
}

func (a *App) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	subscriptionsRepo := subscriptionspostgres.NewRepository(a.db)
	subscriptionsService := subscriptions.NewService(subscriptionsRepo)
	subscriptionsHandler := subscriptions.NewHandler(subscriptionsService)

	settingsRepo := settingspostgres.NewRepository(a.db)
	settingsService := settings.NewService(settingsRepo)
	settingsHandler := settings.NewHandler(settingsService)

	dispatcher := notifications.NewDispatcher(a.config.Checker.DispatchTimeout,
		telegram.NewSender(telegram.Config{}),
		webhook.NewSender(webhook.Config{}),
		wechatbot.NewSender(wechatbot.Config{}),
		notifyx.NewSender(notifyx.Config{}),
		email.NewSender(email.Config{}),
	)
	renderer := notifications.NewRenderer(lunarLabel)

	a.checker = renewals.NewChecker(
		subscriptionsRepo,
		settingsLoader{service: settingsService},
		renderer,
		dispatcher,
		a.config.Checker.DefaultReminderDays,
	)
	checkerHandler := renewals.NewHandler(a.checker)

	identityService := identity.NewService(identity.Config{
		Username:      a.config.Auth.Username,
		Password:      a.config.Auth.Password,
		JWTSecret:     a.config.Auth.JWTSecret,
		TokenDuration: a.config.Auth.TokenDuration,
	})
	identityHandler := identity.NewHandler(identityService, identity.CookieSettings{
		Secure: a.config.Cookie.Secure,
		Domain: a.config.Cookie.Domain,
	})

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			identityHandler.RegisterProtectedRoutes(r)
			subscriptionsHandler.RegisterRoutes(r)
			settingsHandler.RegisterRoutes(r)
			checkerHandler.RegisterRoutes(r)
		})
	})

	return r
}

// settingsLoader adapts the settings service to the checker's read-only
// snapshot interface.
type settingsLoader struct {
	service *settings.Service
}

func (l settingsLoader) Load(ctx context.Context) (domain.NotificationSettings, error) {
	cfg, err := l.service.Get(ctx)
	if err != nil {
		return domain.NotificationSettings{}, err
	}
	return *cfg, nil
}

// lunarLabel renders the lunar calendar date for a solar date.
func lunarLabel(t time.Time) string {
	return calendar.NewSolarFromDate(t).GetLunar().String()
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
