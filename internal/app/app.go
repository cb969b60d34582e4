package app

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

	"github.com/getsentry/sentry-go"

	"github.com/brunostein/rest-api-base/internal/cache"
	"github.com/brunostein/rest-api-base/internal/config"
	"github.com/brunostein/rest-api-base/internal/database"
	"github.com/brunostein/rest-api-base/internal/handler"
	"github.com/brunostein/rest-api-base/internal/middleware"
	"github.com/brunostein/rest-api-base/internal/model"
	"github.com/brunostein/rest-api-base/internal/repository"
	"github.com/brunostein/rest-api-base/internal/router"
	"github.com/brunostein/rest-api-base/internal/service"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.Connect(context.Background(), database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	cleanup := []func(){db.Close}

	var settingsCache service.SettingsCache
	if cfg.RedisAddr != "" {
		redisCache, cacheErr := cache.New(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CachePrefix, cfg.CacheTTL)
		if cacheErr != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", cacheErr)
		}
		settingsCache = redisCache
		cleanup = append(cleanup, func() { _ = redisCache.Close() })
		slog.Info("settings cache enabled", "addr", cfg.RedisAddr)
	}

	pool := db.Pool
	accountRepo := repository.NewAccountRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	slog.Info("database ready")

	settingsService := service.NewSettingsService(settingsRepo, settingsCache)
	authService := service.NewAuthService(accountRepo, tokenRepo, historyRepo, settingsService)
	scopeAuthorizer := service.NewScopeAuthorizer(accountRepo, settingsService)

	if err := bootstrapAccount(context.Background(), cfg, accountRepo, authService); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap account: %w", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(scopeAuthorizer)
	accountHandler := handler.NewAccountHandler(authService)
	settingsHandler := handler.NewSettingsHandler(settingsService)

	appRouter := router.New(cfg, authMiddleware, accountHandler, settingsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	if cfg.SentryDSN != "" {
		cleanup = append(cleanup, func() { sentry.Flush(2 * time.Second) })
	}

	return &App{server: server, cleanupFuncs: cleanup}, nil
}

// bootstrapAccount seeds a system-scope account so a fresh install can reach
// the administrative endpoints.
func bootstrapAccount(ctx context.Context, cfg *config.Config, accounts *repository.AccountRepository, engine *service.AuthService) error {
	existing, err := accounts.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	password := cfg.BootstrapPassword
	if password == "" {
		password = "admin123"
		slog.Warn("BOOTSTRAP_PASSWORD not set; seeding default credentials, change them immediately",
			"username", cfg.BootstrapUsername)
	}

	_, err = engine.SignUp(ctx, model.SignUpRequest{
		Email:    cfg.BootstrapEmail,
		Username: cfg.BootstrapUsername,
		Password: password,
		Scope:    model.ScopeSystem,
	})
	return err
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
