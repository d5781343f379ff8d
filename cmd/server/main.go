package main

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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sumire/devtrack/internal/config"
	"github.com/sumire/devtrack/internal/database"
	"github.com/sumire/devtrack/internal/handler"
	"github.com/sumire/devtrack/internal/policy"
	"github.com/sumire/devtrack/internal/repository"
	"github.com/sumire/devtrack/internal/service"
	"github.com/sumire/devtrack/internal/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(config.NewLogger(cfg, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("database connected", "driver", cfg.DatabaseDriver)

	revoked, closeStore, err := revocationStore(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer closeStore()

	stores := service.Stores{
		Users:    repository.NewUserRepository(db),
		Projects: repository.NewProjectRepository(db),
		Issues:   repository.NewIssueRepository(db),
		WorkLogs: repository.NewWorkLogRepository(db),
	}
	evaluator := policy.New(policy.Options{StrictReads: cfg.StrictReads})
	validator := handler.NewAppValidator()

	authSvc := service.NewAuthService(stores.Users, revoked, validator, service.AuthConfig{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		JWTSecret:          cfg.JWTSecret,
		AccessTokenTTL:     cfg.AccessTokenTTL,
		RefreshTokenTTL:    cfg.RefreshTokenTTL,
		OAuthRedirectBase:  cfg.PublicURL,
	})
	slog.Info("oauth providers",
		"google", cfg.OAuthEnabled("google"),
		"github", cfg.OAuthEnabled("github"),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(handler.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.RegisterRoutes(e, handler.Services{
		Auth:     authSvc,
		Projects: service.NewProjectService(stores, evaluator, validator),
		Issues:   service.NewIssueService(stores, evaluator, validator),
		WorkLogs: service.NewWorkLogService(stores, evaluator, validator),
		Reports:  service.NewReportService(stores, evaluator),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "strict_reads", cfg.StrictReads)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// revocationStore connects to Redis when a URL is configured and falls back
// to an in-process store otherwise.
func revocationStore(ctx context.Context, redisURL string) (session.Store, func(), error) {
	if redisURL == "" {
		slog.Warn("REDIS_URL not set, revoked tokens are kept in memory")
		return session.NewMemoryStore(), func() {}, nil
	}

	store, err := session.NewRedisStore(ctx, redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	slog.Info("redis connected")
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Error("close redis", "error", err)
		}
	}, nil
}
