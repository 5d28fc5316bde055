package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/footballcurrency/portal/internal/app"
	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/guard"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/repository"
	"github.com/footballcurrency/portal/internal/service"
	"github.com/footballcurrency/portal/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Connect to Postgres
	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	if cfg.AutoMigrate {
		if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	sessions, closeSessions, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()
	logger.Info("session store ready", "backend", cfg.SessionBackend)

	uploads, err := service.NewUploadStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	lockout := guard.NewLockout(logger)
	loginLimiter := guard.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)

	deps := app.RouterDeps{
		DB:           pool,
		Health:       func(ctx context.Context) error { return infra.HealthCheck(ctx, pool) },
		Sessions:     sessions,
		Tokens:       auth.NewTokenManager(cfg.SessionSecret),
		Uploads:      uploads,
		Lockout:      lockout,
		LoginLimiter: loginLimiter,
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
		Logger:       logger,
	}
	svcs := app.NewServices(deps)

	if _, err := svcs.Auth.BootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	housekeeper, err := infra.NewHousekeeper(cfg.HousekeepingSchedule, housekeepingJobs(cfg, pool, sessions, lockout, loginLimiter), logger)
	if err != nil {
		return fmt.Errorf("housekeeping: %w", err)
	}
	housekeeper.Start()
	defer housekeeper.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.NewRouter(deps, svcs),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("portal listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSessionStore(cfg *infra.Config) (session.Store, func(), error) {
	if cfg.SessionBackend == "redis" {
		rp, err := infra.NewRedisPool(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return session.NewRedisStore(rp, "portal"), func() { rp.Close() }, nil
	}
	return session.NewMemoryStore(), func() {}, nil
}

func housekeepingJobs(cfg *infra.Config, pool *pgxpool.Pool, sessions session.Store, lockout *guard.Lockout, limiter *guard.RateLimiter) []infra.Job {
	outbox := repository.NewOutboxRepository()
	return []infra.Job{
		{Name: "session_sweep", Run: sessions.Sweep},
		{Name: "login_rate_prune", Run: limiter.Prune},
		{Name: "login_attempt_prune", Run: func(ctx context.Context) (int, error) {
			return lockout.Prune(ctx, pool, cfg.LoginAttemptRetention)
		}},
		{Name: "outbox_purge", Run: func(ctx context.Context) (int, error) {
			n, err := outbox.PurgePublished(ctx, pool, time.Now().Add(-cfg.OutboxRetention))
			return int(n), err
		}},
	}
}
