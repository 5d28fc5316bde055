//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/footballcurrency/portal/internal/app"
	"github.com/footballcurrency/portal/internal/auth"
	"github.com/footballcurrency/portal/internal/guard"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/service"
	"github.com/footballcurrency/portal/internal/session"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TestSessionSecret = "integration-test-secret-0123456789abcdef"
	TestDBHost        = "localhost"
	TestDBPort        = 5435
	TestDBUser        = "portal"
	TestDBPass        = "portal"
	TestDBName        = "football_currency_test"
	TestMaxUpload     = 64 << 10
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server    *httptest.Server
	Pool      *pgxpool.Pool
	Sessions  *session.MemoryStore
	Services  *app.Services
	UploadDir string
	t         *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "postgres")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the maintenance database to create the test database
	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

func runMigrations() error {
	dir := infra.FindMigrationDir()
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve migration dir: %w", err)
	}

	m, err := newMigrate("file://"+abs, testDSN())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}
		if err := runMigrations(); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 20
		poolCfg.MinConns = 1

		sharedPool, poolErr = pgxpool.NewWithConfig(ctx, poolCfg)
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by the real router and test DB.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	uploads, err := service.NewUploadStore(uploadDir, TestMaxUpload)
	if err != nil {
		t.Fatalf("upload store: %v", err)
	}

	sessions := session.NewMemoryStore()
	deps := app.RouterDeps{
		DB:           pool,
		Health:       func(ctx context.Context) error { return infra.HealthCheck(ctx, pool) },
		Sessions:     sessions,
		Tokens:       auth.NewTokenManager(TestSessionSecret),
		Uploads:      uploads,
		Lockout:      guard.NewLockout(logger),
		LoginLimiter: guard.NewRateLimiter(10000, time.Minute),
		SessionTTL:   time.Hour,
		Logger:       logger,
	}
	svcs := app.NewServices(deps)
	server := httptest.NewServer(app.NewRouter(deps, svcs))

	env := &TestEnv{
		Server:    server,
		Pool:      pool,
		Sessions:  sessions,
		Services:  svcs,
		UploadDir: uploadDir,
		t:         t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}
