package infra

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Config Tests ---

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "static/uploads", cfg.UploadDir)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "@every 5m", cfg.HousekeepingSchedule)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=8123\nSESSION_BACKEND=redis\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("SESSION_BACKEND")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, "redis", cfg.SessionBackend)
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=8123\n"), 0o600))
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SessionSecret:  "0123456789abcdef0123456789abcdef",
			SessionBackend: "memory",
			SessionTTL:     time.Hour,
		}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("insecure default secret", func(t *testing.T) {
		c := valid()
		c.SessionSecret = insecureSessionSecret
		assert.ErrorContains(t, c.Validate(), "insecure default")
	})

	t.Run("insecure default allowed in dev", func(t *testing.T) {
		c := valid()
		c.SessionSecret = insecureSessionSecret
		c.AllowInsecureDefaults = true
		assert.NoError(t, c.Validate())
	})

	t.Run("short secret", func(t *testing.T) {
		c := valid()
		c.SessionSecret = "short"
		assert.ErrorContains(t, c.Validate(), "too short")
	})

	t.Run("unknown backend", func(t *testing.T) {
		c := valid()
		c.SessionBackend = "memcached"
		assert.ErrorContains(t, c.Validate(), "SESSION_BACKEND")
	})

	t.Run("admin credentials must pair", func(t *testing.T) {
		c := valid()
		c.AdminUsername = "root"
		assert.ErrorContains(t, c.Validate(), "ADMIN_PASSWORD")
	})
}

func TestConfigDSN(t *testing.T) {
	c := &Config{PGUser: "u", PGPassword: "p", PGHost: "db", PGPort: 5433, PGDatabase: "fc"}
	assert.Equal(t, "postgres://u:p@db:5433/fc?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}

// --- Migration dir Tests ---

func TestFindMigrationDir_WalksUp(t *testing.T) {
	root := t.TempDir()
	migrations := filepath.Join(root, "db", "migrations")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(migrations, 0o755))
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	got, err := filepath.EvalSymlinks(FindMigrationDir())
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(migrations)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// --- Outbox Poller Tests ---

type fakeOutbox struct {
	rows   []domain.OutboxRow
	marked []int64
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]domain.OutboxRow, error) {
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, ids []int64) error {
	f.marked = append(f.marked, ids...)
	return nil
}

type fakePublisher struct {
	topics []string
	failOn int
	calls  int
}

func (f *fakePublisher) Publish(_ context.Context, topic string, _, _ []byte) error {
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return errors.New("broker down")
	}
	f.topics = append(f.topics, topic)
	return nil
}

func outboxRow(seq int64, agg domain.AggregateType) domain.OutboxRow {
	return domain.OutboxRow{SeqID: seq, OutboxDraft: domain.OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   uuid.NewString(),
		EventType:     domain.EventAccountRegistered,
		Payload:       []byte(`{}`),
		OccurredAt:    time.Now(),
	}}
}

func TestOutboxPoller_PublishesAndMarks(t *testing.T) {
	src := &fakeOutbox{rows: []domain.OutboxRow{
		outboxRow(1, domain.AggregateAccount),
		outboxRow(2, domain.AggregateShop),
	}}
	pub := &fakePublisher{}
	p := NewOutboxPoller(src, pub, "portal", time.Second, 10, noopLogger())

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, src.marked)
	assert.Equal(t, []string{"portal.account", "portal.shop"}, pub.topics)
}

func TestOutboxPoller_StopsAtFirstFailure(t *testing.T) {
	src := &fakeOutbox{rows: []domain.OutboxRow{
		outboxRow(1, domain.AggregateAccount),
		outboxRow(2, domain.AggregateAccount),
		outboxRow(3, domain.AggregateAccount),
	}}
	pub := &fakePublisher{failOn: 2}
	p := NewOutboxPoller(src, pub, "portal", time.Second, 10, noopLogger())

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, src.marked)
}

func TestOutboxPoller_EmptyBatch(t *testing.T) {
	src := &fakeOutbox{}
	p := NewOutboxPoller(src, &fakePublisher{}, "portal", 0, 0, noopLogger())

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, src.marked)
	assert.Equal(t, 100, p.batchSize)
	assert.Equal(t, 2*time.Second, p.interval)
}

func TestKafkaProducer_DisabledIsNoop(t *testing.T) {
	p := NewKafkaProducer("", true, noopLogger())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), "t", nil, nil))
	assert.NoError(t, p.Close())
}

// --- Housekeeper Tests ---

func TestNewHousekeeper_InvalidSpec(t *testing.T) {
	_, err := NewHousekeeper("not a schedule", []Job{{Name: "noop", Run: func(context.Context) (int, error) { return 0, nil }}}, noopLogger())
	require.Error(t, err)
}

func TestHousekeeper_RunJob(t *testing.T) {
	h, err := NewHousekeeper("@every 1h", nil, noopLogger())
	require.NoError(t, err)

	called := 0
	h.runJob(Job{Name: "count", Run: func(ctx context.Context) (int, error) {
		called++
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return 3, nil
	}})
	h.runJob(Job{Name: "fail", Run: func(context.Context) (int, error) {
		called++
		return 0, errors.New("boom")
	}})
	assert.Equal(t, 2, called)
}
