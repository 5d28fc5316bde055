package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const insecureSessionSecret = "change-me-in-production"

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"portal"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"portal"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"football_currency"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Sessions
	SessionSecret  string        `env:"SESSION_SECRET" envDefault:"change-me-in-production"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"` // memory | redis
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Server
	Port int `env:"PORT" envDefault:"5000"`

	// Uploads
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"static/uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	// Admin bootstrap
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Login protection
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"20"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	// Housekeeping
	HousekeepingSchedule  string        `env:"HOUSEKEEPING_SCHEDULE" envDefault:"@every 5m"`
	LoginAttemptRetention time.Duration `env:"LOGIN_ATTEMPT_RETENTION" envDefault:"168h"`

	// Kafka
	KafkaBrokers       string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopicPrefix   string        `env:"KAFKA_TOPIC_PREFIX" envDefault:"portal"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxRetention    time.Duration `env:"OUTBOX_RETENTION" envDefault:"168h"`

	// Dev
	AllowInsecureDefaults bool   `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads an optional .env file and parses environment variables
// into a Config struct. Variables already set in the environment win over .env.
func LoadConfig(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.SessionBackend != "memory" && c.SessionBackend != "redis" {
		return fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.SessionSecret == insecureSessionSecret {
		return fmt.Errorf("SESSION_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET is too short (%d chars); minimum 32 characters required", len(c.SessionSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
