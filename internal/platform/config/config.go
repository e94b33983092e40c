// Package config loads runtime configuration from the environment so main
// stays lean. Core logic never branches on where a value came from, only on
// the value itself.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries every scalar the composition root needs to wire the signup
// service.
type Config struct {
	// DatabaseURL selects the postgres user store when set; the in-memory
	// store backs development runs without a database.
	DatabaseURL string `env:"DATABASE_URL"`

	// CounterBackend picks the daily-counter slot: file, memory, redis or
	// postgres.
	CounterBackend string `env:"COUNTER_BACKEND" envDefault:"file"`
	CounterFile    string `env:"SIGNUP_COUNTER_FILE" envDefault:".signup_counter.json"`
	RedisURL       string `env:"REDIS_URL"`

	// SMTPHost set to an empty string disables welcome delivery entirely.
	SMTPHost  string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort  int    `env:"SMTP_PORT" envDefault:"25"`
	EmailFrom string `env:"EMAIL_FROM" envDefault:"noreply@example.com"`

	PasswordSalt   string `env:"PASSWORD_SALT" envDefault:"dev_salt"`
	PasswordHasher string `env:"PASSWORD_HASHER" envDefault:"sha256"`

	DisposableCheck  bool `env:"DISPOSABLE_CHECK" envDefault:"true"`
	DailySignupLimit int  `env:"SIGNUP_DAILY_LIMIT" envDefault:"50"`

	// KafkaBrokers enables the Kafka audit sink when non-empty; otherwise
	// events stay on the in-memory sink.
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	AuditTopic   string   `env:"AUDIT_TOPIC" envDefault:"enroll.audit"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// FromEnv parses configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DailySignupLimit <= 0 {
		return Config{}, fmt.Errorf("SIGNUP_DAILY_LIMIT must be positive, got %d", cfg.DailySignupLimit)
	}
	return cfg, nil
}
