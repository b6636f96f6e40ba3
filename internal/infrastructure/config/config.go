package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	// ReferenceMaxAttempts bounds reference id regeneration on collisions.
	ReferenceMaxAttempts int `env:"REFERENCE_MAX_ATTEMPTS, default=10"`

	Mongo        MongoConfig
	Redis        RedisConfig
	Verification VerificationConfig
	Mail         MailConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string        `env:"MONGO_DB,      default=loan_origination"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	DB       int    `env:"REDIS_DB,   default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type VerificationConfig struct {
	CodeTTL     time.Duration `env:"VERIFICATION_CODE_TTL,     default=1h"`
	MaxAttempts int           `env:"VERIFICATION_MAX_ATTEMPTS, default=5"`
}

type MailConfig struct {
	Workers int    `env:"MAIL_WORKERS, default=4"`
	From    string `env:"MAIL_FROM,    default=no-reply@loanflow.local"`
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
