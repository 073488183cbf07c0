// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmynk/yieldcircles/internal/calculator"
	"github.com/mmynk/yieldcircles/internal/ledger"
)

// Config is the server configuration.
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9090"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/circles.db"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	YieldRateBPS  int64 `env:"YIELD_RATE_BPS" envDefault:"1000"`
	ExitFeeBPS    int64 `env:"EXIT_FEE_BPS" envDefault:"500"`
	QuorumPercent int   `env:"QUORUM_PERCENT" envDefault:"80"`

	WorldIDAppID    string `env:"WORLD_ID_APP_ID"`
	WorldIDAction   string `env:"WORLD_ID_ACTION" envDefault:"yield-circle-join"`
	WorldIDEndpoint string `env:"WORLD_ID_ENDPOINT" envDefault:"https://developer.worldcoin.org"`

	SettlementWebhookURL string        `env:"SETTLEMENT_WEBHOOK_URL"`
	SettlementTimeout    time.Duration `env:"SETTLEMENT_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports configuration the server cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("PORT and METRICS_PORT must differ, both are %d", c.Port)
	}
	if c.SettlementTimeout <= 0 {
		return fmt.Errorf("SETTLEMENT_TIMEOUT must be positive")
	}
	if _, err := ledger.New(c.Ledger()); err != nil {
		return err
	}
	return nil
}

// Ledger returns the ledger parameters.
func (c Config) Ledger() ledger.Config {
	return ledger.Config{
		YieldRate:     calculator.Rate(c.YieldRateBPS),
		ExitFeeRate:   calculator.Rate(c.ExitFeeBPS),
		QuorumPercent: c.QuorumPercent,
	}
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
