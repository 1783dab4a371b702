package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr    string
	PostgresURL string
	RedisAddr   string

	PassSigningKey   string
	NotifyTimeout    time.Duration
	VerifyEntryGrace time.Duration

	JaegerEndpoint string
	LogLevel       logrus.Level
}

// Load reads the environment, filling it from a .env file first if there is one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		PassSigningKey: os.Getenv("PASS_SIGNING_KEY"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
	}

	var err error
	if cfg.NotifyTimeout, err = getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.VerifyEntryGrace, err = getEnvAsDuration("VERIFY_ENTRY_GRACE", 0); err != nil {
		return nil, err
	}

	cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PostgresURL == "" {
		return fmt.Errorf("POSTGRES_URL is required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if len(c.PassSigningKey) < 32 {
		return fmt.Errorf("PASS_SIGNING_KEY must be at least 32 bytes")
	}
	if c.VerifyEntryGrace < 0 {
		return fmt.Errorf("VERIFY_ENTRY_GRACE must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
