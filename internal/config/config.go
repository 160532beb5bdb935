package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir          string
	LenientInput     bool
	LogLevel         string
	LogFormat        string
	HTTPAddr         string
	KafkaBrokers     []string
	KafkaTopic       string
	InterestSchedule string
}

// NewConfig loads configuration from environment variables, after reading
// the optional .env files. Variables already set in the environment win.
func NewConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not read %s: %w", f, err)
		}
	}

	cfg := &Config{
		DataDir:          getEnv("LEDGER_DATA_DIR", "."),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "ledger-events"),
		InterestSchedule: strings.TrimSpace(getEnv("INTEREST_SCHEDULE", "")),
	}

	lenient, err := strconv.ParseBool(getEnv("LEDGER_LENIENT_INPUT", "false"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_LENIENT_INPUT must be a boolean: %w", err)
	}
	cfg.LenientInput = lenient

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("LEDGER_DATA_DIR is required")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.InterestSchedule != "" {
		if _, err := cron.ParseStandard(cfg.InterestSchedule); err != nil {
			return nil, fmt.Errorf("INTEREST_SCHEDULE is not a valid cron expression: %w", err)
		}
	}

	return cfg, nil
}

// EventsEnabled reports whether ledger events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
