package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the stress run parameters.
type Config struct {
	Capacity  uint64
	Producers int
	Consumers int
	Items     int // per producer
	LogLevel  string
}

func setupFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("capacity", 1024, "queue capacity (power of two)")
	cmd.Flags().Int("producers", 8, "number of producer goroutines")
	cmd.Flags().Int("consumers", 4, "number of consumer goroutines")
	cmd.Flags().Int("items", 100_000, "items enqueued by every producer")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig resolves flags, RINGSTRESS_* environment variables and defaults,
// in that order of precedence.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RINGSTRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := &Config{
		Capacity:  v.GetUint64("capacity"),
		Producers: v.GetInt("producers"),
		Consumers: v.GetInt("consumers"),
		Items:     v.GetInt("items"),
		LogLevel:  v.GetString("log-level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the run parameters. Capacity is validated by the queue
// constructor.
func (c *Config) Validate() error {
	if c.Producers < 1 {
		return fmt.Errorf("producers must be at least 1, got %d", c.Producers)
	}
	if c.Consumers < 1 {
		return fmt.Errorf("consumers must be at least 1, got %d", c.Consumers)
	}
	if c.Items < 0 {
		return fmt.Errorf("items must not be negative, got %d", c.Items)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
