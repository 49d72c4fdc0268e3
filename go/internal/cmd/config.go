package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rinkops/rinkd/go/internal/events"
)

type Config struct {
	Addr          string `yaml:"addr"`
	OperatorToken string `yaml:"operator_token"`

	Game struct {
		PeriodDuration   string `yaml:"period_duration"`
		IntervalDuration string `yaml:"interval_duration"`
	} `yaml:"game"`

	NATS struct {
		Enabled       bool `yaml:"enabled"`
		events.Config `yaml:",inline"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	cfg := &Config{Addr: ":8080"}
	cfg.NATS.Config = events.DefaultConfig()
	return cfg
}

// loadConfig reads the yaml file when present and applies environment
// overrides on top. A missing file is not an error; everything can come
// from the environment.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Addr = getEnv("RINKD_ADDR", cfg.Addr)
	cfg.OperatorToken = getEnv("RINKD_OPERATOR_TOKEN", cfg.OperatorToken)
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.Enabled = true
		cfg.NATS.URL = url
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
