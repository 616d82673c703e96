// Package config loads the service configuration from a YAML or JSON file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/dispatch"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/planner"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/fieldservice"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/trigger"
)

type Config struct {
	Logging  LoggingConfig       `json:"logging"`
	Planner  planner.Config      `json:"planner"`
	Dispatch dispatch.Config     `json:"dispatch"`
	Store    StoreConfig         `json:"store"`
	Provider fieldservice.Config `json:"provider"`
	Metrics  MetricsConfig       `json:"metrics"`
	Trigger  trigger.Config      `json:"trigger"`
	Nightly  NightlyConfig       `json:"nightly"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `json:"level"`
}

// SetDefaults fills zero values.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the configuration.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("config: unknown log level %q", c.Level)
	}
}

// StoreConfig selects the plan persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// SetDefaults fills zero values.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "dispatch.db"
	}
}

// Validate checks the configuration.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Backend)
	}
}

// MetricsConfig controls the observability sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    int    `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults fills zero values.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusPort == 0 {
		c.PrometheusPort = 9090
	}
}

// Validate checks the configuration.
func (c MetricsConfig) Validate() error {
	if c.InfluxEnabled && c.InfluxURL == "" {
		return fmt.Errorf("config: influx_url is required when influx is enabled")
	}
	return nil
}

// NightlyConfig controls the nightly batch trigger.
type NightlyConfig struct {
	Enabled    bool     `json:"enabled"`
	RunAt      string   `json:"run_at"`
	Businesses []string `json:"businesses"`
}

// SetDefaults fills zero values.
func (c *NightlyConfig) SetDefaults() {
	if c.RunAt == "" {
		c.RunAt = "02:00"
	}
}

// Validate checks the configuration.
func (c NightlyConfig) Validate() error {
	if c.Enabled && len(c.Businesses) == 0 {
		return fmt.Errorf("config: nightly trigger needs at least one business")
	}
	return nil
}

// Load reads the config file at path, applies LF_ environment overrides and
// validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("LF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "lf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}

	cfg.Logging.SetDefaults()
	cfg.Planner.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Provider.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Trigger.SetDefaults()
	cfg.Nightly.SetDefaults()

	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Provider.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Trigger.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Nightly.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
