package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	data := `logging:
  level: "debug"
planner:
  drive_weight: 2.0
  fallback_drive_minutes: 30
dispatch:
  debounce_seconds: 3
  route_base_url: "https://app.example.com"
store:
  backend: "sqlite"
  path: "/tmp/plans.db"
provider:
  mode: "http"
  base_url: "https://api.example.com"
  api_key: "secret"
metrics:
  prometheus_enabled: true
  prometheus_port: 9102
trigger:
  enabled: true
  broker: "tcp://localhost:1883"
  topic: "dispatch/trigger/#"
nightly:
  enabled: true
  run_at: "03:30"
  businesses: ["biz-1", "biz-2"]
`
	cfg, err := Load(writeConfig(t, "config.yaml", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"logging.level", cfg.Logging.Level, "debug"},
		{"planner.drive_weight", cfg.Planner.DriveWeight, 2.0},
		{"planner.fallback", cfg.Planner.FallbackDriveMinutes, 30.0},
		{"dispatch.debounce", cfg.Dispatch.DebounceSeconds, 3},
		{"dispatch.route_base_url", cfg.Dispatch.RouteBaseURL, "https://app.example.com"},
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"store.path", cfg.Store.Path, "/tmp/plans.db"},
		{"provider.mode", cfg.Provider.Mode, "http"},
		{"provider.base_url", cfg.Provider.BaseURL, "https://api.example.com"},
		{"metrics.prometheus_port", cfg.Metrics.PrometheusPort, 9102},
		{"trigger.broker", cfg.Trigger.Broker, "tcp://localhost:1883"},
		{"nightly.run_at", cfg.Nightly.RunAt, "03:30"},
		{"nightly.businesses", len(cfg.Nightly.Businesses), 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", "logging: {}\n"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Dispatch.DebounceSeconds != 5 || cfg.Dispatch.ApplyTimeoutSeconds != 10 {
		t.Errorf("dispatch defaults: %+v", cfg.Dispatch)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("store backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Provider.Mode != "mock" {
		t.Errorf("provider mode = %q, want mock", cfg.Provider.Mode)
	}
	if cfg.Planner.DriveWeight != 1.5 || cfg.Planner.FallbackDriveMinutes != 45 {
		t.Errorf("planner defaults: %+v", cfg.Planner)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LF_LOGGING__LEVEL", "warn")
	cfg, err := Load(writeConfig(t, "config.yaml", "logging:\n  level: \"info\"\n"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env override ignored: level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad log level", "logging:\n  level: \"loud\"\n"},
		{"bad store backend", "store:\n  backend: \"postgres\"\n"},
		{"http provider without url", "provider:\n  mode: \"http\"\n"},
		{"nightly without businesses", "nightly:\n  enabled: true\n"},
		{"influx without url", "metrics:\n  influx_enabled: true\n"},
	}
	for _, c := range cases {
		if _, err := Load(writeConfig(t, "config.yaml", c.data)); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "x = 1\n")); err == nil {
		t.Error("unsupported extension must fail")
	}
}
