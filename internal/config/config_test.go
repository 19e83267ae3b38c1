package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultFallbackWait(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Browser.WaitTimeout != 5*time.Second {
		t.Errorf("expected 5s fallback wait, got %s", cfg.Browser.WaitTimeout)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"zero wait", func(c *Config) { c.Browser.WaitTimeout = 0 }},
		{"empty selector", func(c *Config) { c.Selectors.StateToggle = " " }},
		{"bad min nodes", func(c *Config) { c.Selectors.ContributorsMinNodes = 0 }},
		{"bad parallel", func(c *Config) { c.Miner.Parallel = 0 }},
		{"bad storage", func(c *Config) { c.Storage.Type = "xml" }},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongodb" }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://github.com/org/repo", "http://localhost:8080/org/repo"}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("expected %q to be valid: %v", u, err)
		}
	}

	invalid := []string{"ftp://github.com/org/repo", "https://github.com", "/org/repo", "https:///org/repo"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("expected %q to be rejected", u)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repominer.yaml")
	content := `
browser:
  wait_timeout: 7s
selectors:
  state_toggle: "div.states"
storage:
  type: csv
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Browser.WaitTimeout != 7*time.Second {
		t.Errorf("expected 7s wait, got %s", cfg.Browser.WaitTimeout)
	}
	if cfg.Selectors.StateToggle != "div.states" {
		t.Errorf("expected overridden state toggle, got %q", cfg.Selectors.StateToggle)
	}
	if cfg.Selectors.Summary != DefaultSelectors().Summary {
		t.Errorf("expected default summary selector, got %q", cfg.Selectors.Summary)
	}
	if cfg.Storage.Type != "csv" {
		t.Errorf("expected csv storage, got %q", cfg.Storage.Type)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("REPOMINER_MINER_PARALLEL", "4")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Miner.Parallel != 4 {
		t.Errorf("expected parallel=4 from env, got %d", cfg.Miner.Parallel)
	}
}
