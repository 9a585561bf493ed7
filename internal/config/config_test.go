package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.Database.Path != "./pyreport.sqlite" {
		t.Fatalf("expected default database path, got %s", cfg.Database.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Retry.Mode != RetryBackoffLinear {
		t.Fatalf("expected default retry mode linear, got %s", cfg.Retry.Mode)
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Fatalf("expected default max retries 2, got %d", cfg.Retry.MaxRetries)
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	raw := `database:
  path: /var/lib/pyreport/custom.sqlite
retry:
  mode: exponential
  max_retries: 9
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	applyDefaults(&cfg)

	if cfg.Database.Path != "/var/lib/pyreport/custom.sqlite" {
		t.Fatalf("expected explicit database path preserved, got %s", cfg.Database.Path)
	}
	if cfg.Retry.Mode != RetryBackoffExponential {
		t.Fatalf("expected explicit retry mode preserved, got %s", cfg.Retry.Mode)
	}
	if cfg.Retry.MaxRetries != 9 {
		t.Fatalf("expected explicit max retries preserved, got %d", cfg.Retry.MaxRetries)
	}
	// Unset fields still get defaults.
	if cfg.Logging.Format != "text" {
		t.Fatalf("expected default log format text, got %s", cfg.Logging.Format)
	}
}

func TestInitRejectsExistingFileWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := Init(path, false); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Fatalf("expected error on second init without force")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("expected force init to succeed: %v", err)
	}
}
