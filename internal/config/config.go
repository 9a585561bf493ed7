package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RetryBackoffMode selects the backoff curve used for transient ingest/store
// retries (see internal/retry).
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// Config represents the ingest daemon / CLI configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Retry    RetryConfig    `yaml:"retry"`
}

// DatabaseConfig points at the relational reference store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig configures the two interchangeable ingest drivers.
type IngestConfig struct {
	WatchDir    string `yaml:"watch_dir,omitempty"`
	NATSURL     string `yaml:"nats_url,omitempty"`
	NATSSubject string `yaml:"nats_subject,omitempty"`
}

// LoggingConfig holds the logging level and format read from the config
// file. They are normalized on load; the CLI does not read them when it
// installs its slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig activates the Prometheus-backed Recorder and its HTTP listener.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// RetryConfig configures internal/retry.Policy for ingest and store retries.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	InitialMS  int              `yaml:"initial_ms,omitempty"`
	MaxMS      int              `yaml:"max_ms,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// Load loads configuration from the specified file, applying the .env/.env.local
// overlay first so $VAR references in the YAML resolve against it.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./pyreport.sqlite"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(LogLevelInfo)
	} else if lvl := NormalizeLogLevel(cfg.Logging.Level); lvl != "" {
		cfg.Logging.Level = string(lvl)
	} else {
		cfg.Logging.Level = string(LogLevelInfo)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(LogFormatText)
	} else if f := NormalizeLogFormat(cfg.Logging.Format); f != "" {
		cfg.Logging.Format = string(f)
	} else {
		cfg.Logging.Format = string(LogFormatText)
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9090"
	}
	if cfg.Retry.Mode == "" {
		cfg.Retry.Mode = RetryBackoffLinear
	}
	if cfg.Retry.InitialMS == 0 {
		cfg.Retry.InitialMS = 1000
	}
	if cfg.Retry.MaxMS == 0 {
		cfg.Retry.MaxMS = 30000
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 2
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Database: DatabaseConfig{Path: "./pyreport.sqlite"},
		Ingest: IngestConfig{
			WatchDir:    "./inbox",
			NATSURL:     "nats://localhost:4222",
			NATSSubject: "pyreport.ingest",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: false, ListenAddr: ":9090"},
		Retry: RetryConfig{
			Mode:       RetryBackoffLinear,
			InitialMS:  1000,
			MaxMS:      30000,
			MaxRetries: 2,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
