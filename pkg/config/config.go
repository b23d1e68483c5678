package config

import (
	"fmt"
	"time"

	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
)

// Config represents the application configuration
type Config struct {
	Targets []TargetConfig `yaml:"targets"`
	Polling PollingConfig  `yaml:"polling"`
	State   StateConfig    `yaml:"state"`
	Output  OutputConfig   `yaml:"output"`
	Logging LoggingConfig  `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Exclude []string       `yaml:"exclude"`
}

// TargetConfig describes one watched folder or file
type TargetConfig struct {
	Name        string            `yaml:"name"`
	Protocol    models.Protocol   `yaml:"protocol"`
	TriggerOn   models.TriggerOn  `yaml:"trigger_on"`
	Path        string            `yaml:"path"`
	Event       models.EventKind  `yaml:"event"`
	Exclude     []string          `yaml:"exclude,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
	Root        string            `yaml:"root,omitempty"` // local protocol only
	Credentials CredentialsConfig `yaml:"credentials,omitempty"`
}

// PollingConfig holds scheduling settings for watch mode
type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// StateConfig selects where snapshots are persisted
type StateConfig struct {
	Backend  string         `yaml:"backend"` // "file", "s3", "postgres" or "memory"
	Dir      string         `yaml:"dir,omitempty"`
	S3       S3Config       `yaml:"s3,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

// S3Config holds S3 state backend settings
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix,omitempty"`
	Region       string `yaml:"region,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	AccessKey    string `yaml:"access_key,omitempty"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	SecretKeyEnv string `yaml:"secret_key_env,omitempty"`
	Profile      string `yaml:"profile,omitempty"`
}

// PostgresConfig holds PostgreSQL state backend settings
type PostgresConfig struct {
	URL    string `yaml:"url,omitempty"`
	URLEnv string `yaml:"url_env,omitempty"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bar for multi-target polls
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // Log file path (empty = stderr)
	MaxSize    int64  `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig holds the Prometheus endpoint settings for watch mode
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Polling: PollingConfig{
			Interval: time.Minute,
		},
		State: StateConfig{
			Backend: snapshot.KindFile,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Format:     "json",
			Level:      "info",
			File:       "",
			MaxSize:    100 * 1024 * 1024,
			MaxBackups: 5,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9108",
		},
	}
}

// Example returns the default configuration with one sample target,
// written by "config init"
func Example() *Config {
	cfg := Default()
	cfg.Targets = []TargetConfig{{
		Name:      "uploads",
		Protocol:  models.ProtocolSFTP,
		TriggerOn: models.TriggerSpecificFolder,
		Path:      "/incoming",
		Event:     models.EventFileCreated,
		Timeout:   30 * time.Second,
		Credentials: CredentialsConfig{
			Host:           "sftp.example.com",
			Port:           22,
			Username:       "watcher",
			PrivateKeyFile: "~/.ssh/id_ed25519",
			KnownHosts:     "~/.ssh/known_hosts",
		},
	}}
	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Polling.Interval <= 0 {
		return &models.ValidationError{
			Field:   "polling.interval",
			Message: "must be positive",
		}
	}

	validBackends := map[string]bool{
		snapshot.KindFile: true, snapshot.KindS3: true,
		snapshot.KindPostgres: true, snapshot.KindMemory: true,
	}
	if !validBackends[c.State.Backend] {
		return &models.ValidationError{
			Field:   "state.backend",
			Message: "must be 'file', 's3', 'postgres', or 'memory'",
		}
	}
	if c.State.Backend == snapshot.KindS3 && c.State.S3.Bucket == "" {
		return &models.ValidationError{
			Field:   "state.s3.bucket",
			Message: "is required for the s3 backend",
		}
	}
	if c.State.Backend == snapshot.KindPostgres && c.State.Postgres.URL == "" && c.State.Postgres.URLEnv == "" {
		return &models.ValidationError{
			Field:   "state.postgres.url",
			Message: "url or url_env is required for the postgres backend",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return &models.ValidationError{
			Field:   "metrics.listen",
			Message: "is required when metrics are enabled",
		}
	}

	keys := make(map[string]int, len(c.Targets))
	for i := range c.Targets {
		target := c.Targets[i].WatchTarget()
		if err := target.Validate(); err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
		if target.Protocol != models.ProtocolLocal && c.Targets[i].Credentials.Host == "" {
			return fmt.Errorf("targets[%d]: %w", i, &models.ValidationError{
				Field:   "credentials.host",
				Message: "is required for remote protocols",
			})
		}
		key := target.StateKey()
		if prev, ok := keys[key]; ok {
			return fmt.Errorf("targets[%d]: %w", i, &models.ValidationError{
				Field:   "name",
				Message: fmt.Sprintf("state key %q already used by targets[%d]", key, prev),
			})
		}
		keys[key] = i
	}

	return nil
}

// Target returns the target with the given name
func (c *Config) Target(name string) (*TargetConfig, error) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], nil
		}
	}
	return nil, fmt.Errorf("no target named %q in configuration", name)
}

// WatchTarget converts the target settings to a models.WatchTarget
func (t *TargetConfig) WatchTarget() models.WatchTarget {
	trigger := t.TriggerOn
	if trigger == "" {
		trigger = models.TriggerSpecificFolder
	}
	return models.WatchTarget{
		Name:      t.Name,
		Protocol:  t.Protocol,
		Host:      t.Credentials.Host,
		TriggerOn: trigger,
		Path:      t.Path,
		Event:     t.Event,
		Exclude:   t.Exclude,
		Timeout:   t.Timeout,
	}
}

// SnapshotOptions converts the state settings to snapshot.Options,
// resolving secrets from the environment
func (s *StateConfig) SnapshotOptions() snapshot.Options {
	return snapshot.Options{
		Kind: s.Backend,
		Dir:  s.Dir,
		S3: snapshot.S3Config{
			Bucket:    s.S3.Bucket,
			Prefix:    s.S3.Prefix,
			Region:    s.S3.Region,
			Endpoint:  s.S3.Endpoint,
			AccessKey: s.S3.AccessKey,
			SecretKey: fromEnv(s.S3.SecretKey, s.S3.SecretKeyEnv),
			Profile:   s.S3.Profile,
		},
		PostgresURL: fromEnv(s.Postgres.URL, s.Postgres.URLEnv),
	}
}
