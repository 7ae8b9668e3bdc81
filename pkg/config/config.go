package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/services"
)

// DefaultConfigPath is the YAML file read by Load when it exists.
const DefaultConfigPath = "config.yaml"

// localSessionSecret signs session cookies in local and test environments
// when SESSION_SECRET is unset.
const localSessionSecret = "ekaya-dataprep-local-session-secret"

// Config holds all configuration for ekaya-dataprep.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3450"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	Version  string `yaml:"-"` // Set at load time, not from config

	// UIDir is served at / when non-empty and present on disk.
	UIDir string `yaml:"ui_dir" env:"UI_DIR" env-default:""`

	Processing ProcessingConfig `yaml:"processing"`
	Store      StoreConfig      `yaml:"store"`
	Session    SessionConfig    `yaml:"session"`
}

// ProcessingConfig controls upload limits, profiling parallelism and the
// type inference thresholds.
type ProcessingConfig struct {
	// MaxUploadMB is the largest accepted upload.
	MaxUploadMB int64 `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB" env-default:"50"`
	// PreviewRows is the number of leading rows returned with a dataset.
	PreviewRows int `yaml:"preview_rows" env:"PREVIEW_ROWS" env-default:"10"`
	// ProfileWorkers bounds how many columns are profiled concurrently.
	ProfileWorkers int `yaml:"profile_workers" env:"PROFILE_WORKERS" env-default:"8"`

	NumericMajority   float64 `yaml:"numeric_majority" env:"NUMERIC_MAJORITY" env-default:"0.9"`
	CategoryMinValues int     `yaml:"category_min_values" env:"CATEGORY_MIN_VALUES" env-default:"100"`
	CategoryMaxRatio  float64 `yaml:"category_max_ratio" env:"CATEGORY_MAX_RATIO" env-default:"0.1"`
	MinDateLength     int     `yaml:"min_date_length" env:"MIN_DATE_LENGTH" env-default:"6"`
}

// StoreConfig controls how long processed datasets stay in memory.
type StoreConfig struct {
	TTLMinutes           int `yaml:"ttl_minutes" env:"DATASET_TTL_MINUTES" env-default:"30"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" env:"DATASET_SWEEP_INTERVAL_SECONDS" env-default:"60"`
}

// SessionConfig configures the cookie that remembers the last dataset.
type SessionConfig struct {
	Secret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML
	MaxAge int    `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"3600"`
	Secure bool   `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// A .env file in the working directory is loaded into the environment first
// without overriding variables that are already set. config.yaml is optional;
// without it, configuration comes from the environment and defaults.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultConfigPath, version)
}

// LoadFrom is Load with an explicit YAML path.
func LoadFrom(path, version string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsLocal reports whether the server runs in a developer or test environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == "test" || c.Env == "dev"
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		if !c.IsLocal() {
			return fmt.Errorf("SESSION_SECRET must be set when env is %q", c.Env)
		}
		c.Session.Secret = localSessionSecret
	}

	p := c.Processing
	if p.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", p.MaxUploadMB)
	}
	if p.PreviewRows < 0 {
		return fmt.Errorf("preview_rows must not be negative, got %d", p.PreviewRows)
	}
	if p.NumericMajority <= 0 || p.NumericMajority > 1 {
		return fmt.Errorf("numeric_majority must be in (0, 1], got %v", p.NumericMajority)
	}
	if p.CategoryMaxRatio <= 0 || p.CategoryMaxRatio > 1 {
		return fmt.Errorf("category_max_ratio must be in (0, 1], got %v", p.CategoryMaxRatio)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (p ProcessingConfig) MaxUploadBytes() int64 {
	return p.MaxUploadMB << 20
}

// ProfilerConfig returns the inference thresholds.
func (p ProcessingConfig) ProfilerConfig() services.ProfilerConfig {
	return services.ProfilerConfig{
		NumericMajority:   p.NumericMajority,
		CategoryMinValues: p.CategoryMinValues,
		CategoryMaxRatio:  p.CategoryMaxRatio,
		MinDateLength:     p.MinDateLength,
	}
}

// TTL returns the dataset idle lifetime.
func (s StoreConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// SweepInterval returns how often expired datasets are removed.
func (s StoreConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}
