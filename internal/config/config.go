// Package config loads medreport settings.
//
// Settings are layered: Default(), then the YAML file, then MEDREPORT_*
// environment variables. Command-line flags are applied by the CLI on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendLocal  = "local"
	BackendPinata = "pinata"
	BackendS3     = "s3"
)

// Config is the complete medreport configuration.
type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Logo    LogoConfig    `yaml:"logo"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ReportConfig holds the fixed text drawn on every report.
type ReportConfig struct {
	Kind      string `yaml:"kind" env:"MEDREPORT_REPORT_KIND"`
	Title     string `yaml:"title" env:"MEDREPORT_REPORT_TITLE"`
	Brand     string `yaml:"brand" env:"MEDREPORT_BRAND"`
	VerifyURL string `yaml:"verify_url" env:"MEDREPORT_VERIFY_URL"`
	Watermark string `yaml:"watermark" env:"MEDREPORT_WATERMARK"`
	Compress  bool   `yaml:"compress" env:"MEDREPORT_COMPRESS"`
}

// LogoConfig selects the header logo. Path wins over URL.
type LogoConfig struct {
	URL      string        `yaml:"url" env:"MEDREPORT_LOGO_URL"`
	Path     string        `yaml:"path" env:"MEDREPORT_LOGO_PATH"`
	Timeout  time.Duration `yaml:"timeout" env:"MEDREPORT_LOGO_TIMEOUT"`
	Disabled bool          `yaml:"disabled" env:"MEDREPORT_LOGO_DISABLED"`
}

// StorageConfig selects where published reports go.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"MEDREPORT_STORAGE_BACKEND"`
	// Database is the SQLite file holding records, and artifacts for the
	// local backend.
	Database string       `yaml:"database" env:"MEDREPORT_DATABASE"`
	Pinata   PinataConfig `yaml:"pinata"`
	S3       S3Config     `yaml:"s3"`
}

// PinataConfig configures IPFS pinning.
type PinataConfig struct {
	Endpoint string        `yaml:"endpoint" env:"MEDREPORT_PINATA_ENDPOINT"`
	JWT      string        `yaml:"jwt" env:"MEDREPORT_PINATA_JWT"`
	Timeout  time.Duration `yaml:"timeout" env:"MEDREPORT_PINATA_TIMEOUT"`
}

// S3Config configures S3-compatible object storage.
type S3Config struct {
	Endpoint string `yaml:"endpoint" env:"MEDREPORT_S3_ENDPOINT"`
	Region   string `yaml:"region" env:"MEDREPORT_S3_REGION"`
	Key      string `yaml:"key" env:"MEDREPORT_S3_KEY"`
	Secret   string `yaml:"secret" env:"MEDREPORT_S3_SECRET"`
	Bucket   string `yaml:"bucket" env:"MEDREPORT_S3_BUCKET"`
	Prefix   string `yaml:"prefix" env:"MEDREPORT_S3_PREFIX"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"MEDREPORT_LOG_LEVEL"`
	Format string `yaml:"format" env:"MEDREPORT_LOG_FORMAT"`
	// File enables rotating file output instead of stderr.
	File       string `yaml:"file" env:"MEDREPORT_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MEDREPORT_LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MEDREPORT_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MEDREPORT_LOG_MAX_AGE_DAYS"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			Kind:      "Medical_Report",
			Title:     "Medical Report",
			Brand:     "ArogyaBridge",
			VerifyURL: "https://arogya-bridge.vercel.app",
			Watermark: "CONFIDENTIAL",
			Compress:  true,
		},
		Logo: LogoConfig{
			URL:     "https://upload.wikimedia.org/wikipedia/commons/thumb/5/5b/Star_of_life2.svg/640px-Star_of_life2.svg.png",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:  BackendLocal,
			Database: "medreport.db",
			Pinata: PinataConfig{
				Timeout: 60 * time.Second,
			},
			S3: S3Config{
				Region: "auto",
			},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or the defaults when path is empty or missing.
// Environment overrides apply either way.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	cfg := Default()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with every MEDREPORT_* variable that is set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Storage.Backend {
	case BackendLocal:
	case BackendPinata:
		if c.Storage.Pinata.JWT == "" {
			result = multierror.Append(result, fmt.Errorf("storage.pinata.jwt is required for the pinata backend"))
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("storage.s3.bucket is required for the s3 backend"))
		}
		if c.Storage.S3.Key == "" || c.Storage.S3.Secret == "" {
			result = multierror.Append(result, fmt.Errorf("storage.s3.key and storage.s3.secret are required for the s3 backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("storage.backend %q is not one of local, pinata, s3", c.Storage.Backend))
	}

	if c.Storage.Database == "" {
		result = multierror.Append(result, fmt.Errorf("storage.database is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		result = multierror.Append(result, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Logo.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("logo.timeout must not be negative"))
	}

	return result.ErrorOrNil()
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
