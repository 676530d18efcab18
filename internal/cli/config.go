package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in defaults for the upstream feed endpoints.
const (
	DefaultAPIURL  = "https://mb-api.abuse.ch/api/v1/"
	DefaultFeedURL = "https://bazaar.abuse.ch/export/csv/recent/"
)

// File names inside the data directory.
const (
	mirrorFileName    = "hashes.csv"
	databaseFileName  = "hashes.db"
	watermarkFileName = "metadata.json"
)

// Config carries every path and endpoint a command needs. Nothing is
// read from ambient state at use time: paths are resolved to absolute
// form at load and passed down explicitly.
type Config struct {
	APIURL         string `yaml:"api_url"`
	FeedURL        string `yaml:"feed_url"`
	AuthKey        string `yaml:"auth_key"`
	DataDir        string `yaml:"data_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// MirrorPath is the live mirror file location.
func (c *Config) MirrorPath() string {
	return filepath.Join(c.DataDir, mirrorFileName)
}

// DBPath is the hash store location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, databaseFileName)
}

// WatermarkPath is the watermark file location, beside the mirror.
func (c *Config) WatermarkPath() string {
	return filepath.Join(c.DataDir, watermarkFileName)
}

// Timeout converts TimeoutSeconds into a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig builds the effective configuration: defaults, then the
// optional yaml file at path, then the data-dir override from the
// command line. The data directory is created and resolved to an
// absolute path.
//
// A config path that was explicitly given but cannot be read or parsed
// is an error; a missing auth key is not (the bulk export endpoint does
// not require one).
func LoadConfig(path, dataDirOverride string) (*Config, error) {
	cfg := &Config{
		APIURL:         DefaultAPIURL,
		FeedURL:        DefaultFeedURL,
		TimeoutSeconds: 60,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}
	if cfg.DataDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default data dir: %w", err)
		}
		cfg.DataDir = filepath.Join(cacheDir, "malscan")
	}

	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = abs

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	if cfg.AuthKey == "" {
		cfg.AuthKey = os.Getenv("MALSCAN_AUTH_KEY")
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 60
	}

	return cfg, nil
}
