// Package config handles application configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CiteStyle selects how movie titles are marked up in digest summaries.
type CiteStyle string

// Supported cite styles.
const (
	CitePlugin CiteStyle = "cite"
	CiteItalic CiteStyle = "italic"
)

// Config holds the application configuration. It is constructed once at
// startup and passed explicitly into every component that needs it.
type Config struct {
	Letterboxd LetterboxdConfig `yaml:"letterboxd"`
	WordPress  WordPressConfig  `yaml:"wordpress"`
	Local      LocalConfig      `yaml:"local"`
	LogLevel   string           `yaml:"logLevel"`
}

// LetterboxdConfig describes the review source account.
type LetterboxdConfig struct {
	User string `yaml:"user"`
	// PreferWatchedDate selects the watched date over the feed publish
	// timestamp whenever the source supplies one.
	PreferWatchedDate *bool `yaml:"preferWatchedDate"`
}

// WatchedDatePreferred reports the resolved timestamp-selection rule,
// defaulting to watched-date-first.
func (l LetterboxdConfig) WatchedDatePreferred() bool {
	if l.PreferWatchedDate == nil {
		return true
	}
	return *l.PreferWatchedDate
}

// WordPressConfig wires the remote content store.
type WordPressConfig struct {
	URL        string    `yaml:"url"`
	User       string    `yaml:"user"`
	Key        string    `yaml:"key"`
	Categories []int     `yaml:"categories"`
	Tags       []int     `yaml:"tags"`
	CiteStyle  CiteStyle `yaml:"citeStyle"`
}

// LocalConfig describes local persistence.
type LocalConfig struct {
	DBPath string `yaml:"dbPath"`
}

// Load reads and validates configuration from the given YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the CLI
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.WordPress.URL == "" {
		return nil, fmt.Errorf("wordpress.url is required")
	}
	if cfg.WordPress.User == "" {
		return nil, fmt.Errorf("wordpress.user is required")
	}
	if cfg.WordPress.Key == "" {
		return nil, fmt.Errorf("wordpress.key is required")
	}
	if cfg.Letterboxd.User == "" {
		return nil, fmt.Errorf("letterboxd.user is required")
	}

	if cfg.Local.DBPath == "" {
		cfg.Local.DBPath = "./data/lbpress.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	switch cfg.WordPress.CiteStyle {
	case "":
		cfg.WordPress.CiteStyle = CiteItalic
	case CitePlugin, CiteItalic:
	default:
		return nil, fmt.Errorf("wordpress.citeStyle must be %q or %q, got %q",
			CitePlugin, CiteItalic, cfg.WordPress.CiteStyle)
	}

	return &cfg, nil
}
