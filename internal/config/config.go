package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/foundation/normalization"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// DefaultConfigFile is the configuration file name used when --config is not given.
const DefaultConfigFile = "docsync.yaml"

// MissingParentPolicy decides what happens when a two-level nav section names a
// top-level parent that does not exist in the site navigation.
type MissingParentPolicy string

const (
	// MissingParentWarn logs a warning and leaves the subsection out.
	MissingParentWarn MissingParentPolicy = "warn"
	// MissingParentCreate appends the parent as a new top-level section.
	MissingParentCreate MissingParentPolicy = "create"
	// MissingParentFail aborts the run before the site configuration is written.
	MissingParentFail MissingParentPolicy = "fail"
)

var missingParentPolicies = normalization.NewEnum("nav.missing_parent policy",
	MissingParentWarn, MissingParentWarn, MissingParentCreate, MissingParentFail)

// Config represents the application configuration
type Config struct {
	Repositories []Repository  `yaml:"repositories"`
	Site         SiteConfig    `yaml:"site"`
	Nav          NavConfig     `yaml:"nav,omitempty"`
	History      HistoryConfig `yaml:"history,omitempty"`
	Metrics      MetricsConfig `yaml:"metrics,omitempty"`
	Watch        WatchConfig   `yaml:"watch,omitempty"`
}

// Repository maps a child documentation source to its place in the site.
type Repository struct {
	Name        string   `yaml:"name"`
	Source      string   `yaml:"source"`      // Directory holding the authoritative Markdown
	Destination string   `yaml:"destination"` // Directory under the docs root receiving the copies
	NavSection  []string `yaml:"nav_section"` // One segment (top-level) or two (parent, child)
}

// SiteConfig locates the MkDocs site.
type SiteConfig struct {
	Config  string `yaml:"config"`   // Path to mkdocs.yml
	DocsDir string `yaml:"docs_dir"` // Document root nav paths are relative to
}

// NavConfig controls navigation rebuilding.
type NavConfig struct {
	MissingParent MissingParentPolicy `yaml:"missing_parent,omitempty"`
}

// HistoryConfig enables the SQLite run history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables Prometheus textfile export when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"` // Zero disables periodic resync
}

// Default returns the built-in mapping table used when no configuration file exists.
func Default() *Config {
	cfg := &Config{
		Repositories: []Repository{
			{
				Name:        "nexlayer-deployment-yaml",
				Source:      "nexlayer-deployment-yaml",
				Destination: "docs/deployment",
				NavSection:  []string{"Docs", "Deployment"},
			},
			{
				Name:        "api-reference",
				Source:      "api-reference",
				Destination: "docs/api-reference",
				NavSection:  []string{"API & SDK"},
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified file.
// A missing file at the default location falls back to Default().
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(filepath.Dir(configPath)); err != nil {
		slog.Debug("No .env file loaded", logfields.Error(err))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && configPath == DefaultConfigFile {
			slog.Debug("Configuration file not found, using built-in repository table", logfields.Path(configPath))
			return Default(), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Config == "" {
		c.Site.Config = "mkdocs.yml"
	}
	if c.Site.DocsDir == "" {
		c.Site.DocsDir = "docs"
	}
	if c.Nav.MissingParent == "" {
		c.Nav.MissingParent = MissingParentWarn
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 2 * time.Second
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryAlreadyExists, "configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			UserAction().
			Build()
	}

	example := Default()
	example.History.Path = ".docsync/history.db"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}

	return nil
}
