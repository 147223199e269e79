// Package config handles configuration loading and validation for loupe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds the complete loupe configuration.
type Config struct {
	// Labels holds the accessibility label strings.
	Labels LabelsConfig `toml:"labels"`

	// Zoom holds the interaction tuning.
	Zoom ZoomConfig `toml:"zoom"`

	// Cache holds the probe cache configuration.
	Cache CacheConfig `toml:"cache"`

	// Logging holds the logging configuration.
	Logging LoggingConfig `toml:"logging"`

	// Gallery holds the demo gallery configuration.
	Gallery GalleryConfig `toml:"gallery"`
}

// LabelsConfig holds the accessible label strings for the zoom controls.
type LabelsConfig struct {
	// ZoomIn labels the control that expands the image.
	ZoomIn string `toml:"zoom_in"`

	// ZoomOut labels the control that minimizes the image.
	ZoomOut string `toml:"zoom_out"`
}

// ZoomConfig holds interaction tuning.
type ZoomConfig struct {
	// MarginPx reserves pixels around the expanded box on every side.
	MarginPx float64 `toml:"margin_px"`

	// TransitionMs is the enlarge/shrink animation duration.
	TransitionMs int `toml:"transition_ms"`

	// ScrollContainer names the scrollable ancestor whose scroll events
	// close the zoom view: "window" or "region".
	ScrollContainer string `toml:"scroll_container"`

	// WatchFiles reloads the natural asset when a file-backed source is
	// rewritten on disk.
	WatchFiles bool `toml:"watch_files"`
}

// CacheConfig holds the probe cache configuration.
type CacheConfig struct {
	// Enabled turns the on-disk probe cache on.
	Enabled bool `toml:"enabled"`

	// Path is the cache database location.
	Path string `toml:"path"`

	// MaxAgeHours is how long cached probes stay valid.
	MaxAgeHours int `toml:"max_age_hours"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format"`
}

// GalleryConfig holds the demo gallery configuration.
type GalleryConfig struct {
	// ManifestPath points at the YAML image manifest.
	ManifestPath string `toml:"manifest_path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Labels: LabelsConfig{
			ZoomIn:  "Expand image",
			ZoomOut: "Minimize image",
		},
		Zoom: ZoomConfig{
			MarginPx:        0,
			TransitionMs:    300,
			ScrollContainer: "window",
			WatchFiles:      true,
		},
		Cache: CacheConfig{
			Enabled:     false,
			Path:        filepath.Join(LoupeDir(), "probes.db"),
			MaxAgeHours: 168,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Gallery: GalleryConfig{
			ManifestPath: filepath.Join(LoupeDir(), "gallery.yaml"),
		},
	}
}

// LoupeDir returns the base loupe data directory.
func LoupeDir() string {
	if envDir := os.Getenv("LOUPE_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".loupe")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(LoupeDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides.
// Variables are prefixed with LOUPE_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LOUPE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOUPE_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("LOUPE_MANIFEST"); v != "" {
		c.Gallery.ManifestPath = v
	}
	if v := os.Getenv("LOUPE_MARGIN_PX"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Zoom.MarginPx = f
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Labels.ZoomIn == "" {
		return fmt.Errorf("labels.zoom_in must not be empty")
	}
	if c.Labels.ZoomOut == "" {
		return fmt.Errorf("labels.zoom_out must not be empty")
	}
	if c.Zoom.MarginPx < 0 {
		return fmt.Errorf("zoom.margin_px must be >= 0, got %v", c.Zoom.MarginPx)
	}
	if c.Zoom.TransitionMs <= 0 {
		return fmt.Errorf("zoom.transition_ms must be > 0, got %d", c.Zoom.TransitionMs)
	}
	switch c.Zoom.ScrollContainer {
	case "window", "region":
	default:
		return fmt.Errorf("zoom.scroll_container must be \"window\" or \"region\", got %q", c.Zoom.ScrollContainer)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path must be set when the cache is enabled")
	}
	if c.Cache.MaxAgeHours < 0 {
		return fmt.Errorf("cache.max_age_hours must be >= 0, got %d", c.Cache.MaxAgeHours)
	}
	return nil
}
