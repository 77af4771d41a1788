// Package config handles busview configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tOgg1/busview/internal/msglist"
)

// Config is the root configuration structure for busview.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Database settings for the capture store
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// View settings for the message list
	View ViewConfig `yaml:"view" mapstructure:"view"`

	// Symbols settings for the symbol database
	Symbols SymbolsConfig `yaml:"symbols" mapstructure:"symbols"`

	// Metrics settings
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// GlobalConfig contains global busview settings.
type GlobalConfig struct {
	// DataDir is where busview stores its data (default: ~/.local/share/busview).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/busview).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig contains capture store settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The viewer always logs to a file.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ViewConfig contains message list settings.
type ViewConfig struct {
	// RefreshRate is the UI frame rate. Periodic re-sorting under dynamic
	// filters happens once per RefreshRate frames.
	RefreshRate int `yaml:"refresh_rate" mapstructure:"refresh_rate"`

	// MultiLineBytes renders payloads longer than eight bytes on several lines.
	MultiLineBytes bool `yaml:"multi_line_bytes" mapstructure:"multi_line_bytes"`

	// ShowInactive keeps messages that are no longer received in the list.
	ShowInactive bool `yaml:"show_inactive" mapstructure:"show_inactive"`

	// DemuxFactor is the initial cycle repetition.
	DemuxFactor int `yaml:"demux_factor" mapstructure:"demux_factor"`

	// SortColumn is the initial sort column (name, bus, id, node, freq, count).
	SortColumn string `yaml:"sort_column" mapstructure:"sort_column"`

	// SortDescending reverses the initial sort order.
	SortDescending bool `yaml:"sort_descending" mapstructure:"sort_descending"`

	// Speed is the playback speed multiplier.
	Speed float64 `yaml:"speed" mapstructure:"speed"`

	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// SymbolsConfig contains symbol database settings.
type SymbolsConfig struct {
	// Path is the default symbol file.
	Path string `yaml:"path" mapstructure:"path"`

	// Watch reloads the symbol file when it changes on disk.
	Watch bool `yaml:"watch" mapstructure:"watch"`

	// Debounce coalesces bursts of file events.
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	// Addr is the listen address of the metrics endpoint. Empty disables it.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "busview"),
			ConfigDir: filepath.Join(homeDir, ".config", "busview"),
		},
		Database: DatabaseConfig{
			Path:          "", // Will be set to DataDir/captures.db
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		View: ViewConfig{
			RefreshRate:  10,
			ShowInactive: true,
			DemuxFactor:  1,
			SortColumn:   "name",
			Speed:        1.0,
			Theme:        "default",
		},
		Symbols: SymbolsConfig{
			Watch:    true,
			Debounce: 150 * time.Millisecond,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.View.RefreshRate < 1 {
		return fmt.Errorf("view.refresh_rate must be at least 1")
	}

	if c.View.DemuxFactor < 1 {
		return fmt.Errorf("view.demux_factor must be at least 1")
	}

	if c.View.Speed <= 0 {
		return fmt.Errorf("view.speed must be positive")
	}

	col, err := msglist.ParseColumn(c.View.SortColumn)
	if err != nil {
		return fmt.Errorf("view.sort_column: %w", err)
	}
	if col == msglist.ColumnData {
		return fmt.Errorf("view.sort_column: bytes is not sortable")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console, json")
	}

	if c.Symbols.Debounce < 0 {
		return fmt.Errorf("symbols.debounce must not be negative")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full capture store path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "captures.db")
}

// LogFilePath returns the viewer log file, defaulting into DataDir.
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Global.DataDir, "busview.log")
}

// ListOptions converts the view settings into message list options.
func (c *Config) ListOptions() msglist.Options {
	opts := msglist.DefaultOptions()
	opts.RefreshRate = c.View.RefreshRate
	opts.ShowInactive = c.View.ShowInactive
	opts.CycleRepetition = c.View.DemuxFactor
	if col, err := msglist.ParseColumn(c.View.SortColumn); err == nil {
		opts.SortColumn = col
	}
	if c.View.SortDescending {
		opts.SortOrder = msglist.Descending
	}
	return opts
}
