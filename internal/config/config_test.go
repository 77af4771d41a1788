package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/busview/internal/msglist"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10, cfg.View.RefreshRate)
	require.True(t, cfg.View.ShowInactive)
	require.Equal(t, filepath.Join(cfg.Global.DataDir, "captures.db"), cfg.DatabasePath())
	require.Equal(t, filepath.Join(cfg.Global.DataDir, "busview.log"), cfg.LogFilePath())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"refresh rate", func(c *Config) { c.View.RefreshRate = 0 }},
		{"demux factor", func(c *Config) { c.View.DemuxFactor = 0 }},
		{"speed", func(c *Config) { c.View.Speed = 0 }},
		{"unknown sort column", func(c *Config) { c.View.SortColumn = "speed" }},
		{"bytes sort column", func(c *Config) { c.View.SortColumn = "bytes" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"debounce", func(c *Config) { c.Symbols.Debounce = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestListOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.View.RefreshRate = 30
	cfg.View.ShowInactive = false
	cfg.View.DemuxFactor = 8
	cfg.View.SortColumn = "freq"
	cfg.View.SortDescending = true

	opts := cfg.ListOptions()
	require.Equal(t, 30, opts.RefreshRate)
	require.False(t, opts.ShowInactive)
	require.Equal(t, 8, opts.CycleRepetition)
	require.Equal(t, msglist.ColumnFreq, opts.SortColumn)
	require.Equal(t, msglist.Descending, opts.SortOrder)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
view:
  refresh_rate: 20
  demux_factor: 4
  sort_column: count
symbols:
  path: ~/symbols.yaml
  debounce: 500ms
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.View.RefreshRate)
	require.Equal(t, 4, cfg.View.DemuxFactor)
	require.Equal(t, "count", cfg.View.SortColumn)
	require.True(t, cfg.View.ShowInactive)
	require.Equal(t, 500*time.Millisecond, cfg.Symbols.Debounce)
	require.Equal(t, "debug", cfg.Logging.Level)

	home, _ := os.UserHomeDir()
	require.Equal(t, filepath.Join(home, "symbols.yaml"), cfg.Symbols.Path)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  refresh_rate: 20\n"), 0644))

	t.Setenv("BUSVIEW_VIEW_REFRESH_RATE", "25")
	t.Setenv("BUSVIEW_DATABASE_PATH", "/tmp/busview-test.db")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.View.RefreshRate)
	require.Equal(t, "/tmp/busview-test.db", cfg.DatabasePath())
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  refresh_rate: 0\n"), 0644))

	_, err := LoadFromFile(path)
	require.ErrorContains(t, err, "view.refresh_rate")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestExpandTilde(t *testing.T) {
	home, _ := os.UserHomeDir()
	require.Equal(t, "", expandTilde(""))
	require.Equal(t, home, expandTilde("~"))
	require.Equal(t, filepath.Join(home, "x"), expandTilde("~/x"))
	require.Equal(t, "/abs", expandTilde("/abs"))
}
