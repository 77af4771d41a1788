// Package cli implements the busview command line.
package cli

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tOgg1/busview/internal/config"
	"github.com/tOgg1/busview/internal/db"
	"github.com/tOgg1/busview/internal/logging"
)

// app carries global flags and the loaded configuration to subcommands.
type app struct {
	configFile string
	jsonOutput bool
	logLevel   string
	dbPath     string

	cfg *config.Config
}

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "busview",
		Short:         "Browse recorded bus traffic as a live message list",
		Long:          "busview replays recorded bus captures into a filtered, sorted and demuxed message list.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ~/.config/busview/config.yaml)")
	flags.BoolVar(&a.jsonOutput, "json", false, "output in JSON format")
	flags.StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	flags.StringVar(&a.dbPath, "db", "", "capture database path (default: <data_dir>/captures.db)")

	cmd.AddCommand(
		newImportCmd(a),
		newCapturesCmd(a),
		newUseCmd(a),
		newListCmd(a),
		newViewCmd(a),
	)

	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cmd.ErrOrStderr(),
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("cli").With().Str("command", cmd.Name()).Logger()
	cmd.SetContext(logging.WithContext(cmd.Context(), logger))
	logger.Debug().Str("config", loader.ConfigFileUsed()).Msg("configuration loaded")
	return nil
}

func (a *app) openDatabase() (*db.DB, error) {
	return db.Open(db.Config{
		Path:          a.cfg.DatabasePath(),
		BusyTimeoutMs: a.cfg.Database.BusyTimeoutMs,
	})
}

func (a *app) contextStore() *config.ContextStore {
	return config.NewContextStore(filepath.Join(a.cfg.Global.ConfigDir, "context.yaml"))
}

// WriteOutput writes v as indented JSON.
func WriteOutput(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
