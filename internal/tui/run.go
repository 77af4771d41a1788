package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/busview/internal/dbc"
	"github.com/tOgg1/busview/internal/msglist"
)

// RunConfig adds process level settings to Config.
type RunConfig struct {
	Config

	// WatchSymbols reloads the symbol file when it changes.
	WatchSymbols bool

	// Debounce coalesces bursts of symbol file events.
	Debounce time.Duration
}

// Run starts the viewer and blocks until the user quits or ctx is done.
func Run(ctx context.Context, player Player, symbols *dbc.Store, opts msglist.Options, cfg RunConfig) error {
	model, err := New(player, symbols, opts, cfg.Config)
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if cfg.WatchSymbols && symbols != nil && symbols.Path() != "" {
		watcher, err := dbc.NewWatcher(symbols.Path(), cfg.Debounce, func(path string) {
			program.Send(symbolsChangedMsg{path: path})
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	_, err = program.Run()
	return err
}
