package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/busview/internal/bus"
	"github.com/tOgg1/busview/internal/db"
	"github.com/tOgg1/busview/internal/dbc"
	"github.com/tOgg1/busview/internal/logging"
	"github.com/tOgg1/busview/internal/models"
	"github.com/tOgg1/busview/internal/msglist"
)

// sessionFlags are the flags shared by commands that replay a capture.
type sessionFlags struct {
	capture      string
	symbols      string
	demux        int
	sort         string
	descending   bool
	hideInactive bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.capture, "capture", "c", "", "capture name or ID (default: current selection, then latest)")
	flags.StringVar(&f.symbols, "symbols", "", "symbol file (YAML)")
	flags.IntVar(&f.demux, "demux", 0, "demux factor (default from config)")
	flags.StringVar(&f.sort, "sort", "", "sort column: name, bus, id, node, freq, count")
	flags.BoolVar(&f.descending, "desc", false, "sort descending")
	flags.BoolVar(&f.hideInactive, "hide-inactive", false, "hide messages that stopped being received")
}

// listOptions merges flags over the configured view defaults.
func (f *sessionFlags) listOptions(cmd *cobra.Command, a *app) (msglist.Options, error) {
	opts := a.cfg.ListOptions()
	if cmd.Flags().Changed("demux") {
		if f.demux < 1 {
			return opts, fmt.Errorf("--demux must be at least 1")
		}
		opts.CycleRepetition = f.demux
	}
	if f.sort != "" {
		col, err := msglist.ParseColumn(f.sort)
		if err != nil {
			return opts, err
		}
		if col == msglist.ColumnData {
			return opts, fmt.Errorf("--sort: bytes is not sortable")
		}
		opts.SortColumn = col
	}
	if cmd.Flags().Changed("desc") {
		opts.SortOrder = msglist.Ascending
		if f.descending {
			opts.SortOrder = msglist.Descending
		}
	}
	if f.hideInactive {
		opts.ShowInactive = false
	}
	return opts, nil
}

// session is a capture loaded for replay.
type session struct {
	capture *models.Capture
	stream  *bus.ReplayStream
	symbols *dbc.Store
}

func (a *app) openSession(ctx context.Context, f *sessionFlags) (*session, error) {
	database, err := a.openDatabase()
	if err != nil {
		return nil, err
	}
	defer database.Close()

	repo := db.NewCaptureRepository(database)
	store := a.contextStore()
	resolved, err := ResolveCapture(ctx, repo, store, f.capture)
	if err != nil {
		return nil, err
	}
	events, err := repo.LoadEvents(ctx, resolved.Capture.ID)
	if err != nil {
		return nil, err
	}

	var symbols *dbc.Store
	if path := resolveSymbolsPath(store, a.cfg, f.symbols); path != "" {
		symbols, err = dbc.Open(path)
		if err != nil {
			return nil, err
		}
	}

	logging.FromContext(ctx).Debug().
		Str("capture", resolved.Capture.ID).
		Str("resolved_by", resolved.Source).
		Int("events", len(events)).
		Msg("capture loaded")

	return &session{
		capture: resolved.Capture,
		stream:  bus.NewReplayStream(events, bus.ReplayConfig{RefreshRate: a.cfg.View.RefreshRate}),
		symbols: symbols,
	}, nil
}

// database returns the symbol store as a Database, nil when none is loaded.
func (s *session) database() dbc.Database {
	if s.symbols == nil {
		return nil
	}
	return s.symbols
}
