package dbc

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tOgg1/busview/internal/logging"
)

const defaultDebounce = 150 * time.Millisecond

// ChangeHandler is invoked after the symbol file settles following an edit.
// It runs on the watcher goroutine; callers hand it off to their own loop.
type ChangeHandler func(path string)

// Watcher notifies when a symbol file is written, created or renamed into
// place. The parent directory is watched so editors that replace the file
// atomically are still seen.
type Watcher struct {
	path     string
	handler  ChangeHandler
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for path. debounce <= 0 selects the default.
func NewWatcher(path string, debounce time.Duration, handler ChangeHandler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("change handler is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve symbol path: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		path:     abs,
		handler:  handler,
		debounce: debounce,
		watcher:  fw,
		logger:   logging.Component("dbc-watcher"),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	go w.loop(ctx)
	w.logger.Debug().Str("path", w.path).Msg("watching symbol file")
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.logger.Info().Str("path", w.path).Msg("symbol file changed")
			w.handler(w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("symbol file watcher error")
		}
	}
}
