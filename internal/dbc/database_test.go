package dbc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/busview/internal/models"
)

const sampleSymbols = `version: 1
messages:
  - address: 0x10
    name: STEERING
    size: 8
    transmitter: EPS
    signals:
      - name: ANGLE
        start_bit: 0
        size: 16
      - name: TORQUE
        start_bit: 16
        size: 8
  - address: 0x200
    name: BRAKE
    size: 4
`

func writeSymbols(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenParsesDeclarations(t *testing.T) {
	path := writeSymbols(t, t.TempDir(), sampleSymbols)

	store, err := Open(path)
	require.NoError(t, err)
	require.Len(t, store.Messages(), 2)
	require.Equal(t, []uint32{0x10, 0x200}, store.SortedAddresses())

	msg := store.Msg(models.MessageID{Source: 2, Address: 0x10})
	require.NotNil(t, msg)
	require.Equal(t, "STEERING", msg.Name)
	require.Equal(t, "EPS", msg.Transmitter)
	require.True(t, msg.HasSignalContaining("torq"))
	require.False(t, msg.HasSignalContaining("speed"))

	require.Nil(t, store.Msg(models.MessageID{Address: 0x999}))
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	_, err := Parse([]byte("messages: [\n"))
	require.True(t, errors.Is(err, ErrSymbolFile))

	_, err = Parse([]byte(`messages:
  - address: 0x10
    name: A
  - address: 0x10
    name: B
`))
	require.True(t, errors.Is(err, ErrSymbolFile))
	require.Contains(t, err.Error(), "duplicate address 0x10")

	_, err = Parse([]byte(`messages:
  - address: 0x10
    name: ""
`))
	require.True(t, errors.Is(err, models.ErrMissingName))
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeSymbols(t, dir, sampleSymbols)
	store, err := Open(path)
	require.NoError(t, err)

	writeSymbols(t, dir, "messages: {")
	require.Error(t, store.Reload())
	require.Len(t, store.Messages(), 2)
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeSymbols(t, dir, sampleSymbols)

	changed := make(chan string, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(p string) { changed <- p })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	writeSymbols(t, dir, sampleSymbols+"  - address: 0x300\n    name: GAS\n")

	select {
	case got := <-changed:
		abs, _ := filepath.Abs(path)
		require.Equal(t, abs, got)
	case <-time.After(3 * time.Second):
		t.Fatal("expected change notification")
	}

	store, err := Open(path)
	require.NoError(t, err)
	require.Len(t, store.Messages(), 3)
}
