package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/busview/internal/bus"
	"github.com/tOgg1/busview/internal/dbc"
	"github.com/tOgg1/busview/internal/events"
	"github.com/tOgg1/busview/internal/models"
	"github.com/tOgg1/busview/internal/msglist"
)

func testPlayer() *bus.ReplayStream {
	return bus.NewReplayStream([]*models.CanEvent{
		{Source: 0, Address: 0x10, MonoTime: 1_000_000_000, Data: []byte{0x01, 0x02}},
		{Source: 0, Address: 0x20, MonoTime: 1_000_000_000, Data: []byte{0x03}},
		{Source: 1, Address: 0x30, MonoTime: 1_500_000_000, Data: []byte{0x04}},
		{Source: 0, Address: 0x10, MonoTime: 2_000_000_000, Data: []byte{0x05, 0x02}},
	}, bus.ReplayConfig{})
}

func newTestViewer(t *testing.T, symbols *dbc.Store) *Model {
	t.Helper()
	m, err := New(testPlayer(), symbols, msglist.DefaultOptions(), Config{Title: "test", RefreshRate: 10})
	require.NoError(t, err)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func rowAddresses(m *Model) []uint32 {
	out := []uint32{}
	for _, item := range m.List().Items() {
		out = append(out, item.ID.Address)
	}
	return out
}

func TestNewShowsInitialRows(t *testing.T) {
	m := newTestViewer(t, nil)

	require.Equal(t, []uint32{0x10, 0x20}, rowAddresses(m))
	require.True(t, m.hasSel)
	require.Equal(t, uint32(0x10), m.selected.ID.Address)
}

func TestTickAdvancesPlayback(t *testing.T) {
	m := newTestViewer(t, nil)
	start := time.Unix(100, 0)

	m.Update(tickMsg(start))
	require.Zero(t, m.playSec)

	m.Update(tickMsg(start.Add(600 * time.Millisecond)))
	require.InDelta(t, 0.6, m.playSec, 1e-9)
	require.Equal(t, []uint32{0x10, 0x20, 0x30}, rowAddresses(m))

	m.Update(tickMsg(start.Add(5 * time.Second)))
	require.InDelta(t, 1.0, m.playSec, 1e-9)
	require.True(t, m.paused)
	require.Equal(t, "end of capture", m.statusText)
}

func TestPausedTickDoesNotAdvance(t *testing.T) {
	m := newTestViewer(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	require.True(t, m.paused)

	start := time.Unix(100, 0)
	m.Update(tickMsg(start))
	m.Update(tickMsg(start.Add(time.Second)))
	require.Zero(t, m.playSec)
}

func TestSortKeysCycleColumnAndOrder(t *testing.T) {
	m := newTestViewer(t, nil)

	m.Update(keyRunes("s"))
	col, order := m.List().SortKey()
	require.Equal(t, msglist.ColumnSource, col)
	require.Equal(t, msglist.Ascending, order)

	m.Update(keyRunes("S"))
	_, order = m.List().SortKey()
	require.Equal(t, msglist.Descending, order)
	require.Equal(t, []uint32{0x20, 0x10}, rowAddresses(m))
}

func TestSelectionFollowsRowAfterReset(t *testing.T) {
	m := newTestViewer(t, nil)
	m.Update(keyRunes("j"))
	require.Equal(t, uint32(0x20), m.selected.ID.Address)

	m.Update(keyRunes("s"))
	m.Update(keyRunes("S"))
	require.Equal(t, 0, m.cursor)
	require.Equal(t, uint32(0x20), m.selected.ID.Address)
}

func TestDemuxKeyCyclesFactors(t *testing.T) {
	m := newTestViewer(t, nil)

	m.Update(keyRunes("d"))
	require.Equal(t, 2, m.List().CycleRepetition())
	require.Equal(t, 4, m.List().RowCount())

	for range len(demuxFactors) - 1 {
		m.Update(keyRunes("d"))
	}
	require.Equal(t, 1, m.List().CycleRepetition())
}

func TestInactiveKeyToggles(t *testing.T) {
	m := newTestViewer(t, nil)
	require.True(t, m.List().ShowingInactive())

	m.Update(keyRunes("i"))
	require.False(t, m.List().ShowingInactive())
}

func TestFilterModeAppliesExpression(t *testing.T) {
	m := newTestViewer(t, nil)

	m.Update(keyRunes("/"))
	require.Equal(t, modeFilter, m.mode)
	m.Update(keyRunes("id=0x2"))
	m.Update(keyRunes("x"))
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m.Update(keyRunes("0"))
	require.Equal(t, "id=0x20", m.filterInput)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeMain, m.mode)
	require.Equal(t, []uint32{0x20}, rowAddresses(m))
	require.Equal(t, map[msglist.Column]string{msglist.ColumnAddress: "0x20"}, m.List().FilterStrings())

	m.Update(keyRunes("/"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Empty(t, m.List().FilterStrings())
	require.Len(t, rowAddresses(m), 2)
}

func TestFilterModeRejectsUnknownColumn(t *testing.T) {
	m := newTestViewer(t, nil)

	m.Update(keyRunes("/"))
	m.Update(keyRunes("color=red"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, statusErr, m.statusKind)
	require.NotEmpty(t, m.statusText)
	require.Empty(t, m.List().FilterStrings())
}

func TestSeekKeys(t *testing.T) {
	m := newTestViewer(t, nil)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.InDelta(t, 1.0, m.playSec, 1e-9)
	require.Len(t, rowAddresses(m), 3)

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	require.Zero(t, m.playSec)
}

func TestSymbolsReloadKeepsDeclaredRows(t *testing.T) {
	store := dbc.NewStore()
	store.Replace([]models.MessageDecl{
		{Address: 0x10, Name: "ENGINE", Size: 2},
		{Address: 0x40, Name: "IDLE", Size: 1},
	})
	m := newTestViewer(t, store)

	require.Equal(t, []uint32{0x10, 0x40, 0x20}, rowAddresses(m))
	item, ok := m.List().Item(1)
	require.True(t, ok)
	require.True(t, item.ID.IsDeclaredOnly())

	// A store without a backing file reloads as a no-op.
	m.Update(symbolsChangedMsg{path: "symbols.yaml"})
	require.Equal(t, "symbols reloaded", m.statusText)
}

func TestViewRendersChrome(t *testing.T) {
	m := newTestViewer(t, nil)

	view := m.View()
	require.Contains(t, view, "test")
	require.Contains(t, view, "2 Messages (0 DBC Messages, 0 Signals)")
	require.Contains(t, view, "Name ▲")
	require.Contains(t, view, "Count")
	require.Contains(t, view, "Bytes")
	require.Contains(t, view, "0x10")
	require.Contains(t, view, "01")
	require.Contains(t, view, "demux x1")

	m.Update(keyRunes("?"))
	require.Contains(t, m.View(), "toggle inactive")
	m.Update(keyRunes("x"))
	require.Equal(t, modeMain, m.mode)
}

func TestQuit(t *testing.T) {
	m := newTestViewer(t, nil)

	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	require.True(t, m.quitting)
	require.Empty(t, m.View())
}

func TestRemoveLastRune(t *testing.T) {
	require.Equal(t, "", removeLastRune(""))
	require.Equal(t, "ab", removeLastRune("abc"))
	require.Equal(t, "ø", removeLastRune("øå"))
}

func TestHighlightColor(t *testing.T) {
	_, ok := highlightColor(models.Transparent)
	require.False(t, ok)

	c, ok := highlightColor(models.Color{R: 255, G: 0, B: 0, A: 255})
	require.True(t, ok)
	require.Equal(t, "#ff0000", string(c))
	require.True(t, strings.HasPrefix(string(c), "#"))
}

func TestWatchResetsReportsSubscribeFailure(t *testing.T) {
	m := newTestViewer(t, nil)

	pub := events.NewInMemoryPublisher()
	require.NoError(t, m.watchResets(pub))
	err := m.watchResets(pub)
	require.ErrorIs(t, err, events.ErrSubscriptionExists)
	require.ErrorContains(t, err, "subscribe to row resets")

	m.reset = false
	pub.Publish(context.Background(), &events.Notification{Kind: events.KindRowsReset, Source: msglist.NotificationSource})
	require.True(t, m.reset)
}
