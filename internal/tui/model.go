// Package tui implements the interactive message list viewer.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tOgg1/busview/internal/bus"
	"github.com/tOgg1/busview/internal/dbc"
	"github.com/tOgg1/busview/internal/events"
	"github.com/tOgg1/busview/internal/logging"
	"github.com/tOgg1/busview/internal/models"
	"github.com/tOgg1/busview/internal/msglist"
)

const (
	defaultRefreshRate = 10
	defaultStatusTTL   = 4 * time.Second
	seekStep           = 5.0

	minWindowWidth  = 60
	minWindowHeight = 10
)

// demuxFactors is the cycle of demux factors offered by the d key.
var demuxFactors = []int{1, 2, 4, 8, 16, 32}

// sortColumns is the cycle of sortable columns offered by the s key.
var sortColumns = []msglist.Column{
	msglist.ColumnName,
	msglist.ColumnSource,
	msglist.ColumnAddress,
	msglist.ColumnNode,
	msglist.ColumnFreq,
	msglist.ColumnCount,
}

// Player is a stream whose playback position the viewer controls.
type Player interface {
	bus.Stream
	Advance(sec float64) (map[models.MessageID]struct{}, bool)
	Seek(sec float64) (map[models.MessageID]struct{}, bool)
	Duration() float64
}

// Config controls viewer behavior.
type Config struct {
	// Title names the capture in the header.
	Title string

	// Theme is the palette name.
	Theme string

	// Speed is the playback speed multiplier.
	Speed float64

	// RefreshRate is the frame rate in frames per second.
	RefreshRate int

	// MultiLineBytes wraps long payloads over several lines.
	MultiLineBytes bool
}

type uiMode int

const (
	modeMain uiMode = iota
	modeFilter
	modeHelp
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusErr
)

type tickMsg time.Time

// symbolsChangedMsg is sent by the symbol file watcher.
type symbolsChangedMsg struct {
	path string
}

// Model is the bubbletea model of the viewer.
type Model struct {
	player  Player
	list    *msglist.Model
	symbols *dbc.Store
	theme   Theme
	cfg     Config
	logger  zerolog.Logger

	width  int
	height int

	cursor   int
	offset   int
	selected msglist.Item
	hasSel   bool
	reset    bool

	playSec  float64
	lastTick time.Time
	paused   bool

	mode        uiMode
	filterInput string
	filters     map[msglist.Column]string

	statusText    string
	statusKind    statusKind
	statusExpires time.Time
	quitting      bool
}

// New creates a viewer over player. symbols may be nil. opts.Publisher is
// replaced by the viewer's own publisher.
func New(player Player, symbols *dbc.Store, opts msglist.Options, cfg Config) (*Model, error) {
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = defaultRefreshRate
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1
	}

	m := &Model{
		player:  player,
		symbols: symbols,
		theme:   ResolveTheme(cfg.Theme),
		cfg:     cfg,
		logger:  logging.Component("tui"),
		filters: map[msglist.Column]string{},
	}

	publisher := events.NewInMemoryPublisher()
	if err := m.watchResets(publisher); err != nil {
		return nil, err
	}
	opts.Publisher = publisher
	opts.RefreshRate = cfg.RefreshRate

	var db dbc.Database
	if symbols != nil {
		db = symbols
	}
	m.list = msglist.New(player, db, opts)

	updated, hasNew := player.Advance(0)
	m.list.MsgsReceived(updated, hasNew)
	m.reselect()
	return m, nil
}

const resetSubscriptionID = "tui.selection"

// watchResets flags the selection for re-resolution on every rows.reset.
func (m *Model) watchResets(publisher *events.InMemoryPublisher) error {
	err := publisher.Subscribe(resetSubscriptionID, events.Filter{
		Kinds:  []events.Kind{events.KindRowsReset},
		Source: msglist.NotificationSource,
	}, func(*events.Notification) {
		m.reset = true
	})
	if err != nil {
		return fmt.Errorf("subscribe to row resets: %w", err)
	}
	return nil
}

// List exposes the message list driven by the viewer.
func (m *Model) List() *msglist.Model {
	return m.list
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		return m, nil
	case tickMsg:
		m.onTick(time.Time(msg))
		return m, m.tickCmd()
	case symbolsChangedMsg:
		m.reloadSymbols(msg.path)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeFilter:
			return m.updateFilterMode(msg)
		case modeHelp:
			m.mode = modeMain
			return m, nil
		default:
			return m.updateMainMode(msg)
		}
	}
	return m, nil
}

func (m *Model) tickCmd() tea.Cmd {
	interval := time.Second / time.Duration(m.cfg.RefreshRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) onTick(now time.Time) {
	if !m.statusExpires.IsZero() && now.After(m.statusExpires) {
		m.statusText = ""
		m.statusExpires = time.Time{}
	}

	last := m.lastTick
	m.lastTick = now
	if m.paused || last.IsZero() {
		return
	}

	duration := m.player.Duration()
	m.playSec += now.Sub(last).Seconds() * m.cfg.Speed
	if m.playSec >= duration {
		m.playSec = duration
		m.paused = true
		m.setStatus(statusInfo, "end of capture", now)
	}

	updated, hasNew := m.player.Advance(m.playSec)
	m.list.MsgsReceived(updated, hasNew)
	m.reselect()
}

func (m *Model) seek(sec float64) {
	m.playSec = min(max(sec, 0), m.player.Duration())
	updated, hasNew := m.player.Seek(m.playSec)
	m.list.MsgsReceived(updated, hasNew)
	m.reselect()
}

func (m *Model) reloadSymbols(path string) {
	if m.symbols == nil {
		return
	}
	if err := m.symbols.Reload(); err != nil {
		m.logger.Warn().Err(err).Str("path", path).Msg("symbol reload failed")
		m.setStatus(statusErr, err.Error(), time.Now())
		return
	}
	m.logger.Info().Str("path", path).Int("messages", len(m.symbols.Messages())).Msg("symbols reloaded")
	m.list.DBCModified()
	m.reselect()
	m.setStatus(statusInfo, "symbols reloaded", time.Now())
}

func (m *Model) updateMainMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.mode = modeHelp
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "pgdown", "ctrl+d":
		m.moveSelection(m.pageSize())
	case "pgup", "ctrl+u":
		m.moveSelection(-m.pageSize())
	case "g", "home":
		m.moveSelection(-m.list.RowCount())
	case "G", "end":
		m.moveSelection(m.list.RowCount())
	case "s":
		m.cycleSortColumn()
	case "S":
		col, order := m.list.SortKey()
		if order == msglist.Ascending {
			order = msglist.Descending
		} else {
			order = msglist.Ascending
		}
		m.list.Sort(col, order)
		m.reselect()
	case "d":
		m.cycleDemux()
	case "i":
		m.list.ShowInactiveMessages(!m.list.ShowingInactive())
		m.reselect()
	case "/":
		m.mode = modeFilter
		m.filterInput = ""
	case " ", "space":
		m.paused = !m.paused
		if !m.paused && m.playSec >= m.player.Duration() {
			m.seek(0)
		}
	case "left", "h":
		m.seek(m.playSec - seekStep)
	case "right", "l":
		m.seek(m.playSec + seekStep)
	case "esc":
		m.statusText = ""
	}
	return m, nil
}

func (m *Model) updateFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMain
		m.filterInput = ""
	case "enter":
		m.mode = modeMain
		m.applyFilterInput(m.filterInput)
		m.filterInput = ""
	case "backspace", "ctrl+h":
		m.filterInput = removeLastRune(m.filterInput)
	case " ", "space":
		m.filterInput += " "
	default:
		if len(msg.Runes) > 0 {
			m.filterInput += string(msg.Runes)
		}
	}
	return m, nil
}

// applyFilterInput applies a "column=text" expression. An empty expression
// clears every filter and an empty text clears one column.
func (m *Model) applyFilterInput(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		clear(m.filters)
	} else {
		col, text, err := msglist.ParseFilter(input)
		if err != nil {
			m.setStatus(statusErr, err.Error(), time.Now())
			return
		}
		if text == "" {
			delete(m.filters, col)
		} else {
			m.filters[col] = text
		}
	}
	m.list.SetFilterStrings(m.filters)
	m.reselect()
}

func (m *Model) cycleSortColumn() {
	col, order := m.list.SortKey()
	next := sortColumns[0]
	for i, c := range sortColumns {
		if c == col {
			next = sortColumns[(i+1)%len(sortColumns)]
			break
		}
	}
	m.list.Sort(next, order)
	m.reselect()
}

func (m *Model) cycleDemux() {
	current := m.list.CycleRepetition()
	next := demuxFactors[0]
	for i, f := range demuxFactors {
		if f == current {
			next = demuxFactors[(i+1)%len(demuxFactors)]
			break
		}
	}
	m.list.SetCycleRepetition(next)
	m.reselect()
	m.setStatus(statusInfo, fmt.Sprintf("demux x%d", next), time.Now())
}

func (m *Model) moveSelection(delta int) {
	count := m.list.RowCount()
	if count == 0 {
		m.cursor, m.offset, m.hasSel = 0, 0, false
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), count-1)
	m.selected, m.hasSel = m.list.Item(m.cursor)
	m.clampOffset()
}

// reselect keeps the cursor on the same row after the list was rebuilt.
func (m *Model) reselect() {
	if !m.reset {
		return
	}
	m.reset = false

	count := m.list.RowCount()
	if count == 0 {
		m.cursor, m.offset = 0, 0
		return
	}
	if m.hasSel {
		idx := -1
		for i, item := range m.list.Items() {
			if item == m.selected {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = m.list.IndexOf(m.selected.ID)
		}
		if idx >= 0 {
			m.cursor = idx
		}
	}
	m.cursor = min(m.cursor, count-1)
	m.selected, m.hasSel = m.list.Item(m.cursor)
	m.clampOffset()
}

func (m *Model) pageSize() int {
	return max(1, m.effectiveHeight()-chromeRows)
}

func (m *Model) clampOffset() {
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	m.offset = max(0, min(m.offset, m.list.RowCount()-1))
}

func (m *Model) setStatus(kind statusKind, text string, now time.Time) {
	m.statusKind = kind
	m.statusText = text
	m.statusExpires = now.Add(defaultStatusTTL)
}

func (m *Model) effectiveWidth() int {
	if m.width <= 0 {
		return 120
	}
	return max(m.width, minWindowWidth)
}

func (m *Model) effectiveHeight() int {
	if m.height <= 0 {
		return 34
	}
	return max(m.height, minWindowHeight)
}

func removeLastRune(value string) string {
	runes := []rune(value)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[:len(runes)-1])
}
