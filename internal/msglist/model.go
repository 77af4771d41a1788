// Package msglist turns the live bus message table into the filtered, sorted
// and optionally demuxed row list shown by the message views.
//
// A Model is not safe for concurrent use. Callers drive it from a single
// goroutine (the UI update loop) and learn about changes through the
// notifications it publishes.
package msglist

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/busview/internal/bus"
	"github.com/tOgg1/busview/internal/dbc"
	"github.com/tOgg1/busview/internal/events"
	"github.com/tOgg1/busview/internal/logging"
	"github.com/tOgg1/busview/internal/models"
)

// NotificationSource is the Source of every notification a Model publishes.
const NotificationSource = "msglist"

const defaultRefreshRate = 10

// Options configures a Model.
type Options struct {
	// RefreshRate is the number of MsgsReceived calls between periodic
	// recomputes while a frequency, count or data filter is active.
	RefreshRate int

	// ShowInactive keeps identities that are no longer received.
	ShowInactive bool

	// CycleRepetition is the initial demux factor.
	CycleRepetition int

	// SortColumn and SortOrder set the initial sort key.
	SortColumn Column
	SortOrder  SortOrder

	// Publisher receives row list notifications. Nil disables them.
	Publisher events.Publisher
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		RefreshRate:     defaultRefreshRate,
		ShowInactive:    true,
		CycleRepetition: 1,
		SortColumn:      ColumnName,
		SortOrder:       Ascending,
	}
}

// Model is the message list engine.
type Model struct {
	stream    bus.Stream
	symbols   dbc.Database
	publisher events.Publisher
	logger    zerolog.Logger

	refreshRate   int
	sortThreshold int

	items        []Item
	filters      map[Column]string
	declared     map[models.MessageID]struct{}
	showInactive bool
	repetition   int
	sortColumn   Column
	sortOrder    SortOrder

	// bytesCache and colorsCache hold values resolved since the last
	// MsgsReceived. colorStates persists across notifications and resets.
	bytesCache  map[uint64][]byte
	colorsCache map[uint64][]models.Color
	colorStates map[uint64]*colorState
}

// New creates a Model over stream and symbols and computes the initial row
// list. symbols may be nil.
func New(stream bus.Stream, symbols dbc.Database, opts Options) *Model {
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = defaultRefreshRate
	}
	if opts.SortColumn == ColumnData || opts.SortColumn < 0 || int(opts.SortColumn) >= NumColumns {
		opts.SortColumn = ColumnName
	}

	m := &Model{
		stream:       stream,
		symbols:      symbols,
		publisher:    opts.Publisher,
		logger:       logging.Component(NotificationSource),
		refreshRate:  opts.RefreshRate,
		filters:      map[Column]string{},
		declared:     map[models.MessageID]struct{}{},
		showInactive: opts.ShowInactive,
		repetition:   max(opts.CycleRepetition, 1),
		sortColumn:   opts.SortColumn,
		sortOrder:    opts.SortOrder,
		bytesCache:   map[uint64][]byte{},
		colorsCache:  map[uint64][]models.Color{},
		colorStates:  map[uint64]*colorState{},
	}
	m.rebuildDeclared()
	m.filterAndSort(triggerSymbols)
	return m
}

// MsgsReceived tells the model that the stream delivered new payloads.
// newIDs lists the identities that were updated; hasNewIDs reports whether
// any of them was seen for the first time.
func (m *Model) MsgsReceived(newIDs map[models.MessageID]struct{}, hasNewIDs bool) {
	clear(m.bytesCache)
	clear(m.colorsCache)

	trigger := ""
	if hasNewIDs {
		trigger = triggerNew
	} else if m.hasDynamicFilter() {
		m.sortThreshold++
		if m.sortThreshold >= m.refreshRate {
			trigger = triggerPeriodic
		}
	}

	if trigger != "" {
		m.sortThreshold = 0
		if m.filterAndSort(trigger) {
			return
		}
	}

	m.logger.Trace().Int("updated", len(newIDs)).Msg("values changed")
	m.publish(events.KindValuesChanged)
}

// SetFilterStrings replaces the filter predicates. Empty texts are ignored.
func (m *Model) SetFilterStrings(filters map[Column]string) {
	m.filters = make(map[Column]string, len(filters))
	for col, text := range filters {
		if text != "" {
			m.filters[col] = text
		}
	}
	m.filterAndSort(triggerFilter)
}

// FilterStrings returns a copy of the active filter predicates.
func (m *Model) FilterStrings() map[Column]string {
	return maps.Clone(m.filters)
}

// ShowInactiveMessages sets whether identities that stopped being received
// stay in the list.
func (m *Model) ShowInactiveMessages(show bool) {
	m.showInactive = show
	m.filterAndSort(triggerInactive)
}

// ShowingInactive reports whether inactive identities are listed.
func (m *Model) ShowingInactive() bool {
	return m.showInactive
}

// SetCycleRepetition sets the demux factor. Values below 1 are treated as 1.
// Values are always republished since displayed addresses depend on it.
func (m *Model) SetCycleRepetition(n int) {
	m.repetition = max(n, 1)
	clear(m.bytesCache)
	clear(m.colorsCache)
	m.filterAndSort(triggerDemux)
	m.publish(events.KindValuesChanged)
}

// CycleRepetition returns the demux factor.
func (m *Model) CycleRepetition() int {
	return m.repetition
}

// Sort sets the active sort key. Sorting by the data column is ignored.
func (m *Model) Sort(column Column, order SortOrder) {
	if column == ColumnData || column < 0 || int(column) >= NumColumns {
		return
	}
	m.sortColumn = column
	m.sortOrder = order
	m.filterAndSort(triggerSort)
}

// SortKey returns the active sort key.
func (m *Model) SortKey() (Column, SortOrder) {
	return m.sortColumn, m.sortOrder
}

// DBCModified rebuilds the declared identities after the symbol database
// changed and recomputes the list.
func (m *Model) DBCModified() {
	m.rebuildDeclared()
	m.filterAndSort(triggerSymbols)
}

// RowCount returns the number of rows.
func (m *Model) RowCount() int {
	return len(m.items)
}

// Item returns row i.
func (m *Model) Item(i int) (Item, bool) {
	if i < 0 || i >= len(m.items) {
		return Item{}, false
	}
	return m.items[i], true
}

// Items returns a copy of the row list.
func (m *Model) Items() []Item {
	return slices.Clone(m.items)
}

// IndexOf returns the first row showing id, or -1.
func (m *Model) IndexOf(id models.MessageID) int {
	return slices.IndexFunc(m.items, func(it Item) bool { return it.ID == id })
}

// IsActive reports whether the row's identity is still being received.
func (m *Model) IsActive(item Item) bool {
	return m.stream.IsMessageActive(item.ID)
}

// Bytes returns the payload a row displays.
func (m *Model) Bytes(item Item) []byte {
	return slices.Clone(m.bytes(item))
}

func (m *Model) bytes(item Item) []byte {
	if m.repetition <= 1 || !item.Demuxed() {
		return m.stream.LastMessage(item.ID).Data
	}

	key := item.DemuxKey()
	if cached, ok := m.bytesCache[key]; ok {
		return cached
	}
	data, fromHistory := resolveDemuxBytes(m.stream, item, m.repetition)
	if fromHistory {
		data = slices.Clone(data)
		m.bytesCache[key] = data
	}
	return data
}

// Colors returns the per-byte highlight overlay of a row. Demuxed rows keep
// their own fading state; other rows use the stream's overlay.
func (m *Model) Colors(item Item) []models.Color {
	if m.repetition <= 1 || !item.Demuxed() {
		return slices.Clone(m.stream.LastMessage(item.ID).Colors)
	}

	key := item.DemuxKey()
	if cached, ok := m.colorsCache[key]; ok {
		return slices.Clone(cached)
	}

	payload := m.bytes(item)
	if len(payload) == 0 {
		return nil
	}

	state := m.colorStates[key]
	if state == nil {
		state = &colorState{}
		m.colorStates[key] = state
	}
	colors := slices.Clone(state.advance(payload, m.stream.CurrentSec()))
	m.colorsCache[key] = colors
	return slices.Clone(colors)
}

func (m *Model) decl(id models.MessageID) *models.MessageDecl {
	if m.symbols == nil {
		return nil
	}
	return m.symbols.Msg(id)
}

func (m *Model) rebuildDeclared() {
	clear(m.declared)
	if m.symbols == nil {
		return
	}
	for addr := range m.symbols.Messages() {
		m.declared[models.MessageID{Source: models.InvalidSource, Address: addr}] = struct{}{}
	}
}

func (m *Model) hasDynamicFilter() bool {
	for col := range m.filters {
		if col.isDynamic() {
			return true
		}
	}
	return false
}

// filterAndSort rebuilds the row list and publishes a reset when it differs
// from the current one. It reports whether the list changed.
func (m *Model) filterAndSort(trigger string) bool {
	start := time.Now()

	candidates := mergeCandidates(m.stream.LastMessages(), m.declared)
	items := make([]Item, 0, len(candidates))
	for _, id := range candidates {
		if !m.showInactive && !m.stream.IsMessageActive(id) {
			continue
		}
		decl := m.decl(id)
		mc := matchContext{
			repetition: m.repetition,
			last:       m.stream.LastMessage(id),
			decl:       decl,
		}
		for _, item := range expand(id, decl, m.repetition) {
			if match(item, m.filters, mc) {
				items = append(items, item)
			}
		}
	}
	sortItems(items, m.sortColumn, m.sortOrder, m.stream, m.repetition)

	recomputeTotal.WithLabelValues(trigger).Inc()
	recomputeDuration.Observe(time.Since(start).Seconds())

	if slices.Equal(items, m.items) {
		return false
	}

	m.items = items
	resetTotal.Inc()
	rowsGauge.Set(float64(len(items)))
	m.logger.Debug().
		Str("trigger", trigger).
		Int("rows", len(items)).
		Int("candidates", len(candidates)).
		Msg("row list reset")
	m.publish(events.KindRowsReset)
	return true
}

func (m *Model) publish(kind events.Kind) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(context.Background(), &events.Notification{
		Kind:     kind,
		Source:   NotificationSource,
		RowCount: len(m.items),
	})
}
