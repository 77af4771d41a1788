package msglist

import (
	"math"

	"github.com/tOgg1/busview/internal/bus"
	"github.com/tOgg1/busview/internal/dbc"
	"github.com/tOgg1/busview/internal/events"
	"github.com/tOgg1/busview/internal/models"
)

// fakeStream is a hand-driven bus.Stream.
type fakeStream struct {
	last     map[models.MessageID]*models.LastMessage
	events   map[models.MessageID][]*models.CanEvent
	inactive map[models.MessageID]bool
	sec      float64
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		last:     map[models.MessageID]*models.LastMessage{},
		events:   map[models.MessageID][]*models.CanEvent{},
		inactive: map[models.MessageID]bool{},
	}
}

// push records a payload at ts seconds and makes it the last known payload.
func (s *fakeStream) push(id models.MessageID, ts float64, data ...byte) {
	s.events[id] = append(s.events[id], &models.CanEvent{
		Source:   id.Source,
		Address:  id.Address,
		MonoTime: s.ToMonoTime(ts),
		Data:     data,
	})
	m, ok := s.last[id]
	if !ok {
		m = &models.LastMessage{}
		s.last[id] = m
	}
	m.Data = data
	m.Ts = ts
	m.Count++
}

func (s *fakeStream) LastMessages() map[models.MessageID]*models.LastMessage { return s.last }

func (s *fakeStream) LastMessage(id models.MessageID) *models.LastMessage {
	if m, ok := s.last[id]; ok {
		return m
	}
	return &models.LastMessage{}
}

func (s *fakeStream) Events(id models.MessageID) []*models.CanEvent { return s.events[id] }

func (s *fakeStream) IsMessageActive(id models.MessageID) bool {
	_, ok := s.last[id]
	return ok && !s.inactive[id]
}

func (s *fakeStream) CurrentSec() float64 { return s.sec }

func (s *fakeStream) ToMonoTime(sec float64) uint64 {
	return uint64(math.Round(sec * 1e9))
}

var _ bus.Stream = (*fakeStream)(nil)

func live(src uint8, addr uint32) models.MessageID {
	return models.MessageID{Source: src, Address: addr}
}

func declared(addr uint32) models.MessageID {
	return models.MessageID{Source: models.InvalidSource, Address: addr}
}

func symbols(decls ...models.MessageDecl) *dbc.Store {
	store := dbc.NewStore()
	store.Replace(decls)
	return store
}

func newTestModel(stream bus.Stream, db dbc.Database, mutate func(*Options)) (*Model, *events.InMemoryPublisher) {
	pub := events.NewInMemoryPublisher()
	opts := DefaultOptions()
	opts.Publisher = pub
	if mutate != nil {
		mutate(&opts)
	}
	return New(stream, db, opts), pub
}

func rowIDs(m *Model) []models.MessageID {
	ids := make([]models.MessageID, 0, m.RowCount())
	for _, it := range m.Items() {
		ids = append(ids, it.ID)
	}
	return ids
}
