package bus

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tOgg1/busview/internal/logging"
	"github.com/tOgg1/busview/internal/models"
)

const (
	defaultRefreshRate = 10
	// idleActiveWindow is how long a message without a known frequency stays active.
	idleActiveWindow = 1.5
)

// ReplayConfig configures a ReplayStream.
type ReplayConfig struct {
	// RefreshRate is the UI refresh rate in frames per second. It widens the
	// activity window by one frame.
	RefreshRate int
}

// ReplayStream plays back a recorded capture. The full history is loaded up
// front and the last known table follows the playback position.
type ReplayStream struct {
	config    ReplayConfig
	logger    zerolog.Logger
	all       []*models.CanEvent
	byID      map[models.MessageID][]*models.CanEvent
	beginMono uint64

	cursor     int
	currentSec float64
	last       map[models.MessageID]*models.LastMessage
	firstTs    map[models.MessageID]float64
}

// NewReplayStream builds a stream over events. The slice is not retained;
// events are sorted by mono time with arrival order preserved for ties.
func NewReplayStream(events []*models.CanEvent, config ReplayConfig) *ReplayStream {
	if config.RefreshRate <= 0 {
		config.RefreshRate = defaultRefreshRate
	}

	all := make([]*models.CanEvent, 0, len(events))
	for _, e := range events {
		if e != nil {
			all = append(all, e)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].MonoTime < all[j].MonoTime
	})

	byID := make(map[models.MessageID][]*models.CanEvent)
	for _, e := range all {
		id := e.ID()
		byID[id] = append(byID[id], e)
	}

	s := &ReplayStream{
		config: config,
		logger: logging.Component("replay"),
		all:    all,
		byID:   byID,
	}
	if len(all) > 0 {
		s.beginMono = all[0].MonoTime
	}
	s.reset()

	s.logger.Debug().
		Int("events", len(all)).
		Int("identities", len(byID)).
		Float64("duration_sec", s.Duration()).
		Msg("replay stream loaded")
	return s
}

func (s *ReplayStream) reset() {
	s.cursor = 0
	s.currentSec = 0
	s.last = make(map[models.MessageID]*models.LastMessage)
	s.firstTs = make(map[models.MessageID]float64)
}

// Duration returns the length of the capture in seconds.
func (s *ReplayStream) Duration() float64 {
	if len(s.all) == 0 {
		return 0
	}
	return s.toSec(s.all[len(s.all)-1].MonoTime)
}

// Advance moves playback forward to sec and applies every event up to it.
// It returns the identities that received data and whether any of them were
// seen for the first time. Moving backwards is a Seek.
func (s *ReplayStream) Advance(sec float64) (map[models.MessageID]struct{}, bool) {
	if sec < s.currentSec {
		return s.Seek(sec)
	}
	s.currentSec = sec
	limit := s.ToMonoTime(sec)

	updated := make(map[models.MessageID]struct{})
	hasNew := false
	for s.cursor < len(s.all) && s.all[s.cursor].MonoTime <= limit {
		e := s.all[s.cursor]
		s.cursor++
		if s.apply(e) {
			hasNew = true
		}
		updated[e.ID()] = struct{}{}
	}
	return updated, hasNew
}

// Seek restarts playback and replays up to sec. Every identity with data at
// sec is reported as new.
func (s *ReplayStream) Seek(sec float64) (map[models.MessageID]struct{}, bool) {
	if sec < 0 {
		sec = 0
	}
	s.reset()
	updated, _ := s.Advance(sec)
	s.logger.Debug().Float64("sec", sec).Int("identities", len(s.last)).Msg("seek")
	return updated, true
}

func (s *ReplayStream) apply(e *models.CanEvent) bool {
	id := e.ID()
	ts := s.toSec(e.MonoTime)

	m, exists := s.last[id]
	if !exists {
		m = &models.LastMessage{}
		s.last[id] = m
		s.firstTs[id] = ts
	}

	dt := ts - m.Ts
	m.Colors = models.ResizeColors(m.Colors, len(e.Data))
	models.UpdateHighlight(m.Colors, m.Data, e.Data, dt)

	m.Data = append(m.Data[:0], e.Data...)
	m.Ts = ts
	m.Count++
	if span := ts - s.firstTs[id]; span > 0 {
		m.Freq = float64(m.Count-1) / span
	}
	return !exists
}

// LastMessages implements Stream.
func (s *ReplayStream) LastMessages() map[models.MessageID]*models.LastMessage {
	return s.last
}

// LastMessage implements Stream.
func (s *ReplayStream) LastMessage(id models.MessageID) *models.LastMessage {
	if m, ok := s.last[id]; ok {
		return m
	}
	return &models.LastMessage{}
}

// Events implements Stream.
func (s *ReplayStream) Events(id models.MessageID) []*models.CanEvent {
	return s.byID[id]
}

// IsMessageActive implements Stream. A message is active while the time since
// its last payload is below five periods plus one refresh frame.
func (s *ReplayStream) IsMessageActive(id models.MessageID) bool {
	if id.IsDeclaredOnly() {
		return false
	}
	m, ok := s.last[id]
	if !ok {
		return false
	}
	delta := s.currentSec - m.Ts
	if m.Freq < math.SmallestNonzeroFloat32 {
		return delta < idleActiveWindow
	}
	return delta < 5.0/m.Freq+1.0/float64(s.config.RefreshRate)
}

// CurrentSec implements Stream.
func (s *ReplayStream) CurrentSec() float64 {
	return s.currentSec
}

// ToMonoTime implements Stream.
func (s *ReplayStream) ToMonoTime(sec float64) uint64 {
	if sec <= 0 {
		return s.beginMono
	}
	return s.beginMono + uint64(math.Round(sec*1e9))
}

func (s *ReplayStream) toSec(mono uint64) float64 {
	if mono <= s.beginMono {
		return 0
	}
	return float64(mono-s.beginMono) / 1e9
}

var _ Stream = (*ReplayStream)(nil)
