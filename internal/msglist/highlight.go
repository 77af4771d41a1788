package msglist

import "github.com/tOgg1/busview/internal/models"

// colorState is the change-highlight state of one demuxed sub stream.
type colorState struct {
	lastData   []byte
	colors     []models.Color
	lastUpdate float64
}

// advance folds payload observed at now into the state and returns the
// resulting overlay. The returned slice aliases the state.
func (s *colorState) advance(payload []byte, now float64) []models.Color {
	if len(s.lastData) == 0 {
		s.lastData = append(s.lastData[:0], payload...)
		s.colors = make([]models.Color, len(payload))
		s.lastUpdate = now
	}

	s.colors = models.ResizeColors(s.colors, len(payload))
	models.UpdateHighlight(s.colors, s.lastData, payload, now-s.lastUpdate)

	s.lastData = append(s.lastData[:0], payload...)
	s.lastUpdate = now
	return s.colors
}
