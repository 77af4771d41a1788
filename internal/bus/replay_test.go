package bus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/busview/internal/models"
)

const sec = uint64(1_000_000_000)

func ev(src uint8, addr uint32, mono uint64, data ...byte) *models.CanEvent {
	return &models.CanEvent{Source: src, Address: addr, MonoTime: mono, Data: data}
}

func TestReplayStreamAdvance(t *testing.T) {
	base := 5 * sec
	s := NewReplayStream([]*models.CanEvent{
		ev(0, 0x10, base, 0x01),
		ev(0, 0x10, base+sec, 0x02),
		ev(1, 0x20, base+sec, 0xAA),
		ev(0, 0x10, base+2*sec, 0x01),
	}, ReplayConfig{})

	require.Equal(t, 2.0, s.Duration())
	require.Empty(t, s.LastMessages())

	updated, hasNew := s.Advance(0)
	require.True(t, hasNew)
	require.Len(t, updated, 1)

	id := models.MessageID{Source: 0, Address: 0x10}
	require.Equal(t, []byte{0x01}, s.LastMessage(id).Data)
	require.Equal(t, uint32(1), s.LastMessage(id).Count)

	updated, hasNew = s.Advance(1)
	require.True(t, hasNew)
	require.Len(t, updated, 2)
	last := s.LastMessage(id)
	require.Equal(t, []byte{0x02}, last.Data)
	require.Equal(t, 1.0, last.Freq)
	require.Equal(t, models.ColorIncrease, last.Colors[0])

	_, hasNew = s.Advance(2)
	require.False(t, hasNew)
	require.Equal(t, models.ColorDecrease, s.LastMessage(id).Colors[0])
	require.Equal(t, uint32(3), s.LastMessage(id).Count)
}

func TestReplayStreamSeekBackwards(t *testing.T) {
	s := NewReplayStream([]*models.CanEvent{
		ev(0, 0x10, 0, 0x01),
		ev(0, 0x10, 2*sec, 0x02),
	}, ReplayConfig{})

	s.Advance(3)
	require.Equal(t, uint32(2), s.LastMessage(models.MessageID{Address: 0x10}).Count)

	updated, hasNew := s.Advance(1)
	require.True(t, hasNew)
	require.Len(t, updated, 1)
	require.Equal(t, 1.0, s.CurrentSec())
	require.Equal(t, uint32(1), s.LastMessage(models.MessageID{Address: 0x10}).Count)
}

func TestReplayStreamEventsAreFullHistory(t *testing.T) {
	s := NewReplayStream([]*models.CanEvent{
		ev(0, 0x10, 3*sec, 0x03),
		ev(0, 0x10, 1*sec, 0x01),
	}, ReplayConfig{})

	events := s.Events(models.MessageID{Address: 0x10})
	require.Len(t, events, 2)
	require.Equal(t, byte(0x01), events[0].Data[0])
	require.Equal(t, 2*sec, s.ToMonoTime(1))
	require.Equal(t, 1, UpperBound(events, s.ToMonoTime(0)))
	require.Equal(t, 2, UpperBound(events, s.ToMonoTime(2)))
	require.Equal(t, 0, UpperBound(events, 0))
}

func TestReplayStreamIsMessageActive(t *testing.T) {
	s := NewReplayStream([]*models.CanEvent{
		ev(0, 0x10, 0, 0x00),
		ev(0, 0x10, sec/10, 0x00), // 10 Hz
		ev(0, 0x20, 0, 0x00),
	}, ReplayConfig{RefreshRate: 10})

	fast := models.MessageID{Address: 0x10}
	once := models.MessageID{Address: 0x20}

	s.Advance(0.2)
	require.True(t, s.IsMessageActive(fast))
	require.True(t, s.IsMessageActive(once))

	s.Advance(1.0)
	require.False(t, s.IsMessageActive(fast))
	require.True(t, s.IsMessageActive(once))

	s.Advance(2.0)
	require.False(t, s.IsMessageActive(once))
	require.False(t, s.IsMessageActive(models.MessageID{Source: models.InvalidSource, Address: 0x10}))
	require.False(t, s.IsMessageActive(models.MessageID{Address: 0x99}))
}
