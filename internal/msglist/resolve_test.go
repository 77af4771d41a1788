package msglist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/busview/internal/bus"
	"github.com/tOgg1/busview/internal/models"
)

func phaseItem(id models.MessageID, cb int) Item {
	return Item{ID: id, Name: Untitled, CycleBase: cb}
}

func TestResolveEndToEnd(t *testing.T) {
	id := live(0, 0x10)
	stream := bus.NewReplayStream([]*models.CanEvent{
		{Source: 0, Address: 0x10, MonoTime: 1_000_000_000, Data: []byte{0x01, 0xAA}},
		{Source: 0, Address: 0x10, MonoTime: 1_100_000_000, Data: []byte{0x05, 0xBB}},
		{Source: 0, Address: 0x10, MonoTime: 1_200_000_000, Data: []byte{0x07, 0xCC}},
	}, bus.ReplayConfig{})

	updated, hasNew := stream.Advance(0.1)
	m, _ := newTestModel(stream, nil, func(o *Options) { o.CycleRepetition = 4 })
	m.MsgsReceived(updated, hasNew)

	require.Equal(t, 4, m.RowCount())
	for cb := 0; cb < 4; cb++ {
		item, ok := m.Item(cb)
		require.True(t, ok)
		require.Equal(t, id, item.ID)
		require.Equal(t, cb, item.CycleBase)
	}

	require.Equal(t, []byte{0x05, 0xBB}, m.Bytes(phaseItem(id, 1)))
	require.Empty(t, m.Bytes(phaseItem(id, 0)))
	require.Empty(t, m.Bytes(phaseItem(id, 2)))
	require.Empty(t, m.Bytes(phaseItem(id, 3)))

	// A payload with counter 7 arrives: phase 3 resolves and phase 1 is
	// served from history.
	updated, hasNew = stream.Advance(0.2)
	m.MsgsReceived(updated, hasNew)
	require.Equal(t, []byte{0x07, 0xCC}, m.Bytes(phaseItem(id, 3)))
	require.Equal(t, []byte{0x05, 0xBB}, m.Bytes(phaseItem(id, 1)))
}

func TestResolveTemporalBound(t *testing.T) {
	id := live(0, 0x10)
	stream := newFakeStream()
	stream.push(id, 0.1, 2, 0x20)
	stream.push(id, 0.2, 5, 0x50)
	// Recorded history ahead of the playback position.
	stream.events[id] = append(stream.events[id], &models.CanEvent{
		Address:  0x10,
		MonoTime: stream.ToMonoTime(0.5),
		Data:     []byte{6, 0x60},
	})
	stream.sec = 0.3

	data, fromHistory := resolveDemuxBytes(stream, phaseItem(id, 2), 4)
	require.True(t, fromHistory)
	require.Equal(t, []byte{2, 0x20}, data)
}

func TestResolveFallbackDepth(t *testing.T) {
	id := live(0, 0x10)

	t.Run("two blocks back", func(t *testing.T) {
		stream := newFakeStream()
		stream.push(id, 1, 2, 0xAA)
		stream.push(id, 2, 9, 0xBB)
		stream.sec = 2

		data, _ := resolveDemuxBytes(stream, phaseItem(id, 2), 4)
		require.Equal(t, []byte{2, 0xAA}, data)
	})

	t.Run("four blocks back", func(t *testing.T) {
		stream := newFakeStream()
		stream.push(id, 1, 14, 0xAA)
		stream.push(id, 2, 29, 0xBB)
		stream.sec = 2

		data, _ := resolveDemuxBytes(stream, phaseItem(id, 2), 4)
		require.Equal(t, []byte{14, 0xAA}, data)
	})

	t.Run("beyond depth", func(t *testing.T) {
		stream := newFakeStream()
		stream.push(id, 1, 10, 0xAA)
		stream.push(id, 2, 29, 0xBB)
		stream.sec = 2

		data, fromHistory := resolveDemuxBytes(stream, phaseItem(id, 2), 4)
		require.Empty(t, data)
		require.False(t, fromHistory)
	})
}

func TestResolveSkipsEmptyAndStopsAtBlock(t *testing.T) {
	id := live(0, 0x10)
	stream := newFakeStream()
	stream.push(id, 1, 8, 0x01)
	stream.push(id, 2, 3, 0x02)
	stream.push(id, 3)
	stream.push(id, 4, 9, 0x03)
	stream.sec = 4

	// Current block is 8..11. The scan skips the empty payload and stops at
	// counter 3 before it reaches counter 8; no earlier block has 4 or 0.
	data, _ := resolveDemuxBytes(stream, phaseItem(id, 0), 4)
	require.Empty(t, data)

	data, _ = resolveDemuxBytes(stream, phaseItem(id, 1), 4)
	require.Equal(t, []byte{9, 0x03}, data)
}

func TestResolveEmptyLastPayload(t *testing.T) {
	stream := newFakeStream()
	data, fromHistory := resolveDemuxBytes(stream, phaseItem(live(0, 1), 0), 2)
	require.Nil(t, data)
	require.False(t, fromHistory)
}
