// Package bus provides the message stream consumed by the message list.
package bus

import (
	"github.com/tOgg1/busview/internal/models"
)

// Stream is the read side of a bus message source.
type Stream interface {
	// LastMessages returns the last known state of every observed identity.
	LastMessages() map[models.MessageID]*models.LastMessage

	// LastMessage returns the last known state of one identity. It never
	// returns nil; an unseen identity yields an empty message.
	LastMessage(id models.MessageID) *models.LastMessage

	// Events returns the payload history of an identity ordered by mono time.
	Events(id models.MessageID) []*models.CanEvent

	// IsMessageActive reports whether the identity is still being received.
	IsMessageActive(id models.MessageID) bool

	// CurrentSec is the playback position in seconds since the stream began.
	CurrentSec() float64

	// ToMonoTime converts a playback position to a mono timestamp.
	ToMonoTime(sec float64) uint64
}

// UpperBound returns the index of the first event with MonoTime > mono.
// Events must be ordered by MonoTime.
func UpperBound(events []*models.CanEvent, mono uint64) int {
	lo, hi := 0, len(events)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if events[mid].MonoTime <= mono {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
