// Package models defines the core domain types for busview.
package models

import (
	"fmt"
)

// InvalidSource marks an identity that is declared in the symbol database
// but has never been observed on a bus.
const InvalidSource uint8 = 0xff

// MessageID identifies a message stream by bus index and address.
type MessageID struct {
	// Source is the bus index the message was received on.
	Source uint8 `json:"source"`

	// Address is the arbitration id of the message.
	Address uint32 `json:"address"`
}

// IsDeclaredOnly reports whether the id only exists in the symbol database.
func (id MessageID) IsDeclaredOnly() bool {
	return id.Source == InvalidSource
}

// Less orders ids by source, then address.
func (id MessageID) Less(other MessageID) bool {
	if id.Source != other.Source {
		return id.Source < other.Source
	}
	return id.Address < other.Address
}

// Compare returns -1, 0 or +1 following the same order as Less.
func (id MessageID) Compare(other MessageID) int {
	switch {
	case id.Less(other):
		return -1
	case other.Less(id):
		return 1
	default:
		return 0
	}
}

func (id MessageID) String() string {
	return fmt.Sprintf("%d:%X", id.Source, id.Address)
}

// CanEvent is one timestamped payload observed on the bus.
type CanEvent struct {
	Source   uint8  `json:"source"`
	Address  uint32 `json:"address"`
	MonoTime uint64 `json:"mono_time"` // nanoseconds
	Data     []byte `json:"data"`
}

// ID returns the identity the event belongs to.
func (e *CanEvent) ID() MessageID {
	return MessageID{Source: e.Source, Address: e.Address}
}

// LastMessage is the latest known state of one identity.
type LastMessage struct {
	// Data is the most recent payload.
	Data []byte

	// Ts is the playback time of the most recent payload in seconds.
	Ts float64

	// Freq is the observed frequency in Hz.
	Freq float64

	// Count is the number of payloads seen so far.
	Count uint32

	// Colors is the per-byte change overlay computed by the stream.
	Colors []Color
}

// Clone returns a deep copy.
func (m *LastMessage) Clone() *LastMessage {
	if m == nil {
		return &LastMessage{}
	}
	cloned := *m
	cloned.Data = append([]byte(nil), m.Data...)
	cloned.Colors = append([]Color(nil), m.Colors...)
	return &cloned
}
