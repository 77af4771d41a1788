package msglist

import "github.com/tOgg1/busview/internal/models"

// noCycle marks an item that is not demuxed.
const noCycle = -1

// Untitled is the name given to messages without a declaration.
const Untitled = "untitled"

// Item is one visible row. Items are values; two items are equal when every
// field is.
type Item struct {
	ID   models.MessageID
	Name string
	Node string

	// CycleBase is the demux phase in [0, repetition), or -1 when the row
	// is not demuxed.
	CycleBase int
}

// Demuxed reports whether the item is one phase of a demuxed identity.
func (it Item) Demuxed() bool {
	return it.CycleBase >= 0
}

// DemuxKey identifies the sub stream an item displays. It indexes every per
// row cache and is stable across row list rebuilds.
func (it Item) DemuxKey() uint64 {
	return uint64(it.ID.Source)<<56 | uint64(it.ID.Address)<<8 | uint64(max(it.CycleBase, 0))
}

// effectiveAddress is the address used for display, filtering and sorting.
// When demuxing a live identity the phase is appended as a low byte.
func effectiveAddress(it Item, repetition int) uint64 {
	addr := uint64(it.ID.Address)
	if !it.ID.IsDeclaredOnly() && repetition > 1 {
		addr = addr<<8 | uint64(max(it.CycleBase, 0))
	}
	return addr
}
