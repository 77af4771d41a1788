package msglist

import (
	"github.com/tOgg1/busview/internal/bus"
	"github.com/tOgg1/busview/internal/models"
)

// fallbackBlocks is how many earlier demux blocks are searched when the
// current block has no payload for a phase.
const fallbackBlocks = 4

// resolveDemuxBytes picks the payload a demuxed row displays: the most recent
// payload at or before the playback time whose counter byte matches the row's
// phase within the current block, falling back to earlier blocks. It returns
// the matching payload (not copied) and whether it came from history.
func resolveDemuxBytes(stream bus.Stream, item Item, repetition int) ([]byte, bool) {
	last := stream.LastMessage(item.ID)
	if len(last.Data) == 0 {
		return nil, false
	}

	lastCycle := int(last.Data[0])
	blockBase := lastCycle - lastCycle%repetition
	desired := blockBase + item.CycleBase
	if lastCycle == desired {
		return last.Data, false
	}

	events := stream.Events(item.ID)
	upper := bus.UpperBound(events, stream.ToMonoTime(stream.CurrentSec()))

	for i := upper - 1; i >= 0; i-- {
		e := events[i]
		if e == nil || len(e.Data) == 0 {
			continue
		}
		cycle := int(e.Data[0])
		if cycle-cycle%repetition < blockBase {
			break
		}
		if cycle == desired {
			return e.Data, true
		}
	}

	for step := 1; step <= fallbackBlocks; step++ {
		if e := findCycle(events[:upper], desired-step*repetition); e != nil {
			return e.Data, true
		}
	}
	return nil, false
}

// findCycle returns the latest event whose counter byte equals cycle.
func findCycle(events []*models.CanEvent, cycle int) *models.CanEvent {
	if cycle < 0 {
		return nil
	}
	for i := len(events) - 1; i >= 0; i-- {
		if e := events[i]; e != nil && len(e.Data) > 0 && int(e.Data[0]) == cycle {
			return e
		}
	}
	return nil
}
