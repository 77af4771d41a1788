package msglist

import (
	"fmt"
	"math"
	"strconv"
)

const notAvailable = "N/A"

// HeaderLabel returns the header text of a column.
func (m *Model) HeaderLabel(c Column) string {
	return HeaderLabel(c)
}

// DisplayText returns the text a row shows in a column. The data column has
// no text for live rows since its content is rendered from Bytes.
func (m *Model) DisplayText(item Item, col Column) string {
	declaredOnly := item.ID.IsDeclaredOnly()
	demuxed := m.repetition > 1 && item.Demuxed()

	switch col {
	case ColumnName:
		return item.Name
	case ColumnSource:
		if declaredOnly {
			return notAvailable
		}
		return strconv.Itoa(int(item.ID.Source))
	case ColumnAddress:
		return formatAddress(effectiveAddress(item, m.repetition))
	case ColumnNode:
		return item.Node
	case ColumnFreq:
		if declaredOnly {
			return notAvailable
		}
		freq := m.stream.LastMessage(item.ID).Freq
		if demuxed {
			// Approximation: the phases share the identity's frequency.
			freq /= float64(m.repetition)
		}
		return formatFreq(freq)
	case ColumnCount:
		if declaredOnly {
			return notAvailable
		}
		if !demuxed {
			return strconv.FormatUint(uint64(m.stream.LastMessage(item.ID).Count), 10)
		}
		return strconv.Itoa(m.phaseCount(item))
	case ColumnData:
		if declaredOnly {
			return notAvailable
		}
		return ""
	default:
		return ""
	}
}

// phaseCount counts the recorded payloads whose counter byte maps to the
// row's phase.
func (m *Model) phaseCount(item Item) int {
	n := 0
	for _, e := range m.stream.Events(item.ID) {
		if e != nil && len(e.Data) > 0 && int(e.Data[0])%m.repetition == item.CycleBase {
			n++
		}
	}
	return n
}

func formatFreq(freq float64) string {
	switch {
	case freq <= 0:
		return "--"
	case freq >= 0.95:
		return strconv.FormatFloat(math.RoundToEven(freq), 'f', 0, 64)
	default:
		return strconv.FormatFloat(freq, 'f', 2, 64)
	}
}

// Tooltip returns the hover text of a row: its name and the declared comment.
func (m *Model) Tooltip(item Item) string {
	if decl := m.decl(item.ID); decl != nil && decl.Comment != "" {
		return item.Name + "\n" + decl.Comment
	}
	return item.Name
}

// Title summarizes the row list.
func (m *Model) Title() string {
	declared, signals := 0, 0
	for _, item := range m.items {
		if decl := m.decl(item.ID); decl != nil {
			declared++
			signals += len(decl.Signals)
		}
	}
	return fmt.Sprintf("%d Messages (%d DBC Messages, %d Signals)", len(m.items), declared, signals)
}
