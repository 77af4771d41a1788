package msglist

import (
	"cmp"
	"slices"
	"sort"

	"github.com/tOgg1/busview/internal/bus"
)

// sortItems orders items in place by a single column. The sort is stable in
// both directions: equal keys keep their input order.
func sortItems(items []Item, column Column, order SortOrder, stream bus.Stream, repetition int) {
	less := comparator(column, stream, repetition)
	if less == nil {
		return
	}

	// Descending sorts the reversed sequence and flips it back.
	if order == Descending {
		slices.Reverse(items)
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	if order == Descending {
		slices.Reverse(items)
	}
}

func comparator(column Column, stream bus.Stream, repetition int) func(l, r Item) bool {
	switch column {
	case ColumnName:
		return func(l, r Item) bool {
			return thenByID(cmp.Compare(l.Name, r.Name), l, r)
		}
	case ColumnSource:
		return func(l, r Item) bool {
			if c := cmp.Compare(l.ID.Source, r.ID.Source); c != 0 {
				return c < 0
			}
			return effectiveAddress(l, repetition) < effectiveAddress(r, repetition)
		}
	case ColumnAddress:
		return func(l, r Item) bool {
			if c := cmp.Compare(effectiveAddress(l, repetition), effectiveAddress(r, repetition)); c != 0 {
				return c < 0
			}
			return l.ID.Source < r.ID.Source
		}
	case ColumnNode:
		return func(l, r Item) bool {
			return thenByID(cmp.Compare(l.Node, r.Node), l, r)
		}
	case ColumnFreq:
		return func(l, r Item) bool {
			return thenByID(cmp.Compare(stream.LastMessage(l.ID).Freq, stream.LastMessage(r.ID).Freq), l, r)
		}
	case ColumnCount:
		return func(l, r Item) bool {
			return thenByID(cmp.Compare(stream.LastMessage(l.ID).Count, stream.LastMessage(r.ID).Count), l, r)
		}
	default:
		return nil
	}
}

func thenByID(c int, l, r Item) bool {
	if c != 0 {
		return c < 0
	}
	return l.ID.Less(r.ID)
}
