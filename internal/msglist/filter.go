package msglist

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tOgg1/busview/internal/models"
)

// formatAddress renders an address as upper-case hex with at least two digits.
func formatAddress(addr uint64) string {
	return fmt.Sprintf("0x%02X", addr)
}

// formatPayload renders a payload as upper-case hex without separators.
func formatPayload(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// parseRange reports whether value lies within the range described by text.
// Accepted forms are "N", "N-M", "N-" and "-M"; an empty bound defaults to
// the bound of the value space. Anything else never matches.
func parseRange(text string, value uint64, base int, limit uint64) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}

	parts := strings.Split(text, "-")
	if len(parts) > 2 {
		return false
	}

	lo, hi := uint64(0), limit
	if s := strings.TrimSpace(parts[0]); s != "" {
		v, ok := parseBound(s, base, limit)
		if !ok {
			return false
		}
		lo = v
	}
	if len(parts) == 1 {
		hi = lo
	} else if s := strings.TrimSpace(parts[1]); s != "" {
		v, ok := parseBound(s, base, limit)
		if !ok {
			return false
		}
		hi = v
	}
	return value >= lo && value <= hi
}

func parseBound(s string, base int, limit uint64) (uint64, bool) {
	if base == 16 {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil || v > limit {
		return 0, false
	}
	return v, true
}

// matchContext carries the per-recompute values the predicates consult.
type matchContext struct {
	repetition int
	last       *models.LastMessage
	decl       *models.MessageDecl
}

// match reports whether item satisfies every predicate in filters.
func match(item Item, filters map[Column]string, mc matchContext) bool {
	if len(filters) == 0 {
		return true
	}

	for col, text := range filters {
		if !matchColumn(item, col, text, mc) {
			return false
		}
	}
	return true
}

func matchColumn(item Item, col Column, text string, mc matchContext) bool {
	switch col {
	case ColumnName:
		if containsFold(item.Name, text) {
			return true
		}
		return mc.decl != nil && mc.decl.HasSignalContaining(strings.ToLower(text))
	case ColumnSource:
		return parseRange(text, uint64(item.ID.Source), 10, math.MaxUint32)
	case ColumnAddress:
		addr := effectiveAddress(item, mc.repetition)
		if containsFold(formatAddress(addr), text) {
			return true
		}
		return parseRange(text, addr, 16, math.MaxUint64)
	case ColumnNode:
		return containsFold(item.Node, text)
	case ColumnFreq:
		freq := uint64(0)
		if mc.last.Freq > 0 {
			freq = uint64(mc.last.Freq)
		}
		return parseRange(text, freq, 10, math.MaxUint32)
	case ColumnCount:
		return parseRange(text, uint64(mc.last.Count), 10, math.MaxUint32)
	case ColumnData:
		return containsFold(formatPayload(mc.last.Data), text)
	default:
		return true
	}
}
