package msglist

import (
	"fmt"
	"strings"
)

// Column is a message list column.
type Column int

const (
	ColumnName Column = iota
	ColumnSource
	ColumnAddress
	ColumnNode
	ColumnFreq
	ColumnCount
	ColumnData
)

// NumColumns is the number of columns.
const NumColumns = int(ColumnData) + 1

var columnLabels = [NumColumns]string{"Name", "Bus", "ID", "Node", "Freq", "Count", "Bytes"}

var columnKeys = map[string]Column{
	"name":    ColumnName,
	"bus":     ColumnSource,
	"source":  ColumnSource,
	"id":      ColumnAddress,
	"address": ColumnAddress,
	"node":    ColumnNode,
	"freq":    ColumnFreq,
	"count":   ColumnCount,
	"bytes":   ColumnData,
	"data":    ColumnData,
}

// HeaderLabel returns the header text of a column.
func HeaderLabel(c Column) string {
	if c < 0 || int(c) >= NumColumns {
		return ""
	}
	return columnLabels[c]
}

// ParseColumn resolves a column by name (e.g. "name", "bus", "id") or index.
func ParseColumn(s string) (Column, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := columnKeys[key]; ok {
		return c, nil
	}
	var idx int
	if _, err := fmt.Sscanf(key, "%d", &idx); err == nil && idx >= 0 && idx < NumColumns {
		return Column(idx), nil
	}
	return 0, fmt.Errorf("unknown column %q", s)
}

func (c Column) String() string {
	if label := HeaderLabel(c); label != "" {
		return strings.ToLower(label)
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// SortOrder is the direction of the active sort.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// isDynamic reports whether the column's values change with every payload,
// which makes filters on it require periodic re-evaluation.
func (c Column) isDynamic() bool {
	return c == ColumnFreq || c == ColumnCount || c == ColumnData
}

// ParseFilter splits a "column=text" filter expression.
func ParseFilter(expr string) (Column, string, error) {
	key, text, ok := strings.Cut(expr, "=")
	if !ok {
		return 0, "", fmt.Errorf("filter %q must have the form column=text", expr)
	}
	col, err := ParseColumn(key)
	if err != nil {
		return 0, "", err
	}
	return col, strings.TrimSpace(text), nil
}
