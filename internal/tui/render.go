package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tOgg1/busview/internal/msglist"
)

// chromeRows is the number of lines taken by everything but the row list.
const chromeRows = 5

const bytesPerLine = 8

// columnWidths sizes every column but the last, which takes the remainder.
var columnWidths = [msglist.NumColumns]int{
	msglist.ColumnName:    24,
	msglist.ColumnSource:  4,
	msglist.ColumnAddress: 12,
	msglist.ColumnNode:    12,
	msglist.ColumnFreq:    6,
	msglist.ColumnCount:   8,
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.effectiveWidth()

	parts := []string{
		m.renderHeader(width),
		m.renderColumnHeader(width),
		m.theme.borderStyle().Render(strings.Repeat("─", width)),
	}
	parts = append(parts, m.renderRows(width)...)

	switch m.mode {
	case modeFilter:
		parts = append(parts, m.renderFilterBar(width))
	case modeHelp:
		parts = append(parts, m.renderHelp(width))
	}
	if m.statusText != "" {
		parts = append(parts, m.renderStatusLine(width))
	}
	parts = append(parts, m.renderFooter(width))
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader(width int) string {
	title := m.list.Title()
	if m.cfg.Title != "" {
		title = m.cfg.Title + "  " + title
	}
	state := "playing"
	if m.paused {
		state = "paused"
	}
	position := fmt.Sprintf("%s %.1f/%.1fs x%g", state, m.playSec, m.player.Duration(), m.cfg.Speed)
	gap := max(1, width-lipgloss.Width(title)-lipgloss.Width(position))
	line := title + strings.Repeat(" ", gap) + position
	return m.theme.headerStyle().Render(truncateLine(line, width))
}

func (m *Model) renderColumnHeader(width int) string {
	sortCol, order := m.list.SortKey()
	cells := make([]string, 0, msglist.NumColumns)
	for c := 0; c < msglist.NumColumns; c++ {
		col := msglist.Column(c)
		label := m.list.HeaderLabel(col)
		if col == sortCol {
			if order == msglist.Ascending {
				label += " ▲"
			} else {
				label += " ▼"
			}
		}
		if _, filtered := m.filters[col]; filtered {
			label += "*"
		}
		cells = append(cells, padCell(label, columnWidths[col], col == msglist.ColumnData))
	}
	return m.theme.accentStyle().Bold(true).Render(truncateLine(strings.Join(cells, " "), width))
}

func (m *Model) renderRows(width int) []string {
	page := max(1, m.effectiveHeight()-chromeRows)
	count := m.list.RowCount()
	if count == 0 {
		return []string{m.theme.mutedStyle().Render("  no messages")}
	}

	lines := make([]string, 0, page)
	for i := m.offset; i < count && len(lines) < page; i++ {
		item, _ := m.list.Item(i)
		for _, line := range m.renderRow(item, i == m.cursor, width) {
			if len(lines) >= page {
				break
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// renderRow renders one row. Multi-line payloads add continuation lines
// aligned under the data column.
func (m *Model) renderRow(item msglist.Item, selected bool, width int) []string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Base.Foreground))
	switch {
	case selected:
		style = m.theme.selectedStyle()
	case item.ID.IsDeclaredOnly():
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Row.Declared))
	case !m.list.IsActive(item):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Row.Inactive))
	}

	cells := make([]string, 0, msglist.ColumnData)
	prefixWidth := 0
	for c := 0; c < int(msglist.ColumnData); c++ {
		col := msglist.Column(c)
		cells = append(cells, padCell(m.list.DisplayText(item, col), columnWidths[col], false))
		prefixWidth += columnWidths[col] + 1
	}
	prefix := style.Render(strings.Join(cells, " ") + " ")

	dataLines := m.renderBytes(item, style)
	if len(dataLines) == 0 {
		dataLines = []string{style.Render(m.list.DisplayText(item, msglist.ColumnData))}
	}

	out := make([]string, 0, len(dataLines))
	out = append(out, prefix+dataLines[0])
	indent := strings.Repeat(" ", prefixWidth)
	for _, line := range dataLines[1:] {
		out = append(out, indent+line)
	}
	if width > 0 {
		for i := range out {
			out[i] = truncateLine(out[i], width)
		}
	}
	return out
}

// renderBytes renders the payload as hex cells tinted by the highlight
// overlay.
func (m *Model) renderBytes(item msglist.Item, base lipgloss.Style) []string {
	data := m.list.Bytes(item)
	if len(data) == 0 {
		return nil
	}
	colors := m.list.Colors(item)

	perLine := len(data)
	if m.cfg.MultiLineBytes {
		perLine = bytesPerLine
	}

	var lines []string
	var cells []string
	for i, b := range data {
		cell := base
		if i < len(colors) {
			if bg, ok := highlightColor(colors[i]); ok {
				cell = cell.Background(bg)
			}
		}
		cells = append(cells, cell.Render(fmt.Sprintf("%02X", b)))
		if len(cells) == perLine {
			lines = append(lines, strings.Join(cells, base.Render(" ")))
			cells = cells[:0]
		}
	}
	if len(cells) > 0 {
		lines = append(lines, strings.Join(cells, base.Render(" ")))
	}
	return lines
}

func (m *Model) renderFilterBar(width int) string {
	active := make([]string, 0, len(m.filters))
	for c := 0; c < msglist.NumColumns; c++ {
		col := msglist.Column(c)
		if text, ok := m.filters[col]; ok {
			active = append(active, col.String()+"="+text)
		}
	}
	line := "filter> " + m.filterInput + "_"
	if len(active) > 0 {
		line += "   [" + strings.Join(active, " ") + "]"
	}
	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Base.Border)).
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Width(max(10, width-2))
	return style.Render(truncateLine(line, width-4))
}

func (m *Model) renderHelp(width int) string {
	lines := []string{
		"j/k up/down  move        g/G    first/last",
		"s            sort column S      sort order",
		"d            demux       i      toggle inactive",
		"/            filter      space  pause",
		"left/right   seek 5s     q      quit",
		"filters: <column>=<text>, e.g. id=0x100-0x1ff, name=speed, empty clears",
	}
	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Base.Accent)).
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Width(max(10, width-2))
	return style.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatusLine(width int) string {
	style := m.theme.mutedStyle()
	if m.statusKind == statusErr {
		style = m.theme.errorStyle()
	}
	return style.Render(truncateLine(m.statusText, width))
}

func (m *Model) renderFooter(width int) string {
	sortCol, order := m.list.SortKey()
	inactive := "shown"
	if !m.list.ShowingInactive() {
		inactive = "hidden"
	}
	line := fmt.Sprintf("row %d/%d  sort %s %s  demux x%d  inactive %s  ? help",
		min(m.cursor+1, m.list.RowCount()), m.list.RowCount(),
		sortCol, order, m.list.CycleRepetition(), inactive)
	return m.theme.footerStyle().Render(truncateLine(line, width))
}

func padCell(text string, width int, last bool) string {
	if last || width <= 0 {
		return text
	}
	text = runewidth.Truncate(text, width, "…")
	return runewidth.FillRight(text, width)
}

// truncateLine cuts line to width display cells. Styled lines are returned
// unchanged when they already fit.
func truncateLine(line string, width int) string {
	if width <= 0 || lipgloss.Width(line) <= width {
		return line
	}
	if strings.Contains(line, "\x1b") {
		return lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return runewidth.Truncate(line, width, "…")
}
