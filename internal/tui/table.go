package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tradedesk/tradedesk/internal/monitor"
)

// tableView renders one monitor as a scrollable table. It owns only
// display state (cursor, scroll offset, selected column); the rows live
// in the monitor.
type tableView struct {
	mon *monitor.Monitor

	cursor int
	offset int
	column int
}

func newTableView(mon *monitor.Monitor) *tableView {
	return &tableView{mon: mon}
}

func (v *tableView) moveCursor(delta, height int) {
	rows := v.mon.VisibleRows()
	v.cursor += delta
	if v.cursor < 0 {
		v.cursor = 0
	}
	if v.cursor >= len(rows) {
		v.cursor = len(rows) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	v.clampScroll(height)
}

func (v *tableView) moveColumn(delta int) {
	cols := len(v.mon.Spec().Columns)
	v.column += delta
	if v.column < 0 {
		v.column = 0
	}
	if v.column >= cols {
		v.column = cols - 1
	}
}

func (v *tableView) clampScroll(height int) {
	if height < 1 {
		height = 1
	}
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+height {
		v.offset = v.cursor - height + 1
	}
}

// selectedRow returns the row under the cursor, or nil.
func (v *tableView) selectedRow() *monitor.Row {
	rows := v.mon.VisibleRows()
	if v.cursor < 0 || v.cursor >= len(rows) {
		return nil
	}
	return rows[v.cursor]
}

func (v *tableView) sortSelected() {
	v.mon.SortByColumn(v.column)
}

// render draws the header row plus up to height data rows.
func (v *tableView) render(width, height int) string {
	spec := v.mon.Spec()
	rows := v.mon.VisibleRows()
	v.clampScroll(height)

	sortCol, sortAsc := v.mon.SortColumn()

	var header strings.Builder
	for i, col := range spec.Columns {
		label := col.Label
		if i == sortCol {
			if sortAsc {
				label += " ^"
			} else {
				label += " v"
			}
		}
		cell := pad(label, v.mon.Width(col.Field))
		if i == v.column {
			header.WriteString(selectedColumnStyle.Render(cell))
		} else {
			header.WriteString(columnHeaderStyle.Render(cell))
		}
		header.WriteString(" ")
	}

	lines := []string{truncateLine(header.String(), width)}

	end := v.offset + height
	if end > len(rows) {
		end = len(rows)
	}
	for i := v.offset; i < end; i++ {
		row := rows[i]
		var b strings.Builder
		for j, cell := range row.Cells {
			field := spec.Columns[j].Field
			text := pad(cell.Text, v.mon.Width(field))
			if cell.Color != "" {
				text = lipgloss.NewStyle().Foreground(cell.Color).Render(text)
			}
			b.WriteString(text)
			b.WriteString(" ")
		}
		line := truncateLine(b.String(), width)
		if i == v.cursor {
			line = selectedRowStyle.Render(line)
		}
		lines = append(lines, line)
	}

	if len(rows) == 0 {
		lines = append(lines, labelStyle.Render("  (no rows)"))
	}
	return strings.Join(lines, "\n")
}

// pad fits s to width terminal cells, not bytes, so wide runes keep the
// columns aligned.
func pad(s string, width int) string {
	if lipgloss.Width(s) > width {
		s = lipgloss.NewStyle().MaxWidth(width).Render(s)
	}
	if gap := width - lipgloss.Width(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

// truncateLine cuts a rendered line to width terminal cells, keeping
// any active style sequences balanced by cutting before styling when
// possible. Styled cells are short, so a plain rune cut is enough.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
