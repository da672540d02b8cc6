package monitor

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/pkg/logger"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

// ColumnSpec describes one column of a monitor table. Value extracts the
// column's raw value from a record; each monitor supplies typed accessors
// instead of reflecting over field names.
type ColumnSpec struct {
	Field  string
	Label  string
	Role   Role
	Update bool
	Value  func(record any) any
}

// Spec fixes a monitor's identity at construction: event type, row key
// derivation and column order never change afterwards.
type Spec struct {
	// Name keys the persisted column layout, one per table type.
	Name      string
	EventType events.Type
	// Key returns the row key for a record. Nil means the table is
	// append-only: every event inserts a new row at the top.
	Key     func(record any) string
	Sorting bool
	Columns []ColumnSpec
}

// Row is one rendered table row in display order.
type Row struct {
	Key    string
	Cells  []*Cell
	Hidden bool
	Record any
}

// Monitor binds a stream of keyed records to a table: the first event for
// a key inserts a row, later events mutate the registered live cells in
// place. All methods must be called from the UI goroutine; events that
// originate elsewhere are marshalled there before reaching Process.
type Monitor struct {
	spec     Spec
	rows     []*Row
	rowByKey map[string]*Row
	registry map[string]map[string]*Cell

	sortColumn int
	sortAsc    bool

	widths map[string]int
	layout settings.Store
}

// New builds a monitor and restores its persisted column widths, if any.
// A nil settings service disables layout persistence.
func New(spec Spec, svc settings.Service) *Monitor {
	m := &Monitor{
		spec:       spec,
		rowByKey:   make(map[string]*Row),
		registry:   make(map[string]map[string]*Cell),
		sortColumn: -1,
		widths:     make(map[string]int),
	}
	if svc != nil {
		m.layout = svc.NewStore("layout", spec.Name, "columns")
		m.loadLayout()
	}
	for _, col := range spec.Columns {
		if m.widths[col.Field] == 0 {
			m.widths[col.Field] = len(col.Label)
		}
	}
	return m
}

// Spec returns the monitor's immutable configuration.
func (m *Monitor) Spec() Spec { return m.spec }

// Process applies one record to the table: insert for an unseen key,
// in-place update otherwise. When a user sort is active it is re-applied
// after the mutation, so the mutation itself never races a sorted view.
func (m *Monitor) Process(record any) {
	if m.spec.Key == nil {
		m.insertRow("", record)
	} else {
		key, ok := m.safeKey(record)
		if !ok {
			return
		}
		if _, exists := m.rowByKey[key]; exists {
			m.updateRow(key, record)
		} else {
			m.insertRow(key, record)
		}
	}

	if m.spec.Sorting && m.sortColumn >= 0 {
		m.applySort()
	}
}

func (m *Monitor) insertRow(key string, record any) {
	row := &Row{Key: key, Record: record, Cells: make([]*Cell, len(m.spec.Columns))}
	live := make(map[string]*Cell)

	for i, col := range m.spec.Columns {
		cell := &Cell{Record: record}
		if value, ok := m.safeValue(col, record); ok {
			cell.Set(value, col.Role, record)
		}
		row.Cells[i] = cell
		if col.Update {
			live[col.Field] = cell
		}
	}

	// New rows go to the top of the table.
	m.rows = append([]*Row{row}, m.rows...)

	if key != "" {
		m.rowByKey[key] = row
		m.registry[key] = live
	}
}

func (m *Monitor) updateRow(key string, record any) {
	row := m.rowByKey[key]
	row.Record = record

	live := m.registry[key]
	for _, col := range m.spec.Columns {
		cell, ok := live[col.Field]
		if !ok {
			continue // static cells are rendered once and never revisited
		}
		if value, ok := m.safeValue(col, record); ok {
			cell.Set(value, col.Role, record)
		}
	}
}

// safeKey extracts the row key, skipping records the key accessor cannot
// handle instead of tearing down the whole table refresh.
func (m *Monitor) safeKey(record any) (key string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("monitor %s: key extraction failed: %v", m.spec.Name, r)
			ok = false
		}
	}()
	return m.spec.Key(record), true
}

func (m *Monitor) safeValue(col ColumnSpec, record any) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("monitor %s: field %s render skipped: %v", m.spec.Name, col.Field, r)
			ok = false
		}
	}()
	return col.Value(record), true
}

// SortByColumn sorts rows by the rendered text of column index. Sorting
// the same column again flips the direction.
func (m *Monitor) SortByColumn(index int) {
	if !m.spec.Sorting || index < 0 || index >= len(m.spec.Columns) {
		return
	}
	if m.sortColumn == index {
		m.sortAsc = !m.sortAsc
	} else {
		m.sortColumn = index
		m.sortAsc = true
	}
	m.applySort()
}

// ClearSort restores insertion order for future rows but leaves current
// row positions as they are, matching a cleared sort indicator.
func (m *Monitor) ClearSort() {
	m.sortColumn = -1
	m.sortAsc = true
}

func (m *Monitor) applySort() {
	i := m.sortColumn
	sort.SliceStable(m.rows, func(a, b int) bool {
		if m.sortAsc {
			return m.rows[a].Cells[i].Less(m.rows[b].Cells[i])
		}
		return m.rows[b].Cells[i].Less(m.rows[a].Cells[i])
	})
}

// SortColumn reports the active sort column (-1 when unsorted) and order.
func (m *Monitor) SortColumn() (int, bool) { return m.sortColumn, m.sortAsc }

// SetRowHidden hides or shows the row under key. Hidden rows keep
// receiving updates; they are only excluded from display and export.
func (m *Monitor) SetRowHidden(key string, hidden bool) {
	if row, ok := m.rowByKey[key]; ok {
		row.Hidden = hidden
	}
}

// Rows returns all rows in display order, including hidden ones.
func (m *Monitor) Rows() []*Row { return m.rows }

// VisibleRows returns the rows currently shown, in display order.
func (m *Monitor) VisibleRows() []*Row {
	visible := make([]*Row, 0, len(m.rows))
	for _, row := range m.rows {
		if !row.Hidden {
			visible = append(visible, row)
		}
	}
	return visible
}

// RowCount returns the total number of rows, hidden included.
func (m *Monitor) RowCount() int { return len(m.rows) }

// Clear removes every row and resets the registry. The only way rows
// leave the table.
func (m *Monitor) Clear() {
	m.rows = nil
	m.rowByKey = make(map[string]*Row)
	m.registry = make(map[string]map[string]*Cell)
}

// ResizeColumns recomputes every column width from its content, like a
// resize-to-contents action. Pure display state; no data effect.
func (m *Monitor) ResizeColumns() {
	for i, col := range m.spec.Columns {
		width := len(col.Label)
		for _, row := range m.rows {
			if n := len(row.Cells[i].Text); n > width {
				width = n
			}
		}
		m.widths[col.Field] = width
	}
}

// Width returns the display width of a column.
func (m *Monitor) Width(field string) int { return m.widths[field] }

// SetWidth overrides one column's display width.
func (m *Monitor) SetWidth(field string, width int) {
	if width > 0 {
		m.widths[field] = width
	}
}

// SaveLayout persists the current column widths under the table's name.
func (m *Monitor) SaveLayout() error {
	if m.layout == nil {
		return nil
	}
	return m.layout.Save(m.widths)
}

func (m *Monitor) loadLayout() {
	stored := make(map[string]int)
	if err := m.layout.Load(&stored); err != nil {
		// Missing or malformed layouts fall back to defaults.
		return
	}
	for field, width := range stored {
		if width > 0 {
			m.widths[field] = width
		}
	}
}

// ExportCSV writes the header labels and every visible row's rendered
// text in display order. Hidden rows are skipped entirely.
func (m *Monitor) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	labels := make([]string, len(m.spec.Columns))
	for i, col := range m.spec.Columns {
		labels[i] = col.Label
	}
	if err := writer.Write(labels); err != nil {
		return err
	}

	record := make([]string, len(m.spec.Columns))
	for _, row := range m.rows {
		if row.Hidden {
			continue
		}
		for i, cell := range row.Cells {
			record[i] = cell.Text
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
