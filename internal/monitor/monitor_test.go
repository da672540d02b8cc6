package monitor

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

type testRecord struct {
	ID    string
	Name  string
	Price float64
}

func testSpec(keyed bool) Spec {
	spec := Spec{
		Name:      "TestMonitor",
		EventType: events.TypeTick,
		Sorting:   true,
		Columns: []ColumnSpec{
			{Field: "id", Label: "ID", Role: RolePlain, Value: func(r any) any { return r.(*testRecord).ID }},
			{Field: "name", Label: "Name", Role: RolePlain, Value: func(r any) any { return r.(*testRecord).Name }},
			{Field: "price", Label: "Price", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*testRecord).Price }},
		},
	}
	if keyed {
		spec.Key = func(r any) string { return r.(*testRecord).ID }
	}
	return spec
}

func TestKeyedUpsert(t *testing.T) {
	m := New(testSpec(true), nil)

	m.Process(&testRecord{ID: "a", Name: "first", Price: 10})
	m.Process(&testRecord{ID: "a", Name: "renamed", Price: 20})

	if m.RowCount() != 1 {
		t.Fatalf("expected one row per key, got %d", m.RowCount())
	}

	row := m.Rows()[0]
	if row.Cells[2].Text != "20" {
		t.Fatalf("live cell not updated: %q", row.Cells[2].Text)
	}
	// Static cells are set at insert and never touched again.
	if row.Cells[1].Text != "first" {
		t.Fatalf("static cell mutated: %q", row.Cells[1].Text)
	}
	if row.Record.(*testRecord).Price != 20 {
		t.Fatal("row record should track the latest event")
	}
}

func TestKeylessAppendsNewestFirst(t *testing.T) {
	m := New(testSpec(false), nil)

	for _, id := range []string{"a", "a", "b"} {
		m.Process(&testRecord{ID: id})
	}

	if m.RowCount() != 3 {
		t.Fatalf("keyless monitor must append every event, got %d rows", m.RowCount())
	}
	if m.Rows()[0].Cells[0].Text != "b" {
		t.Fatalf("newest row must be on top, got %q", m.Rows()[0].Cells[0].Text)
	}
}

func TestSortByRenderedText(t *testing.T) {
	m := New(testSpec(true), nil)
	m.Process(&testRecord{ID: "x", Price: 20})
	m.Process(&testRecord{ID: "y", Price: 100})

	m.SortByColumn(2)
	if got := m.Rows()[0].Cells[2].Text; got != "100" {
		t.Fatalf(`ascending text sort must put "100" before "20", got %q first`, got)
	}

	// Sorting the same column again flips direction.
	m.SortByColumn(2)
	if got := m.Rows()[0].Cells[2].Text; got != "20" {
		t.Fatalf("descending sort: got %q first", got)
	}
}

func TestSortReappliedAfterUpdate(t *testing.T) {
	m := New(testSpec(true), nil)
	m.Process(&testRecord{ID: "x", Price: 1})
	m.Process(&testRecord{ID: "y", Price: 2})

	m.SortByColumn(0)
	m.Process(&testRecord{ID: "z", Price: 3})

	if got := m.Rows()[0].Cells[0].Text; got != "x" {
		t.Fatalf("insert under an active sort must keep order, got %q first", got)
	}
}

func TestBadRecordSkipped(t *testing.T) {
	m := New(testSpec(true), nil)
	m.Process(&testRecord{ID: "a"})
	m.Process("not a record") // key accessor panics; the event is dropped

	if m.RowCount() != 1 {
		t.Fatalf("malformed record must not add rows, got %d", m.RowCount())
	}
}

func TestClearRemovesEverything(t *testing.T) {
	m := New(testSpec(true), nil)
	m.Process(&testRecord{ID: "a"})
	m.Clear()

	if m.RowCount() != 0 {
		t.Fatal("clear must drop all rows")
	}
	// Reprocessing the key inserts fresh.
	m.Process(&testRecord{ID: "a", Price: 5})
	if m.RowCount() != 1 || m.Rows()[0].Cells[2].Text != "5" {
		t.Fatal("monitor unusable after clear")
	}
}

func TestExportCSVSkipsHiddenRows(t *testing.T) {
	m := New(testSpec(true), nil)
	m.Process(&testRecord{ID: "a", Name: "keep", Price: 1})
	m.Process(&testRecord{ID: "b", Name: "drop", Price: 2})
	m.SetRowHidden("b", true)

	var buf bytes.Buffer
	if err := m.ExportCSV(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header plus one visible row, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "ID,Name,Price" {
		t.Fatalf("bad header: %q", lines[0])
	}
	if strings.Contains(out, "drop") {
		t.Fatal("hidden row leaked into the export")
	}
}

func TestHiddenRowStillUpdates(t *testing.T) {
	m := New(testSpec(true), nil)
	m.Process(&testRecord{ID: "a", Price: 1})
	m.SetRowHidden("a", true)
	m.Process(&testRecord{ID: "a", Price: 9})

	if len(m.VisibleRows()) != 0 {
		t.Fatal("row should stay hidden across updates")
	}
	if m.Rows()[0].Cells[2].Text != "9" {
		t.Fatal("hidden rows must keep receiving updates")
	}
}

func TestLayoutPersistence(t *testing.T) {
	svc := settings.NewMemoryService()

	m := New(testSpec(true), svc)
	m.SetWidth("price", 24)
	if err := m.SaveLayout(); err != nil {
		t.Fatalf("save layout: %v", err)
	}

	restored := New(testSpec(true), svc)
	if got := restored.Width("price"); got != 24 {
		t.Fatalf("width not restored: %d", got)
	}
}

func TestLayoutFallsBackOnMissing(t *testing.T) {
	m := New(testSpec(true), settings.NewMemoryService())
	if got := m.Width("price"); got != len("Price") {
		t.Fatalf("default width should be the label length, got %d", got)
	}
}

func TestResizeColumnsToContent(t *testing.T) {
	m := New(testSpec(true), nil)
	m.Process(&testRecord{ID: "a", Name: "a very long instrument name"})
	m.ResizeColumns()

	if got := m.Width("name"); got != len("a very long instrument name") {
		t.Fatalf("resize to content: got %d", got)
	}
}

func TestActiveOrderMonitorHidesFinishedOrders(t *testing.T) {
	m := NewActiveOrderMonitor(settings.NewMemoryService())

	order := &domain.Order{
		OrderID:     "1",
		Symbol:      "BTCUSDT",
		Exchange:    domain.ExchangePaper,
		Direction:   domain.DirectionLong,
		Status:      domain.StatusNotTraded,
		Volume:      1,
		Datetime:    time.Now(),
		GatewayName: "PAPER",
	}
	m.Process(order)
	if len(m.VisibleRows()) != 1 {
		t.Fatal("active order should be visible")
	}

	done := *order
	done.Status = domain.StatusAllTraded
	done.Traded = 1
	m.Process(&done)

	if len(m.VisibleRows()) != 0 {
		t.Fatal("finished order should be hidden")
	}
	if m.RowCount() != 1 {
		t.Fatal("finished order row must be hidden, not removed")
	}
}
