package monitor

import (
	"testing"
	"time"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

func TestTickMonitorUpsertsPerInstrument(t *testing.T) {
	m := NewTickMonitor(settings.NewMemoryService())

	first := &domain.Tick{
		Symbol: "BTCUSDT", Exchange: domain.ExchangeBinance,
		LastPrice: 100, Datetime: time.Now(),
	}
	m.Process(first)

	second := *first
	second.LastPrice = 101
	m.Process(&second)

	if m.RowCount() != 1 {
		t.Fatalf("one instrument must stay one row, got %d", m.RowCount())
	}

	m.Process(&domain.Tick{Symbol: "ETHUSDT", Exchange: domain.ExchangeBinance, LastPrice: 5})
	if m.RowCount() != 2 {
		t.Fatal("second instrument must add a row")
	}
	// Newest instrument sits on top.
	if m.Rows()[0].Record.(*domain.Tick).Symbol != "ETHUSDT" {
		t.Fatal("new row must be inserted at the top")
	}
}

func TestLogMonitorAppendsEveryEntry(t *testing.T) {
	m := NewLogMonitor(settings.NewMemoryService())
	for i := 0; i < 3; i++ {
		m.Process(&domain.LogEntry{Time: time.Now(), Msg: "line"})
	}
	if m.RowCount() != 3 {
		t.Fatalf("log monitor must append, got %d rows", m.RowCount())
	}
}

func TestOrderMonitorLiveCells(t *testing.T) {
	m := NewOrderMonitor(settings.NewMemoryService())

	order := &domain.Order{
		OrderID: "1", GatewayName: "PAPER", Symbol: "BTCUSDT",
		Exchange: domain.ExchangePaper, Price: 10, Volume: 5,
		Status: domain.StatusNotTraded, Datetime: time.Now(),
	}
	m.Process(order)

	updated := *order
	updated.Traded = 5
	updated.Status = domain.StatusAllTraded
	m.Process(&updated)

	row := m.Rows()[0]
	var tradedText, statusText string
	for i, col := range m.Spec().Columns {
		switch col.Field {
		case "traded":
			tradedText = row.Cells[i].Text
		case "status":
			statusText = row.Cells[i].Text
		}
	}
	if tradedText != "5" {
		t.Fatalf("traded cell: %q", tradedText)
	}
	if statusText != string(domain.StatusAllTraded) {
		t.Fatalf("status cell: %q", statusText)
	}
}

func TestPositionMonitorPnlColor(t *testing.T) {
	m := NewPositionMonitor(settings.NewMemoryService())
	m.Process(&domain.Position{
		Symbol: "BTCUSDT", Exchange: domain.ExchangePaper,
		Direction: domain.DirectionNet, Volume: 1, PnL: -3.5,
	})

	row := m.Rows()[0]
	for i, col := range m.Spec().Columns {
		if col.Field == "pnl" {
			if row.Cells[i].Text != "-3.5" || row.Cells[i].Color != ColorShort {
				t.Fatalf("pnl cell: %q %q", row.Cells[i].Text, row.Cells[i].Color)
			}
			return
		}
	}
	t.Fatal("pnl column missing")
}
