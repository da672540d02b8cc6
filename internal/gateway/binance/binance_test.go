package binance

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
)

func newTestGateway(t *testing.T) (*Gateway, func() *domain.Tick) {
	t.Helper()
	bus := events.New(0)
	bus.Start()
	t.Cleanup(bus.Stop)

	var mu sync.Mutex
	var last *domain.Tick
	bus.Register(events.TypeTick, func(ev events.Event) {
		if tick, ok := ev.Data.(*domain.Tick); ok {
			mu.Lock()
			last = tick
			mu.Unlock()
		}
	})

	g := New(bus)
	g.names["BTCUSDT"] = "BTC/USDT"

	return g, func() *domain.Tick {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			mu.Lock()
			tick := last
			mu.Unlock()
			if tick != nil {
				return tick
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatal("no tick published")
		return nil
	}
}

func TestTickerStreamToTick(t *testing.T) {
	g, lastTick := newTestGateway(t)

	payload := []byte(`{"s":"BTCUSDT","c":"50000.5","o":"49000","h":"51000","l":"48000","v":"1234.5","x":"49500","E":1700000000000}`)
	g.handleStream("btcusdt@ticker", json.RawMessage(payload))

	tick := lastTick()
	if tick.Symbol != "BTCUSDT" || tick.Exchange != domain.ExchangeBinance {
		t.Fatalf("tick identity: %+v", tick)
	}
	if tick.LastPrice != 50000.5 || tick.PreClose != 49500 {
		t.Fatalf("tick prices: last=%v preclose=%v", tick.LastPrice, tick.PreClose)
	}
	if tick.Name != "BTC/USDT" {
		t.Fatalf("tick name: %q", tick.Name)
	}
}

func TestDepthStreamFillsFiveLevels(t *testing.T) {
	g, lastTick := newTestGateway(t)

	payload := []byte(`{"lastUpdateId":1,
		"bids":[["100.1","1"],["100.0","2"],["99.9","3"],["99.8","4"],["99.7","5"]],
		"asks":[["100.2","1"],["100.3","2"],["100.4","3"],["100.5","4"],["100.6","5"]]}`)
	g.handleStream("btcusdt@depth5@100ms", json.RawMessage(payload))

	tick := lastTick()
	if tick.BidPrice[0] != 100.1 || tick.BidPrice[4] != 99.7 {
		t.Fatalf("bid ladder: %v", tick.BidPrice)
	}
	if tick.AskPrice[0] != 100.2 || tick.AskVolume[4] != 5 {
		t.Fatalf("ask ladder: %v %v", tick.AskPrice, tick.AskVolume)
	}
}

func TestTickerAndDepthMergeIntoOneSnapshot(t *testing.T) {
	g, lastTick := newTestGateway(t)

	g.handleStream("btcusdt@ticker", json.RawMessage(
		[]byte(`{"s":"BTCUSDT","c":"100.15","o":"99","h":"101","l":"98","v":"10","x":"99.5","E":1700000000000}`)))
	g.handleStream("btcusdt@depth5@100ms", json.RawMessage(
		[]byte(`{"bids":[["100.1","1"]],"asks":[["100.2","1"]]}`)))

	tick := lastTick()
	if tick.LastPrice != 100.15 {
		t.Fatalf("ticker fields lost after depth update: %v", tick.LastPrice)
	}
	if tick.BidPrice[0] != 100.1 {
		t.Fatalf("depth fields missing: %v", tick.BidPrice)
	}
}

func TestMalformedStreamIgnored(t *testing.T) {
	g, lastTick := newTestGateway(t)

	g.handleStream("btcusdt@ticker", json.RawMessage([]byte(`not json`)))
	g.handleStream("noseparator", json.RawMessage([]byte(`{}`)))

	// Depth rows shorter than [price, volume] are skipped, not indexed.
	g.handleStream("btcusdt@depth5@100ms", json.RawMessage(
		[]byte(`{"bids":[["100.1"],[]],"asks":[["100.2","1"]]}`)))

	tick := lastTick()
	if tick.BidPrice[0] != 0 {
		t.Fatalf("short bid row must be skipped: %v", tick.BidPrice)
	}
	if tick.AskPrice[0] != 100.2 {
		t.Fatalf("well-formed ask row lost: %v", tick.AskPrice)
	}
}

func TestOrderEntryNotSupported(t *testing.T) {
	g, _ := newTestGateway(t)

	if _, err := g.SendOrder(domain.OrderRequest{Symbol: "BTCUSDT", Volume: 1}); err == nil {
		t.Fatal("order entry must be rejected")
	}
	if err := g.CancelOrder(domain.CancelRequest{OrderID: "1"}); err == nil {
		t.Fatal("cancel must be rejected")
	}
}
