package paper

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
)

type recorder struct {
	mu     sync.Mutex
	orders []*domain.Order
	trades []*domain.Trade
}

func (r *recorder) install(bus *events.Engine) {
	bus.Register(events.TypeOrder, func(ev events.Event) {
		if o, ok := ev.Data.(*domain.Order); ok {
			r.mu.Lock()
			r.orders = append(r.orders, o)
			r.mu.Unlock()
		}
	})
	bus.Register(events.TypeTrade, func(ev events.Event) {
		if t, ok := ev.Data.(*domain.Trade); ok {
			r.mu.Lock()
			r.trades = append(r.trades, t)
			r.mu.Unlock()
		}
	})
}

func (r *recorder) lastOrder() *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.orders) == 0 {
		return nil
	}
	return r.orders[len(r.orders)-1]
}

func (r *recorder) tradeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trades)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newConnected(t *testing.T) (*Gateway, *recorder) {
	t.Helper()
	bus := events.New(0)
	bus.Start()
	t.Cleanup(bus.Stop)

	rec := &recorder{}
	rec.install(bus)

	g := New(bus)
	// A huge interval keeps the price loop quiet; tests drive matching
	// through step() directly.
	err := g.Connect(map[string]string{
		"Symbols":       "BTCUSDT",
		"Balance":       "1000",
		"Interval (ms)": "3600000",
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g, rec
}

func TestMarketOrderFillsImmediately(t *testing.T) {
	g, rec := newConnected(t)

	id, err := g.SendOrder(domain.OrderRequest{
		Symbol:    "BTCUSDT",
		Exchange:  domain.ExchangePaper,
		Direction: domain.DirectionLong,
		Type:      domain.OrderTypeMarket,
		Volume:    2,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id == "" {
		t.Fatal("empty order id")
	}

	waitFor(t, func() bool { return rec.tradeCount() == 1 })
	waitFor(t, func() bool {
		o := rec.lastOrder()
		return o != nil && o.Status == domain.StatusAllTraded && o.Traded == 2
	})
}

func TestLimitOrderRestsUntilCrossed(t *testing.T) {
	g, rec := newConnected(t)

	// A buy limit far below the market cannot fill.
	if _, err := g.SendOrder(domain.OrderRequest{
		Symbol:    "BTCUSDT",
		Exchange:  domain.ExchangePaper,
		Direction: domain.DirectionLong,
		Type:      domain.OrderTypeLimit,
		Price:     0.01,
		Volume:    1,
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	waitFor(t, func() bool {
		o := rec.lastOrder()
		return o != nil && o.Status == domain.StatusNotTraded
	})

	// Force the market through the limit and match.
	g.mu.Lock()
	inst := g.instruments["BTCUSDT"]
	inst.price = decimal.NewFromFloat(0.005)
	g.matchLocked(inst)
	g.mu.Unlock()

	waitFor(t, func() bool { return rec.tradeCount() == 1 })
}

func TestCancelRestingOrder(t *testing.T) {
	g, rec := newConnected(t)

	id, err := g.SendOrder(domain.OrderRequest{
		Symbol:    "BTCUSDT",
		Exchange:  domain.ExchangePaper,
		Direction: domain.DirectionLong,
		Type:      domain.OrderTypeLimit,
		Price:     0.01,
		Volume:    1,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := g.CancelOrder(domain.CancelRequest{OrderID: id, Symbol: "BTCUSDT"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitFor(t, func() bool {
		o := rec.lastOrder()
		return o != nil && o.Status == domain.StatusCancelled
	})

	// Cancelling twice fails: the order left the book.
	if err := g.CancelOrder(domain.CancelRequest{OrderID: id, Symbol: "BTCUSDT"}); err == nil {
		t.Fatal("second cancel should fail")
	}
}

func TestOrderValidation(t *testing.T) {
	g, _ := newConnected(t)

	if _, err := g.SendOrder(domain.OrderRequest{
		Symbol: "BTCUSDT", Type: domain.OrderTypeLimit, Price: 10, Volume: 0,
	}); err == nil {
		t.Fatal("zero volume should be rejected")
	}
	if _, err := g.SendOrder(domain.OrderRequest{
		Symbol: "BTCUSDT", Type: domain.OrderTypeLimit, Price: 0, Volume: 1,
	}); err == nil {
		t.Fatal("zero limit price should be rejected")
	}
	if _, err := g.SendOrder(domain.OrderRequest{
		Symbol: "NOPE", Type: domain.OrderTypeMarket, Volume: 1,
	}); err == nil {
		t.Fatal("unknown symbol should be rejected")
	}
}

func TestNetPositionBookkeeping(t *testing.T) {
	g, _ := newConnected(t)

	send := func(dir domain.Direction, volume float64) {
		t.Helper()
		if _, err := g.SendOrder(domain.OrderRequest{
			Symbol:    "BTCUSDT",
			Exchange:  domain.ExchangePaper,
			Direction: dir,
			Type:      domain.OrderTypeMarket,
			Volume:    volume,
		}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	send(domain.DirectionLong, 3)
	send(domain.DirectionShort, 1)

	g.mu.Lock()
	pos := g.positions["BTCUSDT.PAPER"]
	g.mu.Unlock()
	if pos == nil || pos.Volume != 2 {
		t.Fatalf("net position: %+v", pos)
	}

	send(domain.DirectionShort, 2)
	g.mu.Lock()
	pos = g.positions["BTCUSDT.PAPER"]
	g.mu.Unlock()
	if pos.Volume != 0 {
		t.Fatalf("flat position expected, got %v", pos.Volume)
	}
}
