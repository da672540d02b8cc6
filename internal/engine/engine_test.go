package engine

import (
	"testing"
	"time"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/internal/gateway"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

// fakeGateway records the requests routed to it.
type fakeGateway struct {
	gateway.Base
	connected bool
	form      map[string]string
	orders    []domain.OrderRequest
	cancels   []domain.CancelRequest
	subs      []domain.SubscribeRequest
}

func newFakeGateway(name string, bus *events.Engine) *fakeGateway {
	return &fakeGateway{Base: gateway.NewBase(name, bus)}
}

func (g *fakeGateway) DefaultSettings() []gateway.Field {
	return []gateway.Field{
		{Name: "Host", Default: "localhost"},
		{Name: "Key", Secret: true},
	}
}

func (g *fakeGateway) Connect(form map[string]string) error {
	g.connected = true
	g.form = form
	return nil
}

func (g *fakeGateway) Close() error { return nil }

func (g *fakeGateway) Subscribe(req domain.SubscribeRequest) error {
	g.subs = append(g.subs, req)
	return nil
}

func (g *fakeGateway) SendOrder(req domain.OrderRequest) (string, error) {
	g.orders = append(g.orders, req)
	return "order-1", nil
}

func (g *fakeGateway) CancelOrder(req domain.CancelRequest) error {
	g.cancels = append(g.cancels, req)
	return nil
}

func newTestEngine(t *testing.T) (*MainEngine, *fakeGateway) {
	t.Helper()
	bus := events.New(0)
	bus.Start()
	t.Cleanup(bus.Stop)

	e := New(bus, settings.NewMemoryService(), nil)
	gw := newFakeGateway("FAKE", bus)
	e.AddGateway(gw)
	return e, gw
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

func TestRoutingToGateway(t *testing.T) {
	e, gw := newTestEngine(t)

	if err := e.Subscribe(domain.SubscribeRequest{Symbol: "BTCUSDT"}, "FAKE"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(gw.subs) != 1 {
		t.Fatal("subscription not routed")
	}

	key, err := e.SendOrder(domain.OrderRequest{Symbol: "BTCUSDT", Volume: 1}, "FAKE")
	if err != nil {
		t.Fatalf("send order: %v", err)
	}
	if key != "FAKE.order-1" {
		t.Fatalf("order key: %q", key)
	}

	if _, err := e.SendOrder(domain.OrderRequest{}, "MISSING"); err == nil {
		t.Fatal("unknown gateway must fail")
	}
}

func TestConnectPersistsPlainFields(t *testing.T) {
	svc := settings.NewMemoryService()
	bus := events.New(0)
	bus.Start()
	t.Cleanup(bus.Stop)

	e := New(bus, svc, nil)
	gw := newFakeGateway("FAKE", bus)
	e.AddGateway(gw)

	form := map[string]string{"Host": "example.com", "Key": "hunter2"}
	if err := e.Connect("FAKE", form); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !gw.connected {
		t.Fatal("gateway not connected")
	}

	stored := make(map[string]string)
	if err := svc.NewStore("connect", "FAKE", "setting").Load(&stored); err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if stored["Host"] != "example.com" {
		t.Fatalf("plain field not saved: %v", stored)
	}
	if _, leaked := stored["Key"]; leaked {
		t.Fatal("secret field must not land in the plain settings file")
	}

	// With no secret store attached the defaults still come back.
	restored := e.LoadConnectForm("FAKE")
	if restored["Host"] != "example.com" {
		t.Fatalf("restored form: %v", restored)
	}
}

func TestOMSTracksActiveOrders(t *testing.T) {
	e, gw := newTestEngine(t)

	order := &domain.Order{
		OrderID: "1", Symbol: "BTCUSDT", Exchange: domain.ExchangePaper,
		Status: domain.StatusNotTraded, Volume: 1,
	}
	gw.OnOrder(order)
	waitFor(t, func() bool { return len(e.OMS().GetAllActiveOrders("")) == 1 })

	done := *order
	done.Status = domain.StatusCancelled
	gw.OnOrder(&done)
	waitFor(t, func() bool { return len(e.OMS().GetAllActiveOrders("")) == 0 })

	if e.OMS().GetOrder("FAKE.1") == nil {
		t.Fatal("finished order should stay queryable")
	}
}

func TestCancelAllSweepsActiveOrders(t *testing.T) {
	e, gw := newTestEngine(t)

	for _, id := range []string{"1", "2"} {
		gw.OnOrder(&domain.Order{
			OrderID: id, Symbol: "BTCUSDT", Exchange: domain.ExchangePaper,
			Status: domain.StatusNotTraded, Volume: 1,
		})
	}
	waitFor(t, func() bool { return len(e.OMS().GetAllActiveOrders("")) == 2 })

	e.CancelAll("")
	if len(gw.cancels) != 2 {
		t.Fatalf("expected 2 cancels, got %d", len(gw.cancels))
	}
}

func TestOMSContractLookup(t *testing.T) {
	e, gw := newTestEngine(t)

	gw.OnContract(&domain.Contract{Symbol: "BTCUSDT", Exchange: domain.ExchangePaper, PriceTick: 0.01})
	waitFor(t, func() bool { return e.OMS().GetContract("BTCUSDT.PAPER") != nil })

	if e.OMS().GetContract("NOPE.PAPER") != nil {
		t.Fatal("unknown contract should be nil")
	}
}
