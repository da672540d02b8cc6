package gateway

import (
	"time"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
)

// Field describes one entry of a gateway's connect form. Secret fields
// are masked in the UI and persisted to the credential store instead of
// the plain settings file.
type Field struct {
	Name    string
	Default string
	Secret  bool
}

// Gateway is a broker or market-data connection. Implementations push
// records through the event engine; the rest of the application never
// talks to a venue directly.
type Gateway interface {
	Name() string

	// DefaultSettings returns the connect form fields in display order.
	DefaultSettings() []Field

	// Connect starts the gateway with the given form values. It returns
	// once the connection attempt is underway; progress and failures are
	// reported through log events.
	Connect(settings map[string]string) error

	Close() error

	Subscribe(req domain.SubscribeRequest) error

	// SendOrder submits the request and returns the gateway-local order
	// id, already echoed through an order event in Submitting state.
	SendOrder(req domain.OrderRequest) (string, error)

	CancelOrder(req domain.CancelRequest) error
}

// Base carries the name and event plumbing shared by every gateway.
type Base struct {
	name string
	bus  *events.Engine
}

func NewBase(name string, bus *events.Engine) Base {
	return Base{name: name, bus: bus}
}

func (b *Base) Name() string { return b.name }

func (b *Base) OnTick(tick *domain.Tick) {
	tick.GatewayName = b.name
	b.bus.Put(events.Event{Type: events.TypeTick, Data: tick})
}

func (b *Base) OnOrder(order *domain.Order) {
	order.GatewayName = b.name
	b.bus.Put(events.Event{Type: events.TypeOrder, Data: order})
}

func (b *Base) OnTrade(trade *domain.Trade) {
	trade.GatewayName = b.name
	b.bus.Put(events.Event{Type: events.TypeTrade, Data: trade})
}

func (b *Base) OnPosition(position *domain.Position) {
	position.GatewayName = b.name
	b.bus.Put(events.Event{Type: events.TypePosition, Data: position})
}

func (b *Base) OnAccount(account *domain.Account) {
	account.GatewayName = b.name
	b.bus.Put(events.Event{Type: events.TypeAccount, Data: account})
}

func (b *Base) OnContract(contract *domain.Contract) {
	contract.GatewayName = b.name
	b.bus.Put(events.Event{Type: events.TypeContract, Data: contract})
}

func (b *Base) OnQuote(quote *domain.Quote) {
	quote.GatewayName = b.name
	b.bus.Put(events.Event{Type: events.TypeQuote, Data: quote})
}

// WriteLog pushes one line to the log monitor on behalf of the gateway.
func (b *Base) WriteLog(msg string) {
	b.bus.Put(events.Event{Type: events.TypeLog, Data: &domain.LogEntry{
		Time:        time.Now(),
		Msg:         msg,
		Level:       "info",
		GatewayName: b.name,
	}})
}
