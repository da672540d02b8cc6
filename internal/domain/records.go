package domain

import (
	"time"
)

// SymbolID joins a ticker symbol with its venue into the globally unique
// identifier used as row key across the console ("BTCUSDT.BINANCE").
func SymbolID(symbol string, exchange Exchange) string {
	return symbol + "." + string(exchange)
}

// Tick is a level-5 market data snapshot pushed by a gateway.
type Tick struct {
	Symbol      string
	Exchange    Exchange
	Name        string
	Datetime    time.Time
	GatewayName string

	LastPrice float64
	Volume    float64
	OpenPrice float64
	HighPrice float64
	LowPrice  float64
	PreClose  float64

	BidPrice  [5]float64
	BidVolume [5]float64
	AskPrice  [5]float64
	AskVolume [5]float64
}

// Key returns the unique row key of the tick's instrument.
func (t *Tick) Key() string { return SymbolID(t.Symbol, t.Exchange) }

// Order is the current state of a submitted order.
type Order struct {
	OrderID     string
	Symbol      string
	Exchange    Exchange
	Type        OrderType
	Direction   Direction
	Offset      Offset
	Price       float64
	Volume      float64
	Traded      float64
	Status      OrderStatus
	Datetime    time.Time
	Reference   string
	GatewayName string
}

// Key returns the gateway-scoped order identifier.
func (o *Order) Key() string { return o.GatewayName + "." + o.OrderID }

// IsActive reports whether the order can still trade or be cancelled.
func (o *Order) IsActive() bool { return ActiveStatuses[o.Status] }

// CancelRequest builds the cancel request for this order.
func (o *Order) CancelRequest() CancelRequest {
	return CancelRequest{OrderID: o.OrderID, Symbol: o.Symbol, Exchange: o.Exchange}
}

// Trade is a single fill of an order.
type Trade struct {
	TradeID     string
	OrderID     string
	Symbol      string
	Exchange    Exchange
	Direction   Direction
	Offset      Offset
	Price       float64
	Volume      float64
	Datetime    time.Time
	GatewayName string
}

// Key returns the gateway-scoped trade identifier.
func (t *Trade) Key() string { return t.GatewayName + "." + t.TradeID }

// Position is the net holding of one instrument on one side.
type Position struct {
	Symbol      string
	Exchange    Exchange
	Direction   Direction
	Volume      float64
	YdVolume    float64
	Frozen      float64
	Price       float64
	PnL         float64
	GatewayName string
}

// Key returns the unique position identifier (instrument plus side).
func (p *Position) Key() string {
	return SymbolID(p.Symbol, p.Exchange) + "." + string(p.Direction)
}

// Clone returns an independent copy, used when publishing a snapshot of
// mutable gateway state.
func (p *Position) Clone() *Position {
	clone := *p
	return &clone
}

// Account is the balance state of one trading account.
type Account struct {
	AccountID   string
	Balance     float64
	Frozen      float64
	GatewayName string
}

// Available returns the balance not locked by open orders.
func (a *Account) Available() float64 { return a.Balance - a.Frozen }

// Key returns the gateway-scoped account identifier.
func (a *Account) Key() string { return a.GatewayName + "." + a.AccountID }

// Quote is a two-sided quote submitted by a market maker.
type Quote struct {
	QuoteID     string
	Symbol      string
	Exchange    Exchange
	BidOffset   Offset
	BidPrice    float64
	BidVolume   float64
	AskOffset   Offset
	AskPrice    float64
	AskVolume   float64
	Status      QuoteStatus
	Datetime    time.Time
	Reference   string
	GatewayName string
}

// Key returns the gateway-scoped quote identifier.
func (q *Quote) Key() string { return q.GatewayName + "." + q.QuoteID }

// IsActive reports whether the quote can still be cancelled.
func (q *Quote) IsActive() bool {
	return q.Status == QuoteStatusPending || q.Status == QuoteStatusActive
}

// CancelRequest builds the cancel request for this quote.
func (q *Quote) CancelRequest() CancelRequest {
	return CancelRequest{OrderID: q.QuoteID, Symbol: q.Symbol, Exchange: q.Exchange}
}

// Contract describes a tradable instrument offered by a gateway.
type Contract struct {
	Symbol      string
	Exchange    Exchange
	Name        string
	Product     Product
	Size        float64
	PriceTick   float64
	MinVolume   float64
	GatewayName string
}

// Key returns the unique contract identifier.
func (c *Contract) Key() string { return SymbolID(c.Symbol, c.Exchange) }

// LogEntry is one line shown in the log monitor. Entries carry no key:
// the log table is append-only.
type LogEntry struct {
	Time        time.Time
	Msg         string
	Level       string
	GatewayName string
}
