package domain

// Direction of an order, trade or position.
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
	DirectionNet   Direction = "Net"
)

// Offset tells whether an order opens or closes a position.
type Offset string

const (
	OffsetNone  Offset = ""
	OffsetOpen  Offset = "Open"
	OffsetClose Offset = "Close"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusSubmitting OrderStatus = "Submitting"
	StatusNotTraded  OrderStatus = "Not Traded"
	StatusPartTraded OrderStatus = "Part Traded"
	StatusAllTraded  OrderStatus = "All Traded"
	StatusCancelled  OrderStatus = "Cancelled"
	StatusRejected   OrderStatus = "Rejected"
)

// ActiveStatuses are the states in which an order can still trade or be cancelled.
var ActiveStatuses = map[OrderStatus]bool{
	StatusSubmitting: true,
	StatusNotTraded:  true,
	StatusPartTraded: true,
}

// OrderType of a submitted order.
type OrderType string

const (
	OrderTypeLimit  OrderType = "Limit"
	OrderTypeMarket OrderType = "Market"
	OrderTypeFAK    OrderType = "FAK"
	OrderTypeFOK    OrderType = "FOK"
)

// Exchange identifies a trading venue.
type Exchange string

const (
	ExchangeBinance Exchange = "BINANCE"
	ExchangePaper   Exchange = "PAPER"
	ExchangeSSE     Exchange = "SSE"
	ExchangeSZSE    Exchange = "SZSE"
)

// AllExchanges lists the venues selectable in the trading panel.
var AllExchanges = []Exchange{ExchangeBinance, ExchangePaper, ExchangeSSE, ExchangeSZSE}

// Product classifies a contract.
type Product string

const (
	ProductSpot    Product = "Spot"
	ProductEquity  Product = "Equity"
	ProductFutures Product = "Futures"
)

// QuoteStatus is the lifecycle state of a two-sided quote.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "Pending"
	QuoteStatusActive    QuoteStatus = "Active"
	QuoteStatusCancelled QuoteStatus = "Cancelled"
)
