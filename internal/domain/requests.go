package domain

// SubscribeRequest asks a gateway to start streaming market data.
type SubscribeRequest struct {
	Symbol   string
	Exchange Exchange
}

// OrderRequest carries everything a gateway needs to place an order.
type OrderRequest struct {
	Symbol    string
	Exchange  Exchange
	Direction Direction
	Type      OrderType
	Volume    float64
	Price     float64
	Offset    Offset
	Reference string
}

// CancelRequest asks a gateway to cancel an active order or quote.
type CancelRequest struct {
	OrderID  string
	Symbol   string
	Exchange Exchange
}
