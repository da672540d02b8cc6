package monitor

import (
	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

// NewTickMonitor shows live market data, one row per instrument.
func NewTickMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "TickMonitor",
		EventType: events.TypeTick,
		Key:       func(r any) string { return r.(*domain.Tick).Key() },
		Sorting:   true,
		Columns: []ColumnSpec{
			{Field: "symbol", Label: "Symbol", Role: RolePlain, Value: func(r any) any { return r.(*domain.Tick).Symbol }},
			{Field: "exchange", Label: "Exchange", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Tick).Exchange }},
			{Field: "name", Label: "Name", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Tick).Name }},
			{Field: "last_price", Label: "Last", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Tick).LastPrice }},
			{Field: "volume", Label: "Volume", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Tick).Volume }},
			{Field: "open_price", Label: "Open", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Tick).OpenPrice }},
			{Field: "high_price", Label: "High", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Tick).HighPrice }},
			{Field: "low_price", Label: "Low", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Tick).LowPrice }},
			{Field: "bid_price_1", Label: "Bid", Role: RoleBid, Update: true, Value: func(r any) any { return r.(*domain.Tick).BidPrice[0] }},
			{Field: "bid_volume_1", Label: "Bid Vol", Role: RoleBid, Update: true, Value: func(r any) any { return r.(*domain.Tick).BidVolume[0] }},
			{Field: "ask_price_1", Label: "Ask", Role: RoleAsk, Update: true, Value: func(r any) any { return r.(*domain.Tick).AskPrice[0] }},
			{Field: "ask_volume_1", Label: "Ask Vol", Role: RoleAsk, Update: true, Value: func(r any) any { return r.(*domain.Tick).AskVolume[0] }},
			{Field: "datetime", Label: "Time", Role: RoleTime, Update: true, Value: func(r any) any { return r.(*domain.Tick).Datetime }},
			{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.Tick).GatewayName }},
		},
	}, svc)
}

// NewLogMonitor shows log lines, newest first. No row key: strict append.
func NewLogMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "LogMonitor",
		EventType: events.TypeLog,
		Columns: []ColumnSpec{
			{Field: "time", Label: "Time", Role: RoleTime, Value: func(r any) any { return r.(*domain.LogEntry).Time }},
			{Field: "msg", Label: "Message", Role: RoleMsg, Value: func(r any) any { return r.(*domain.LogEntry).Msg }},
			{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.LogEntry).GatewayName }},
		},
	}, svc)
}

// NewTradeMonitor shows fills. Also keyless: every fill is its own row.
func NewTradeMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "TradeMonitor",
		EventType: events.TypeTrade,
		Sorting:   true,
		Columns: []ColumnSpec{
			{Field: "tradeid", Label: "Trade ID", Role: RolePlain, Value: func(r any) any { return r.(*domain.Trade).TradeID }},
			{Field: "orderid", Label: "Order ID", Role: RolePlain, Value: func(r any) any { return r.(*domain.Trade).OrderID }},
			{Field: "symbol", Label: "Symbol", Role: RolePlain, Value: func(r any) any { return r.(*domain.Trade).Symbol }},
			{Field: "exchange", Label: "Exchange", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Trade).Exchange }},
			{Field: "direction", Label: "Direction", Role: RoleDirection, Value: func(r any) any { return r.(*domain.Trade).Direction }},
			{Field: "offset", Label: "Offset", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Trade).Offset }},
			{Field: "price", Label: "Price", Role: RolePlain, Value: func(r any) any { return r.(*domain.Trade).Price }},
			{Field: "volume", Label: "Volume", Role: RolePlain, Value: func(r any) any { return r.(*domain.Trade).Volume }},
			{Field: "datetime", Label: "Time", Role: RoleTime, Value: func(r any) any { return r.(*domain.Trade).Datetime }},
			{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.Trade).GatewayName }},
		},
	}, svc)
}

func orderColumns() []ColumnSpec {
	return []ColumnSpec{
		{Field: "orderid", Label: "Order ID", Role: RolePlain, Value: func(r any) any { return r.(*domain.Order).OrderID }},
		{Field: "reference", Label: "Source", Role: RolePlain, Value: func(r any) any { return r.(*domain.Order).Reference }},
		{Field: "symbol", Label: "Symbol", Role: RolePlain, Value: func(r any) any { return r.(*domain.Order).Symbol }},
		{Field: "exchange", Label: "Exchange", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Order).Exchange }},
		{Field: "type", Label: "Type", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Order).Type }},
		{Field: "direction", Label: "Direction", Role: RoleDirection, Value: func(r any) any { return r.(*domain.Order).Direction }},
		{Field: "offset", Label: "Offset", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Order).Offset }},
		{Field: "price", Label: "Price", Role: RolePlain, Value: func(r any) any { return r.(*domain.Order).Price }},
		{Field: "volume", Label: "Volume", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Order).Volume }},
		{Field: "traded", Label: "Traded", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Order).Traded }},
		{Field: "status", Label: "Status", Role: RoleEnum, Update: true, Value: func(r any) any { return r.(*domain.Order).Status }},
		{Field: "datetime", Label: "Time", Role: RoleTime, Update: true, Value: func(r any) any { return r.(*domain.Order).Datetime }},
		{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.Order).GatewayName }},
	}
}

// NewOrderMonitor shows every order keyed by its gateway-scoped id.
func NewOrderMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "OrderMonitor",
		EventType: events.TypeOrder,
		Key:       func(r any) string { return r.(*domain.Order).Key() },
		Sorting:   true,
		Columns:   orderColumns(),
	}, svc)
}

// NewPositionMonitor shows positions keyed by instrument and side.
func NewPositionMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "PositionMonitor",
		EventType: events.TypePosition,
		Key:       func(r any) string { return r.(*domain.Position).Key() },
		Sorting:   true,
		Columns: []ColumnSpec{
			{Field: "symbol", Label: "Symbol", Role: RolePlain, Value: func(r any) any { return r.(*domain.Position).Symbol }},
			{Field: "exchange", Label: "Exchange", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Position).Exchange }},
			{Field: "direction", Label: "Direction", Role: RoleDirection, Value: func(r any) any { return r.(*domain.Position).Direction }},
			{Field: "volume", Label: "Volume", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Position).Volume }},
			{Field: "yd_volume", Label: "Yd Volume", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Position).YdVolume }},
			{Field: "frozen", Label: "Frozen", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Position).Frozen }},
			{Field: "price", Label: "Avg Price", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Position).Price }},
			{Field: "pnl", Label: "PnL", Role: RolePnl, Update: true, Value: func(r any) any { return r.(*domain.Position).PnL }},
			{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.Position).GatewayName }},
		},
	}, svc)
}

// NewAccountMonitor shows account balances keyed by account id.
func NewAccountMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "AccountMonitor",
		EventType: events.TypeAccount,
		Key:       func(r any) string { return r.(*domain.Account).Key() },
		Sorting:   true,
		Columns: []ColumnSpec{
			{Field: "accountid", Label: "Account", Role: RolePlain, Value: func(r any) any { return r.(*domain.Account).AccountID }},
			{Field: "balance", Label: "Balance", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Account).Balance }},
			{Field: "frozen", Label: "Frozen", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Account).Frozen }},
			{Field: "available", Label: "Available", Role: RolePlain, Update: true, Value: func(r any) any { return r.(*domain.Account).Available() }},
			{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.Account).GatewayName }},
		},
	}, svc)
}

// NewQuoteMonitor shows two-sided quotes keyed by quote id.
func NewQuoteMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "QuoteMonitor",
		EventType: events.TypeQuote,
		Key:       func(r any) string { return r.(*domain.Quote).Key() },
		Sorting:   true,
		Columns: []ColumnSpec{
			{Field: "quoteid", Label: "Quote ID", Role: RolePlain, Value: func(r any) any { return r.(*domain.Quote).QuoteID }},
			{Field: "reference", Label: "Source", Role: RolePlain, Value: func(r any) any { return r.(*domain.Quote).Reference }},
			{Field: "symbol", Label: "Symbol", Role: RolePlain, Value: func(r any) any { return r.(*domain.Quote).Symbol }},
			{Field: "exchange", Label: "Exchange", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Quote).Exchange }},
			{Field: "bid_offset", Label: "Bid Offset", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Quote).BidOffset }},
			{Field: "bid_volume", Label: "Bid Vol", Role: RoleBid, Value: func(r any) any { return r.(*domain.Quote).BidVolume }},
			{Field: "bid_price", Label: "Bid Price", Role: RoleBid, Value: func(r any) any { return r.(*domain.Quote).BidPrice }},
			{Field: "ask_price", Label: "Ask Price", Role: RoleAsk, Value: func(r any) any { return r.(*domain.Quote).AskPrice }},
			{Field: "ask_volume", Label: "Ask Vol", Role: RoleAsk, Value: func(r any) any { return r.(*domain.Quote).AskVolume }},
			{Field: "ask_offset", Label: "Ask Offset", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Quote).AskOffset }},
			{Field: "status", Label: "Status", Role: RoleEnum, Update: true, Value: func(r any) any { return r.(*domain.Quote).Status }},
			{Field: "datetime", Label: "Time", Role: RoleTime, Update: true, Value: func(r any) any { return r.(*domain.Quote).Datetime }},
			{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.Quote).GatewayName }},
		},
	}, svc)
}

// NewContractMonitor shows the tradable instrument list. It is filled
// on demand by the contract query view rather than by live events.
func NewContractMonitor(svc settings.Service) *Monitor {
	return New(Spec{
		Name:      "ContractMonitor",
		EventType: events.TypeContract,
		Key:       func(r any) string { return r.(*domain.Contract).Key() },
		Sorting:   true,
		Columns: []ColumnSpec{
			{Field: "symbol_id", Label: "Symbol ID", Role: RolePlain, Value: func(r any) any { return r.(*domain.Contract).Key() }},
			{Field: "symbol", Label: "Symbol", Role: RolePlain, Value: func(r any) any { return r.(*domain.Contract).Symbol }},
			{Field: "exchange", Label: "Exchange", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Contract).Exchange }},
			{Field: "name", Label: "Name", Role: RolePlain, Value: func(r any) any { return r.(*domain.Contract).Name }},
			{Field: "product", Label: "Product", Role: RoleEnum, Value: func(r any) any { return r.(*domain.Contract).Product }},
			{Field: "size", Label: "Size", Role: RolePlain, Value: func(r any) any { return r.(*domain.Contract).Size }},
			{Field: "pricetick", Label: "Price Tick", Role: RolePlain, Value: func(r any) any { return r.(*domain.Contract).PriceTick }},
			{Field: "min_volume", Label: "Min Volume", Role: RolePlain, Value: func(r any) any { return r.(*domain.Contract).MinVolume }},
			{Field: "gateway_name", Label: "Gateway", Role: RolePlain, Value: func(r any) any { return r.(*domain.Contract).GatewayName }},
		},
	}, svc)
}

// ActiveOrderMonitor shows only orders that can still trade: rows of
// finished orders are hidden, not removed, so they keep their registry
// entry and reappear in full exports.
type ActiveOrderMonitor struct {
	*Monitor
}

func NewActiveOrderMonitor(svc settings.Service) *ActiveOrderMonitor {
	m := New(Spec{
		Name:      "ActiveOrderMonitor",
		EventType: events.TypeOrder,
		Key:       func(r any) string { return r.(*domain.Order).Key() },
		Sorting:   true,
		Columns:   orderColumns(),
	}, svc)
	return &ActiveOrderMonitor{Monitor: m}
}

// Process upserts the order row, then hides it when the order is done.
func (m *ActiveOrderMonitor) Process(record any) {
	m.Monitor.Process(record)
	if order, ok := record.(*domain.Order); ok {
		m.SetRowHidden(order.Key(), !order.IsActive())
	}
}
