package engine

import (
	"sync"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
)

// OMS caches the latest state of every record flowing through the event
// engine so queries don't have to wait for the next event. Handlers run
// on the dispatch goroutine while queries come from the UI and the web
// server, hence the lock.
type OMS struct {
	mu sync.RWMutex

	ticks     map[string]*domain.Tick
	orders    map[string]*domain.Order
	trades    map[string]*domain.Trade
	positions map[string]*domain.Position
	accounts  map[string]*domain.Account
	quotes    map[string]*domain.Quote
	contracts map[string]*domain.Contract

	activeOrders map[string]*domain.Order
	activeQuotes map[string]*domain.Quote
}

func NewOMS(bus *events.Engine) *OMS {
	oms := &OMS{
		ticks:        make(map[string]*domain.Tick),
		orders:       make(map[string]*domain.Order),
		trades:       make(map[string]*domain.Trade),
		positions:    make(map[string]*domain.Position),
		accounts:     make(map[string]*domain.Account),
		quotes:       make(map[string]*domain.Quote),
		contracts:    make(map[string]*domain.Contract),
		activeOrders: make(map[string]*domain.Order),
		activeQuotes: make(map[string]*domain.Quote),
	}
	bus.Register(events.TypeTick, oms.onTick)
	bus.Register(events.TypeOrder, oms.onOrder)
	bus.Register(events.TypeTrade, oms.onTrade)
	bus.Register(events.TypePosition, oms.onPosition)
	bus.Register(events.TypeAccount, oms.onAccount)
	bus.Register(events.TypeQuote, oms.onQuote)
	bus.Register(events.TypeContract, oms.onContract)
	return oms
}

func (o *OMS) onTick(ev events.Event) {
	tick, ok := ev.Data.(*domain.Tick)
	if !ok {
		return
	}
	o.mu.Lock()
	o.ticks[tick.Key()] = tick
	o.mu.Unlock()
}

func (o *OMS) onOrder(ev events.Event) {
	order, ok := ev.Data.(*domain.Order)
	if !ok {
		return
	}
	o.mu.Lock()
	o.orders[order.Key()] = order
	if order.IsActive() {
		o.activeOrders[order.Key()] = order
	} else {
		delete(o.activeOrders, order.Key())
	}
	o.mu.Unlock()
}

func (o *OMS) onTrade(ev events.Event) {
	trade, ok := ev.Data.(*domain.Trade)
	if !ok {
		return
	}
	o.mu.Lock()
	o.trades[trade.Key()] = trade
	o.mu.Unlock()
}

func (o *OMS) onPosition(ev events.Event) {
	position, ok := ev.Data.(*domain.Position)
	if !ok {
		return
	}
	o.mu.Lock()
	o.positions[position.Key()] = position
	o.mu.Unlock()
}

func (o *OMS) onAccount(ev events.Event) {
	account, ok := ev.Data.(*domain.Account)
	if !ok {
		return
	}
	o.mu.Lock()
	o.accounts[account.Key()] = account
	o.mu.Unlock()
}

func (o *OMS) onQuote(ev events.Event) {
	quote, ok := ev.Data.(*domain.Quote)
	if !ok {
		return
	}
	o.mu.Lock()
	o.quotes[quote.Key()] = quote
	if quote.IsActive() {
		o.activeQuotes[quote.Key()] = quote
	} else {
		delete(o.activeQuotes, quote.Key())
	}
	o.mu.Unlock()
}

func (o *OMS) onContract(ev events.Event) {
	contract, ok := ev.Data.(*domain.Contract)
	if !ok {
		return
	}
	o.mu.Lock()
	o.contracts[contract.Key()] = contract
	o.mu.Unlock()
}

func (o *OMS) GetTick(symbolID string) *domain.Tick {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ticks[symbolID]
}

func (o *OMS) GetOrder(key string) *domain.Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.orders[key]
}

func (o *OMS) GetContract(symbolID string) *domain.Contract {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.contracts[symbolID]
}

func (o *OMS) GetAllTicks() []*domain.Tick {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Tick, 0, len(o.ticks))
	for _, t := range o.ticks {
		out = append(out, t)
	}
	return out
}

func (o *OMS) GetAllOrders() []*domain.Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Order, 0, len(o.orders))
	for _, v := range o.orders {
		out = append(out, v)
	}
	return out
}

func (o *OMS) GetAllTrades() []*domain.Trade {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Trade, 0, len(o.trades))
	for _, v := range o.trades {
		out = append(out, v)
	}
	return out
}

func (o *OMS) GetAllPositions() []*domain.Position {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Position, 0, len(o.positions))
	for _, v := range o.positions {
		out = append(out, v)
	}
	return out
}

func (o *OMS) GetAllAccounts() []*domain.Account {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Account, 0, len(o.accounts))
	for _, v := range o.accounts {
		out = append(out, v)
	}
	return out
}

func (o *OMS) GetAllContracts() []*domain.Contract {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Contract, 0, len(o.contracts))
	for _, v := range o.contracts {
		out = append(out, v)
	}
	return out
}

// GetAllActiveOrders returns orders that can still trade, optionally
// filtered to one instrument.
func (o *OMS) GetAllActiveOrders(symbolID string) []*domain.Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Order, 0, len(o.activeOrders))
	for _, order := range o.activeOrders {
		if symbolID != "" && domain.SymbolID(order.Symbol, order.Exchange) != symbolID {
			continue
		}
		out = append(out, order)
	}
	return out
}

func (o *OMS) GetAllActiveQuotes() []*domain.Quote {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*domain.Quote, 0, len(o.activeQuotes))
	for _, v := range o.activeQuotes {
		out = append(out, v)
	}
	return out
}
