// Package paper implements a simulated venue: it streams random-walk
// market data for a configurable set of instruments and fills limit
// orders when the price crosses them. Useful for exercising the console
// without real credentials.
package paper

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/internal/gateway"
	"github.com/tradedesk/tradedesk/pkg/sigchan"
	"github.com/tradedesk/tradedesk/pkg/syncgroup"
)

const gatewayName = "PAPER"

const priceDecimals = 2

type instrument struct {
	symbol string
	price  decimal.Decimal
	step   decimal.Decimal
}

// Gateway is the simulated trading venue.
type Gateway struct {
	gateway.Base

	mu          sync.Mutex
	instruments map[string]*instrument
	subscribed  map[string]bool
	orders      map[string]*domain.Order
	positions   map[string]*domain.Position
	account     *domain.Account

	interval time.Duration
	rng      *rand.Rand

	quit    *sigchan.Chan
	group   syncgroup.Group
	started bool
}

func New(bus *events.Engine) *Gateway {
	return &Gateway{
		Base:        gateway.NewBase(gatewayName, bus),
		instruments: make(map[string]*instrument),
		subscribed:  make(map[string]bool),
		orders:      make(map[string]*domain.Order),
		positions:   make(map[string]*domain.Position),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Gateway) DefaultSettings() []gateway.Field {
	return []gateway.Field{
		{Name: "Symbols", Default: "BTCUSDT,ETHUSDT"},
		{Name: "Balance", Default: "1000000"},
		{Name: "Interval (ms)", Default: "500"},
	}
}

// Connect seeds the instruments and account and starts the price loop.
func (g *Gateway) Connect(settings map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return errors.New("paper: already connected")
	}

	symbols := splitSymbols(settings["Symbols"])
	if len(symbols) == 0 {
		return errors.New("paper: no symbols configured")
	}

	balance := 1_000_000.0
	if raw := settings["Balance"]; raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.Wrap(err, "paper: balance")
		}
		balance = v
	}

	g.interval = 500 * time.Millisecond
	if raw := settings["Interval (ms)"]; raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return errors.Errorf("paper: bad interval %q", raw)
		}
		g.interval = time.Duration(ms) * time.Millisecond
	}

	for _, symbol := range symbols {
		start := decimal.NewFromFloat(100 + g.rng.Float64()*900).Round(priceDecimals)
		g.instruments[symbol] = &instrument{
			symbol: symbol,
			price:  start,
			step:   decimal.New(1, -priceDecimals),
		}
		g.OnContract(&domain.Contract{
			Symbol:    symbol,
			Exchange:  domain.ExchangePaper,
			Name:      symbol + " (paper)",
			Product:   domain.ProductSpot,
			Size:      1,
			PriceTick: 0.01,
			MinVolume: 0.001,
		})
	}

	g.account = &domain.Account{AccountID: "paper", Balance: balance}
	g.pushAccountLocked()

	g.quit = sigchan.New(1)
	g.started = true
	g.group.Go(g.run)

	g.WriteLog("paper gateway connected")
	return nil
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return nil
	}
	g.started = false
	g.quit.Emit()
	g.mu.Unlock()

	g.group.Wait()
	g.WriteLog("paper gateway closed")
	return nil
}

func (g *Gateway) Subscribe(req domain.SubscribeRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.instruments[req.Symbol]; !ok {
		return errors.Errorf("paper: unknown symbol %s", req.Symbol)
	}
	g.subscribed[req.Symbol] = true
	return nil
}

// SendOrder accepts the request, echoes it in Submitting state, then
// immediately promotes it: market orders fill at the current price,
// limit orders rest until a tick crosses them.
func (g *Gateway) SendOrder(req domain.OrderRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return "", errors.New("paper: not connected")
	}
	inst, ok := g.instruments[req.Symbol]
	if !ok {
		return "", errors.Errorf("paper: unknown symbol %s", req.Symbol)
	}
	if req.Volume <= 0 {
		return "", errors.New("paper: volume must be positive")
	}
	if req.Type == domain.OrderTypeLimit && req.Price <= 0 {
		return "", errors.New("paper: limit price must be positive")
	}

	order := &domain.Order{
		OrderID:   uuid.NewString(),
		Symbol:    req.Symbol,
		Exchange:  domain.ExchangePaper,
		Type:      req.Type,
		Direction: req.Direction,
		Offset:    req.Offset,
		Price:     req.Price,
		Volume:    req.Volume,
		Status:    domain.StatusSubmitting,
		Datetime:  time.Now(),
		Reference: req.Reference,
	}
	g.pushOrderLocked(order)

	if req.Type == domain.OrderTypeMarket {
		g.fillLocked(order, inst.price)
		return order.OrderID, nil
	}

	order.Status = domain.StatusNotTraded
	g.orders[order.OrderID] = order
	g.pushOrderLocked(order)
	g.pushAccountLocked()
	return order.OrderID, nil
}

func (g *Gateway) CancelOrder(req domain.CancelRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[req.OrderID]
	if !ok {
		return errors.Errorf("paper: order %s not active", req.OrderID)
	}
	delete(g.orders, req.OrderID)
	order.Status = domain.StatusCancelled
	g.pushOrderLocked(order)
	g.pushAccountLocked()
	return nil
}

func (g *Gateway) run() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.quit.C():
			return
		case <-ticker.C:
			g.step()
		}
	}
}

// step advances every instrument one random-walk tick, publishes market
// data for subscribed symbols and matches resting orders.
func (g *Gateway) step() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for _, inst := range g.instruments {
		drift := decimal.NewFromFloat((g.rng.Float64() - 0.5) * 2).Mul(inst.step).Mul(decimal.NewFromInt(10))
		inst.price = inst.price.Add(drift).Round(priceDecimals)
		if inst.price.LessThanOrEqual(decimal.Zero) {
			inst.price = inst.step
		}

		if g.subscribed[inst.symbol] {
			g.OnTick(g.buildTick(inst, now))
		}
		g.matchLocked(inst)
		g.refreshPnlLocked(inst)
	}
}

func (g *Gateway) buildTick(inst *instrument, now time.Time) *domain.Tick {
	last, _ := inst.price.Float64()
	tick := &domain.Tick{
		Symbol:    inst.symbol,
		Exchange:  domain.ExchangePaper,
		Name:      inst.symbol + " (paper)",
		Datetime:  now,
		LastPrice: last,
		Volume:    float64(g.rng.Intn(1000)),
		OpenPrice: last,
		HighPrice: last,
		LowPrice:  last,
		PreClose:  last,
	}
	for i := 0; i < 5; i++ {
		offset := inst.step.Mul(decimal.NewFromInt(int64(i + 1)))
		tick.BidPrice[i], _ = inst.price.Sub(offset).Float64()
		tick.AskPrice[i], _ = inst.price.Add(offset).Float64()
		tick.BidVolume[i] = float64(g.rng.Intn(100) + 1)
		tick.AskVolume[i] = float64(g.rng.Intn(100) + 1)
	}
	return tick
}

func (g *Gateway) matchLocked(inst *instrument) {
	price := inst.price
	for id, order := range g.orders {
		if order.Symbol != inst.symbol {
			continue
		}
		limit := decimal.NewFromFloat(order.Price)
		crossed := (order.Direction == domain.DirectionLong && price.LessThanOrEqual(limit)) ||
			(order.Direction == domain.DirectionShort && price.GreaterThanOrEqual(limit))
		if !crossed {
			continue
		}
		delete(g.orders, id)
		g.fillLocked(order, limit)
	}
}

// fillLocked fills the whole remaining volume at price and books the
// trade into the net position.
func (g *Gateway) fillLocked(order *domain.Order, price decimal.Decimal) {
	order.Traded = order.Volume
	order.Status = domain.StatusAllTraded
	order.Datetime = time.Now()
	g.pushOrderLocked(order)

	fill, _ := price.Float64()
	g.OnTrade(&domain.Trade{
		TradeID:   uuid.NewString(),
		OrderID:   order.OrderID,
		Symbol:    order.Symbol,
		Exchange:  domain.ExchangePaper,
		Direction: order.Direction,
		Offset:    order.Offset,
		Price:     fill,
		Volume:    order.Volume,
		Datetime:  order.Datetime,
	})

	g.bookPositionLocked(order, price)
	g.pushAccountLocked()
}

// bookPositionLocked applies a fill to the symbol's net position using a
// signed volume: long fills add, short fills subtract.
func (g *Gateway) bookPositionLocked(order *domain.Order, price decimal.Decimal) {
	key := domain.SymbolID(order.Symbol, domain.ExchangePaper)
	pos, ok := g.positions[key]
	if !ok {
		pos = &domain.Position{
			Symbol:    order.Symbol,
			Exchange:  domain.ExchangePaper,
			Direction: domain.DirectionNet,
		}
		g.positions[key] = pos
	}

	signed := decimal.NewFromFloat(order.Volume)
	if order.Direction == domain.DirectionShort {
		signed = signed.Neg()
	}

	old := decimal.NewFromFloat(pos.Volume)
	updated := old.Add(signed)

	switch {
	case updated.IsZero():
		pos.Price = 0
	case old.IsZero() || old.Sign() != updated.Sign():
		// Opened or flipped: the fill price is the new cost basis.
		pos.Price, _ = price.Float64()
	case signed.Sign() == old.Sign():
		// Same side adds: volume-weighted average price.
		cost := decimal.NewFromFloat(pos.Price).Mul(old.Abs()).Add(price.Mul(signed.Abs()))
		avg := cost.Div(updated.Abs())
		pos.Price, _ = avg.Round(priceDecimals + 2).Float64()
	}

	pos.Volume, _ = updated.Float64()
	g.OnPosition(pos.Clone())
}

func (g *Gateway) refreshPnlLocked(inst *instrument) {
	key := domain.SymbolID(inst.symbol, domain.ExchangePaper)
	pos, ok := g.positions[key]
	if !ok || pos.Volume == 0 {
		return
	}
	last, _ := inst.price.Float64()
	pos.PnL = (last - pos.Price) * pos.Volume
	g.OnPosition(pos.Clone())
}

// pushAccountLocked recomputes frozen funds from resting buy orders and
// publishes the account snapshot.
func (g *Gateway) pushAccountLocked() {
	if g.account == nil {
		return
	}
	frozen := decimal.Zero
	for _, order := range g.orders {
		if order.Direction == domain.DirectionLong {
			frozen = frozen.Add(decimal.NewFromFloat(order.Price).Mul(decimal.NewFromFloat(order.Volume - order.Traded)))
		}
	}
	g.account.Frozen, _ = frozen.Float64()
	snapshot := *g.account
	g.OnAccount(&snapshot)
}

func (g *Gateway) pushOrderLocked(order *domain.Order) {
	snapshot := *order
	g.OnOrder(&snapshot)
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.ToUpper(strings.TrimSpace(part)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
