package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/engine"
	"github.com/tradedesk/tradedesk/internal/monitor"
)

// Form field indexes, top to bottom.
const (
	fieldGateway = iota
	fieldExchange
	fieldSymbol
	fieldDirection
	fieldOffset
	fieldType
	fieldPrice
	fieldVolume
	fieldCount
)

var (
	directions = []domain.Direction{domain.DirectionLong, domain.DirectionShort}
	offsets    = []domain.Offset{domain.OffsetNone, domain.OffsetOpen, domain.OffsetClose}
	orderTypes = []domain.OrderType{domain.OrderTypeLimit, domain.OrderTypeMarket, domain.OrderTypeFAK, domain.OrderTypeFOK}
)

// tradingPanel is the order entry form plus the five-level depth view
// for the instrument typed into it.
type tradingPanel struct {
	engine *engine.MainEngine

	focus     int
	gatewayIx int
	exchange  int
	direction int
	offset    int
	orderType int

	symbol string
	price  string
	volume string

	contractName string
	tick         *domain.Tick

	status string
	isErr  bool
}

func newTradingPanel(e *engine.MainEngine) *tradingPanel {
	return &tradingPanel{engine: e}
}

// setTick feeds a market data update; only the instrument currently on
// the form is kept.
func (p *tradingPanel) setTick(tick *domain.Tick) {
	if tick.Symbol == strings.ToUpper(strings.TrimSpace(p.symbol)) &&
		tick.Exchange == domain.AllExchanges[p.exchange] {
		p.tick = tick
	}
}

func (p *tradingPanel) info(msg string) { p.status, p.isErr = msg, false }

func (p *tradingPanel) fail(msg string) { p.status, p.isErr = msg, true }

func (p *tradingPanel) clearStatus() { p.status, p.isErr = "", false }

// handleKey processes one keypress while the trading tab is focused.
func (p *tradingPanel) handleKey(key string) {
	switch key {
	case "up":
		p.focus--
		if p.focus < 0 {
			p.focus = fieldCount - 1
		}
	case "down":
		p.focus = (p.focus + 1) % fieldCount
	case "left":
		p.cycle(-1)
	case "right":
		p.cycle(1)
	case "backspace":
		p.edit(func(s string) string {
			if len(s) == 0 {
				return s
			}
			return s[:len(s)-1]
		})
	case "enter":
		if p.focus == fieldSymbol {
			p.lookupAndSubscribe()
		} else {
			p.submit()
		}
	default:
		if len(key) == 1 {
			p.edit(func(s string) string { return s + key })
		}
	}
}

func (p *tradingPanel) cycle(delta int) {
	names := p.engine.GatewayNames()
	switch p.focus {
	case fieldGateway:
		if len(names) > 0 {
			p.gatewayIx = wrap(p.gatewayIx+delta, len(names))
		}
	case fieldExchange:
		p.exchange = wrap(p.exchange+delta, len(domain.AllExchanges))
		p.tick = nil
	case fieldDirection:
		p.direction = wrap(p.direction+delta, len(directions))
	case fieldOffset:
		p.offset = wrap(p.offset+delta, len(offsets))
	case fieldType:
		p.orderType = wrap(p.orderType+delta, len(orderTypes))
	}
}

func (p *tradingPanel) edit(apply func(string) string) {
	switch p.focus {
	case fieldSymbol:
		p.symbol = apply(p.symbol)
		p.contractName = ""
		p.tick = nil
	case fieldPrice:
		p.price = apply(p.price)
	case fieldVolume:
		p.volume = apply(p.volume)
	}
}

func (p *tradingPanel) currentGateway() string {
	names := p.engine.GatewayNames()
	if len(names) == 0 {
		return ""
	}
	if p.gatewayIx >= len(names) {
		p.gatewayIx = 0
	}
	return names[p.gatewayIx]
}

// lookupAndSubscribe resolves the typed symbol against the contract
// cache and starts market data for it.
func (p *tradingPanel) lookupAndSubscribe() {
	symbol := strings.ToUpper(strings.TrimSpace(p.symbol))
	if symbol == "" {
		p.fail("please input a symbol")
		return
	}
	p.symbol = symbol
	exchange := domain.AllExchanges[p.exchange]

	contract := p.engine.OMS().GetContract(domain.SymbolID(symbol, exchange))
	if contract == nil {
		p.contractName = ""
		p.fail("contract not found: " + domain.SymbolID(symbol, exchange))
		return
	}
	p.contractName = contract.Name

	err := p.engine.Subscribe(domain.SubscribeRequest{Symbol: symbol, Exchange: exchange}, contract.GatewayName)
	if err != nil {
		p.fail("subscribe failed: " + err.Error())
		return
	}
	p.info("subscribed " + domain.SymbolID(symbol, exchange))
}

// submit validates the form and sends the order. Validation failures
// surface as messages on the panel, never as dropped input.
func (p *tradingPanel) submit() {
	symbol := strings.ToUpper(strings.TrimSpace(p.symbol))
	if symbol == "" {
		p.fail("please input a symbol")
		return
	}

	volume, err := strconv.ParseFloat(strings.TrimSpace(p.volume), 64)
	if err != nil || volume <= 0 {
		p.fail("please input a valid volume")
		return
	}

	price := 0.0
	if orderTypes[p.orderType] != domain.OrderTypeMarket {
		price, err = strconv.ParseFloat(strings.TrimSpace(p.price), 64)
		if err != nil || price <= 0 {
			p.fail("please input a valid price")
			return
		}
	}

	gatewayName := p.currentGateway()
	if gatewayName == "" {
		p.fail("no gateway available")
		return
	}

	req := domain.OrderRequest{
		Symbol:    symbol,
		Exchange:  domain.AllExchanges[p.exchange],
		Direction: directions[p.direction],
		Type:      orderTypes[p.orderType],
		Volume:    volume,
		Price:     price,
		Offset:    offsets[p.offset],
		Reference: "manual",
	}
	key, err := p.engine.SendOrder(req, gatewayName)
	if err != nil {
		p.fail("order rejected: " + err.Error())
		return
	}
	p.info("order sent: " + key)
}

// fillFrom loads form fields from a monitor row. Ticks carry just the
// instrument; orders restore their full parameters; positions flip the
// direction so the next order closes them.
func (p *tradingPanel) fillFrom(row *monitor.Row) {
	if row == nil {
		return
	}
	switch rec := row.Record.(type) {
	case *domain.Tick:
		p.symbol = rec.Symbol
		p.setExchange(rec.Exchange)
		p.contractName = rec.Name
		p.lookupAndSubscribe()
	case *domain.Order:
		p.symbol = rec.Symbol
		p.setExchange(rec.Exchange)
		p.price = trimFloat(rec.Price)
		p.volume = trimFloat(rec.Volume)
		p.setDirection(rec.Direction)
	case *domain.Position:
		p.symbol = rec.Symbol
		p.setExchange(rec.Exchange)
		p.volume = trimFloat(absFloat(rec.Volume))
		if rec.Volume >= 0 {
			p.setDirection(domain.DirectionShort)
		} else {
			p.setDirection(domain.DirectionLong)
		}
		p.offset = indexOfOffset(domain.OffsetClose)
	case *domain.Contract:
		p.symbol = rec.Symbol
		p.setExchange(rec.Exchange)
		p.contractName = rec.Name
	}
}

func (p *tradingPanel) setExchange(ex domain.Exchange) {
	for i, e := range domain.AllExchanges {
		if e == ex {
			p.exchange = i
			return
		}
	}
}

func (p *tradingPanel) setDirection(d domain.Direction) {
	for i, v := range directions {
		if v == d {
			p.direction = i
			return
		}
	}
}

func indexOfOffset(o domain.Offset) int {
	for i, v := range offsets {
		if v == o {
			return i
		}
	}
	return 0
}

func (p *tradingPanel) view(width int) string {
	form := p.renderForm()
	depth := p.renderDepth()

	formWidth := 34
	depthWidth := width - formWidth - 6
	if depthWidth < 30 {
		depthWidth = 30
	}

	left := panelStyle.Width(formWidth).Render(form)
	right := panelStyle.Width(depthWidth).Render(depth)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	if p.status == "" {
		return body
	}
	line := p.status
	if p.isErr {
		line = errorStyle.Render(line)
	} else {
		line = statusStyle.Render(line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, line)
}

func (p *tradingPanel) renderForm() string {
	names := p.engine.GatewayNames()
	gatewayName := "(none)"
	if len(names) > 0 {
		gatewayName = names[wrap(p.gatewayIx, len(names))]
	}

	rows := []struct {
		label string
		value string
	}{
		{"Gateway", gatewayName},
		{"Exchange", string(domain.AllExchanges[p.exchange])},
		{"Symbol", p.symbol},
		{"Direction", string(directions[p.direction])},
		{"Offset", offsetLabel(offsets[p.offset])},
		{"Type", string(orderTypes[p.orderType])},
		{"Price", p.price},
		{"Volume", p.volume},
	}

	var b strings.Builder
	for i, row := range rows {
		label := pad(row.label, 10)
		if i == p.focus {
			b.WriteString(focusedLabelStyle.Render("> " + label))
		} else {
			b.WriteString(labelStyle.Render("  " + label))
		}
		b.WriteString(row.value)
		b.WriteString("\n")
	}
	if p.contractName != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("  " + p.contractName))
	}
	return b.String()
}

// renderDepth shows the five ask levels above the last price and the
// five bid levels below it, best levels adjacent to the middle.
func (p *tradingPanel) renderDepth() string {
	if p.tick == nil {
		return labelStyle.Render("no market data\n\npress enter on the symbol\nfield to subscribe")
	}
	t := p.tick

	var b strings.Builder
	askStyle := lipgloss.NewStyle().Foreground(monitor.ColorAsk)
	bidStyle := lipgloss.NewStyle().Foreground(monitor.ColorBid)

	for i := 4; i >= 0; i-- {
		if t.AskPrice[i] == 0 && i > 0 {
			continue
		}
		line := fmt.Sprintf("ask%d  %12s  %10s", i+1, trimFloat(t.AskPrice[i]), trimFloat(t.AskVolume[i]))
		b.WriteString(askStyle.Render(line))
		b.WriteString("\n")
	}

	change := ""
	if t.PreClose > 0 {
		pct := (t.LastPrice/t.PreClose - 1) * 100
		change = fmt.Sprintf("  %+.2f%%", pct)
	}
	b.WriteString(fmt.Sprintf("last  %12s%s\n", trimFloat(t.LastPrice), change))

	for i := 0; i < 5; i++ {
		if t.BidPrice[i] == 0 && i > 0 {
			continue
		}
		line := fmt.Sprintf("bid%d  %12s  %10s", i+1, trimFloat(t.BidPrice[i]), trimFloat(t.BidVolume[i]))
		b.WriteString(bidStyle.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func offsetLabel(o domain.Offset) string {
	if o == domain.OffsetNone {
		return "(none)"
	}
	return string(o)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
