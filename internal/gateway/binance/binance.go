// Package binance implements a market-data gateway for Binance spot.
// It pulls the instrument list over REST and streams tickers plus
// five-level depth over the combined WebSocket endpoint. Order entry is
// not supported; the gateway exists to feed real prices into the console.
package binance

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/internal/gateway"
	"github.com/tradedesk/tradedesk/pkg/logger"
	"github.com/tradedesk/tradedesk/pkg/syncgroup"
)

const (
	gatewayName = "BINANCE"

	restBaseURL  = "https://api.binance.com"
	streamURL    = "wss://stream.binance.com:9443/stream"
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	readTimeout  = 90 * time.Second

	reconnectDelay = 5 * time.Second
	maxReconnect   = 10
)

// Gateway streams Binance spot market data into the event engine.
type Gateway struct {
	gateway.Base

	rest  *resty.Client
	proxy string

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	subscribed map[string]bool
	ticks      map[string]*domain.Tick
	names      map[string]string
	nextID     int
	reconnects int

	stop  chan struct{}
	group syncgroup.Group
}

func New(bus *events.Engine) *Gateway {
	return &Gateway{
		Base:       gateway.NewBase(gatewayName, bus),
		subscribed: make(map[string]bool),
		ticks:      make(map[string]*domain.Tick),
		names:      make(map[string]string),
	}
}

func (g *Gateway) DefaultSettings() []gateway.Field {
	return []gateway.Field{
		{Name: "API Key", Secret: true},
		{Name: "API Secret", Secret: true},
		{Name: "Proxy"},
	}
}

// Connect loads the contract list over REST and opens the market stream.
// The API key is optional: market data needs no authentication, the key
// only raises the REST rate limit.
func (g *Gateway) Connect(settings map[string]string) error {
	g.mu.Lock()
	if g.connected {
		g.mu.Unlock()
		return errors.New("binance: already connected")
	}
	g.proxy = settings["Proxy"]
	g.mu.Unlock()

	g.rest = resty.New().
		SetBaseURL(restBaseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2)
	if g.proxy != "" {
		g.rest.SetProxy(g.proxy)
	}
	if key := settings["API Key"]; key != "" {
		g.rest.SetHeader("X-MBX-APIKEY", key)
	}

	if err := g.loadContracts(); err != nil {
		return err
	}

	if err := g.dial(); err != nil {
		return err
	}

	g.mu.Lock()
	g.stop = make(chan struct{})
	g.mu.Unlock()
	g.group.Go(g.readLoop)
	g.group.Go(g.pingLoop)

	g.WriteLog("binance gateway connected")
	return nil
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	if !g.connected && g.stop == nil {
		g.mu.Unlock()
		return nil
	}
	g.connected = false
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
	conn := g.conn
	g.conn = nil
	g.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	g.group.Wait()
	g.WriteLog("binance gateway closed")
	return nil
}

// Subscribe starts the ticker and depth streams for one symbol.
func (g *Gateway) Subscribe(req domain.SubscribeRequest) error {
	symbol := strings.ToUpper(req.Symbol)

	g.mu.Lock()
	if !g.connected {
		g.mu.Unlock()
		return errors.New("binance: not connected")
	}
	if g.subscribed[symbol] {
		g.mu.Unlock()
		return nil
	}
	g.subscribed[symbol] = true
	g.mu.Unlock()

	return g.sendSubscribe([]string{symbol})
}

// SendOrder always fails: this gateway carries market data only.
func (g *Gateway) SendOrder(domain.OrderRequest) (string, error) {
	return "", errors.New("binance: order entry not supported")
}

func (g *Gateway) CancelOrder(domain.CancelRequest) error {
	return errors.New("binance: order entry not supported")
}

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
		Filters    []struct {
			FilterType string `json:"filterType"`
			TickSize   string `json:"tickSize"`
			MinQty     string `json:"minQty"`
		} `json:"filters"`
	} `json:"symbols"`
}

func (g *Gateway) loadContracts() error {
	var info exchangeInfo
	resp, err := g.rest.R().SetResult(&info).Get("/api/v3/exchangeInfo")
	if err != nil {
		return errors.Wrap(err, "binance: exchange info")
	}
	if resp.IsError() {
		return errors.Errorf("binance: exchange info status %s", resp.Status())
	}

	count := 0
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		contract := &domain.Contract{
			Symbol:    s.Symbol,
			Exchange:  domain.ExchangeBinance,
			Name:      s.BaseAsset + "/" + s.QuoteAsset,
			Product:   domain.ProductSpot,
			Size:      1,
			PriceTick: 0.00000001,
			MinVolume: 0,
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "PRICE_FILTER":
				if v, err := strconv.ParseFloat(f.TickSize, 64); err == nil && v > 0 {
					contract.PriceTick = v
				}
			case "LOT_SIZE":
				if v, err := strconv.ParseFloat(f.MinQty, 64); err == nil {
					contract.MinVolume = v
				}
			}
		}
		g.mu.Lock()
		g.names[s.Symbol] = contract.Name
		g.mu.Unlock()
		g.OnContract(contract)
		count++
	}
	logger.Infof("binance: loaded %d contracts", count)
	return nil
}

func (g *Gateway) dial() error {
	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	if g.proxy != "" {
		proxyURL, err := url.Parse(g.proxy)
		if err != nil {
			return errors.Wrap(err, "binance: proxy url")
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	conn, _, err := dialer.Dial(streamURL, nil)
	if err != nil {
		return errors.Wrap(err, "binance: dial stream")
	}

	g.mu.Lock()
	g.conn = conn
	g.connected = true
	g.reconnects = 0
	g.mu.Unlock()
	return nil
}

type streamRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

func (g *Gateway) sendSubscribe(symbols []string) error {
	params := make([]string, 0, len(symbols)*2)
	for _, symbol := range symbols {
		lower := strings.ToLower(symbol)
		params = append(params, lower+"@ticker", lower+"@depth5@100ms")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return errors.New("binance: not connected")
	}
	g.nextID++
	_ = g.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return g.conn.WriteJSON(streamRequest{Method: "SUBSCRIBE", Params: params, ID: g.nextID})
}

type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

func (g *Gateway) readLoop() {
	for {
		g.mu.Lock()
		conn := g.conn
		stop := g.stop
		g.mu.Unlock()
		if conn == nil || stop == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("binance: stream read: %v", err)
			}
			if !g.redial(stop) {
				return
			}
			continue
		}

		var env streamEnvelope
		if err := json.Unmarshal(data, &env); err != nil || env.Stream == "" {
			continue // subscription acks and heartbeats
		}
		g.handleStream(env.Stream, env.Data)
	}
}

// redial reconnects with a fixed delay and resubscribes everything the
// user had active. Returns false when the gateway is closing or the
// attempt budget is spent.
func (g *Gateway) redial(stop chan struct{}) bool {
	g.mu.Lock()
	g.connected = false
	if g.conn != nil {
		_ = g.conn.Close()
		g.conn = nil
	}
	g.reconnects++
	attempt := g.reconnects
	g.mu.Unlock()

	if attempt > maxReconnect {
		g.WriteLog("binance: reconnect attempts exhausted")
		return false
	}
	g.WriteLog("binance: stream lost, reconnecting " + strconv.Itoa(attempt) + "/" + strconv.Itoa(maxReconnect))

	select {
	case <-stop:
		return false
	case <-time.After(reconnectDelay):
	}

	if err := g.dial(); err != nil {
		logger.Warnf("binance: reconnect: %v", err)
		return g.redial(stop)
	}

	g.mu.Lock()
	symbols := make([]string, 0, len(g.subscribed))
	for symbol := range g.subscribed {
		symbols = append(symbols, symbol)
	}
	g.mu.Unlock()

	if len(symbols) > 0 {
		if err := g.sendSubscribe(symbols); err != nil {
			logger.Warnf("binance: resubscribe: %v", err)
		}
	}
	g.WriteLog("binance: stream reconnected")
	return true
}

func (g *Gateway) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		g.mu.Lock()
		stop := g.stop
		g.mu.Unlock()
		if stop == nil {
			return
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.mu.Lock()
			conn := g.conn
			g.mu.Unlock()
			if conn == nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PongMessage, nil); err != nil {
				logger.Debugf("binance: keepalive: %v", err)
			}
		}
	}
}

type tickerPayload struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	PrevClose string `json:"x"`
	EventTime int64  `json:"E"`
}

type depthPayload struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// handleStream folds ticker and depth updates for one symbol into a
// single tick snapshot and publishes it.
func (g *Gateway) handleStream(stream string, data json.RawMessage) {
	name, _, ok := strings.Cut(stream, "@")
	if !ok {
		return
	}
	symbol := strings.ToUpper(name)

	g.mu.Lock()
	tick, exists := g.ticks[symbol]
	if !exists {
		tick = &domain.Tick{
			Symbol:   symbol,
			Exchange: domain.ExchangeBinance,
			Name:     g.names[symbol],
		}
		g.ticks[symbol] = tick
	}
	g.mu.Unlock()

	switch {
	case strings.Contains(stream, "@ticker"):
		var p tickerPayload
		if err := json.Unmarshal(data, &p); err != nil {
			logger.Debugf("binance: ticker payload: %v", err)
			return
		}
		tick.LastPrice = parseFloat(p.LastPrice)
		tick.OpenPrice = parseFloat(p.Open)
		tick.HighPrice = parseFloat(p.High)
		tick.LowPrice = parseFloat(p.Low)
		tick.Volume = parseFloat(p.Volume)
		tick.PreClose = parseFloat(p.PrevClose)
		tick.Datetime = time.UnixMilli(p.EventTime)

	case strings.Contains(stream, "@depth"):
		var p depthPayload
		if err := json.Unmarshal(data, &p); err != nil {
			logger.Debugf("binance: depth payload: %v", err)
			return
		}
		for i := 0; i < 5 && i < len(p.Bids); i++ {
			if len(p.Bids[i]) < 2 {
				continue
			}
			tick.BidPrice[i] = parseFloat(p.Bids[i][0])
			tick.BidVolume[i] = parseFloat(p.Bids[i][1])
		}
		for i := 0; i < 5 && i < len(p.Asks); i++ {
			if len(p.Asks[i]) < 2 {
				continue
			}
			tick.AskPrice[i] = parseFloat(p.Asks[i][0])
			tick.AskVolume[i] = parseFloat(p.Asks[i][1])
		}
		tick.Datetime = time.Now()
	}

	snapshot := *tick
	g.OnTick(&snapshot)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
