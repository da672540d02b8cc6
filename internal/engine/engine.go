// Package engine wires gateways, the event bus and the order cache into
// one facade the UI talks to. Nothing above this package ever holds a
// gateway reference directly.
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/internal/gateway"
	"github.com/tradedesk/tradedesk/pkg/logger"
	"github.com/tradedesk/tradedesk/pkg/secretstore"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

// MainEngine routes requests to the right gateway and serves cached
// state through the OMS.
type MainEngine struct {
	bus      *events.Engine
	oms      *OMS
	settings settings.Service
	secrets  *secretstore.Store

	mu       sync.RWMutex
	gateways map[string]gateway.Gateway
}

// New builds the engine on an already-constructed event bus. The
// settings service persists connect forms; the secret store, which may
// be nil, holds the masked fields.
func New(bus *events.Engine, svc settings.Service, secrets *secretstore.Store) *MainEngine {
	return &MainEngine{
		bus:      bus,
		oms:      NewOMS(bus),
		settings: svc,
		secrets:  secrets,
		gateways: make(map[string]gateway.Gateway),
	}
}

func (e *MainEngine) OMS() *OMS { return e.oms }

func (e *MainEngine) Bus() *events.Engine { return e.bus }

// AddGateway registers a gateway under its own name.
func (e *MainEngine) AddGateway(gw gateway.Gateway) {
	e.mu.Lock()
	e.gateways[gw.Name()] = gw
	e.mu.Unlock()
}

func (e *MainEngine) GetGateway(name string) gateway.Gateway {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gateways[name]
}

// GatewayNames lists registered gateways in stable order.
func (e *MainEngine) GatewayNames() []string {
	e.mu.RLock()
	names := make([]string, 0, len(e.gateways))
	for name := range e.gateways {
		names = append(names, name)
	}
	e.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Connect starts a gateway with the given form values and persists the
// form for next time: plain fields to the settings file, secret fields
// to the credential store.
func (e *MainEngine) Connect(name string, form map[string]string) error {
	gw := e.GetGateway(name)
	if gw == nil {
		return errors.Errorf("engine: unknown gateway %s", name)
	}

	plain := make(map[string]string)
	secret := make(map[string]string)
	for _, field := range gw.DefaultSettings() {
		value, ok := form[field.Name]
		if !ok {
			continue
		}
		if field.Secret {
			secret[field.Name] = value
		} else {
			plain[field.Name] = value
		}
	}

	if e.settings != nil {
		store := e.settings.NewStore("connect", name, "setting")
		if err := store.Save(plain); err != nil {
			logger.Warnf("engine: save connect settings for %s: %v", name, err)
		}
	}
	if e.secrets != nil {
		if err := e.secrets.SaveFields(name, secret); err != nil {
			logger.Warnf("engine: save credentials for %s: %v", name, err)
		}
	}

	if err := gw.Connect(form); err != nil {
		e.WriteLog("connect "+name+" failed: "+err.Error(), name)
		return err
	}
	return nil
}

// LoadConnectForm returns the last saved form values for a gateway,
// layered over its defaults. Secret values come back filled so a saved
// key does not have to be retyped.
func (e *MainEngine) LoadConnectForm(name string) map[string]string {
	gw := e.GetGateway(name)
	if gw == nil {
		return nil
	}

	form := make(map[string]string)
	var secretNames []string
	for _, field := range gw.DefaultSettings() {
		form[field.Name] = field.Default
		if field.Secret {
			secretNames = append(secretNames, field.Name)
		}
	}

	if e.settings != nil {
		stored := make(map[string]string)
		store := e.settings.NewStore("connect", name, "setting")
		if err := store.Load(&stored); err == nil {
			for k, v := range stored {
				form[k] = v
			}
		}
	}
	if e.secrets != nil && len(secretNames) > 0 {
		stored, err := e.secrets.LoadFields(name, secretNames)
		if err != nil {
			logger.Warnf("engine: load credentials for %s: %v", name, err)
		}
		for k, v := range stored {
			form[k] = v
		}
	}
	return form
}

// Subscribe routes a market-data subscription to its gateway.
func (e *MainEngine) Subscribe(req domain.SubscribeRequest, gatewayName string) error {
	gw := e.GetGateway(gatewayName)
	if gw == nil {
		return errors.Errorf("engine: unknown gateway %s", gatewayName)
	}
	return gw.Subscribe(req)
}

// SendOrder submits an order and returns its engine-wide key.
func (e *MainEngine) SendOrder(req domain.OrderRequest, gatewayName string) (string, error) {
	gw := e.GetGateway(gatewayName)
	if gw == nil {
		return "", errors.Errorf("engine: unknown gateway %s", gatewayName)
	}
	orderID, err := gw.SendOrder(req)
	if err != nil {
		e.WriteLog("order rejected: "+err.Error(), gatewayName)
		return "", err
	}
	return gatewayName + "." + orderID, nil
}

func (e *MainEngine) CancelOrder(req domain.CancelRequest, gatewayName string) error {
	gw := e.GetGateway(gatewayName)
	if gw == nil {
		return errors.Errorf("engine: unknown gateway %s", gatewayName)
	}
	return gw.CancelOrder(req)
}

// CancelAll cancels every active order, optionally scoped to one
// instrument. Failures are logged and do not stop the sweep.
func (e *MainEngine) CancelAll(symbolID string) {
	for _, order := range e.oms.GetAllActiveOrders(symbolID) {
		req := order.CancelRequest()
		if err := e.CancelOrder(req, order.GatewayName); err != nil {
			logger.Warnf("engine: cancel %s: %v", order.Key(), err)
		}
	}
}

// WriteLog publishes one line to the log monitor.
func (e *MainEngine) WriteLog(msg, gatewayName string) {
	e.bus.Put(events.Event{Type: events.TypeLog, Data: &domain.LogEntry{
		Time:        time.Now(),
		Msg:         msg,
		Level:       "info",
		GatewayName: gatewayName,
	}})
}

// Close shuts down every gateway, then the event bus and the secret
// store. Gateways first so their final events still get dispatched.
func (e *MainEngine) Close() {
	e.mu.RLock()
	gws := make([]gateway.Gateway, 0, len(e.gateways))
	for _, gw := range e.gateways {
		gws = append(gws, gw)
	}
	e.mu.RUnlock()

	for _, gw := range gws {
		if err := gw.Close(); err != nil {
			logger.Warnf("engine: close %s: %v", gw.Name(), err)
		}
	}
	e.bus.Stop()
	if e.secrets != nil {
		if err := e.secrets.Close(); err != nil {
			logger.Warnf("engine: close secret store: %v", err)
		}
	}
}
