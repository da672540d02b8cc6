package events

import (
	"sync"
	"time"

	"github.com/tradedesk/tradedesk/pkg/logger"
)

// Type tags an event with the kind of record it carries.
type Type string

const (
	TypeTick     Type = "tick"
	TypeOrder    Type = "order"
	TypeTrade    Type = "trade"
	TypePosition Type = "position"
	TypeAccount  Type = "account"
	TypeQuote    Type = "quote"
	TypeContract Type = "contract"
	TypeLog      Type = "log"
	TypeTimer    Type = "timer"
)

// Event is one update delivered to registered handlers.
type Event struct {
	Type Type
	Data any
}

// Handler consumes one event. Handlers run on the dispatch goroutine,
// so a handler must not block.
type Handler func(Event)

// Engine is a channel-based pub/sub dispatcher. A single goroutine drains
// the queue and invokes handlers in registration order, which keeps every
// consumer single-threaded with respect to event delivery.
type Engine struct {
	queue    chan Event
	interval time.Duration

	mu       sync.RWMutex
	handlers map[Type][]Handler
	general  []Handler

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates an engine with the given timer interval. A zero interval
// disables the timer event.
func New(interval time.Duration) *Engine {
	return &Engine{
		queue:    make(chan Event, 1024),
		interval: interval,
		handlers: make(map[Type][]Handler),
		stop:     make(chan struct{}),
	}
}

// Register adds a handler for one event type.
func (e *Engine) Register(t Type, h Handler) {
	if h == nil {
		return
	}
	e.mu.Lock()
	e.handlers[t] = append(e.handlers[t], h)
	e.mu.Unlock()
}

// RegisterGeneral adds a handler invoked for every event regardless of type.
func (e *Engine) RegisterGeneral(h Handler) {
	if h == nil {
		return
	}
	e.mu.Lock()
	e.general = append(e.general, h)
	e.mu.Unlock()
}

// Put enqueues an event. It never blocks the producer: when the queue is
// full the event is dropped, matching the non-blocking emit of sigchan.
func (e *Engine) Put(ev Event) {
	select {
	case e.queue <- ev:
	default:
		logger.Debugf("events: queue full, dropped %s event", ev.Type)
	}
}

// Start launches the dispatch goroutine and, if configured, the timer.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.run()

	if e.interval > 0 {
		e.wg.Add(1)
		go e.runTimer()
	}
}

// Stop shuts down dispatch, waits for in-flight handlers to return, then
// delivers whatever is still queued so producers stopped just before (the
// gateways during engine close) do not lose their final events. Safe to
// call more than once.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stop) })
	e.wg.Wait()

	for {
		select {
		case ev := <-e.queue:
			e.process(ev)
		default:
			return
		}
	}
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case ev := <-e.queue:
			e.process(ev)
		}
	}
}

func (e *Engine) runTimer() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case t := <-ticker.C:
			e.Put(Event{Type: TypeTimer, Data: t})
		}
	}
}

func (e *Engine) process(ev Event) {
	e.mu.RLock()
	specific := e.handlers[ev.Type]
	general := e.general
	e.mu.RUnlock()

	for _, h := range specific {
		h(ev)
	}
	for _, h := range general {
		h(ev)
	}
}
