// Package shutdown runs registered teardown callbacks concurrently
// under one deadline, so a stuck gateway cannot hold the process open.
package shutdown

import (
	"context"
	"sync"

	"github.com/tradedesk/tradedesk/pkg/logger"
)

// Handler is one teardown step. It should honor ctx's deadline.
type Handler func(ctx context.Context)

// Manager collects teardown callbacks and runs them on demand.
type Manager struct {
	mu        sync.Mutex
	callbacks []Handler
	done      bool
}

func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown registers one callback. Registration order does not imply
// execution order; callbacks run concurrently.
func (m *Manager) OnShutdown(handler Handler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	m.callbacks = append(m.callbacks, handler)
	m.mu.Unlock()
}

// Shutdown runs every callback and blocks until all finish or ctx
// expires. Calling it again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	callbacks := m.callbacks
	m.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	logger.Infof("shutting down, %d callbacks", len(callbacks))

	var wg sync.WaitGroup
	wg.Add(len(callbacks))
	for _, cb := range callbacks {
		go func(handler Handler) {
			defer wg.Done()
			handler(ctx)
		}(cb)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		logger.Info("shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown deadline exceeded, exiting anyway")
	}
}
