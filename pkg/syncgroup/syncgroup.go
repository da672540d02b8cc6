package syncgroup

import "sync"

// Group wraps sync.WaitGroup so Add and Done can never be mismatched.
type Group struct {
	wg sync.WaitGroup
}

// Go runs fn on a new goroutine tracked by the group.
func (g *Group) Go(fn func()) {
	if fn == nil {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

// Wait blocks until every tracked goroutine has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
