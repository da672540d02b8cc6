package events

import (
	"sync"
	"testing"
	"time"
)

func TestRegisterAndDispatch(t *testing.T) {
	e := New(0)
	e.Start()
	defer e.Stop()

	var mu sync.Mutex
	var got []string

	e.Register(TypeTick, func(ev Event) {
		mu.Lock()
		got = append(got, ev.Data.(string))
		mu.Unlock()
	})
	e.Register(TypeOrder, func(ev Event) {
		t.Errorf("order handler must not fire for tick events")
	})

	e.Put(Event{Type: TypeTick, Data: "a"})
	e.Put(Event{Type: TypeTick, Data: "b"})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 2 events, got %d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if got[0] != "a" || got[1] != "b" {
		t.Fatalf("events delivered out of order: %v", got)
	}
}

func TestGeneralHandlerSeesAllTypes(t *testing.T) {
	e := New(0)
	e.Start()
	defer e.Stop()

	var mu sync.Mutex
	seen := map[Type]int{}
	e.RegisterGeneral(func(ev Event) {
		mu.Lock()
		seen[ev.Type]++
		mu.Unlock()
	})

	e.Put(Event{Type: TypeTick})
	e.Put(Event{Type: TypeLog})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := seen[TypeTick] + seen[TypeLog]
		mu.Unlock()
		if n == 2 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("general handler saw %d of 2 events", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStopDeliversQueuedEvents(t *testing.T) {
	e := New(0)

	var mu sync.Mutex
	var got []string
	e.Register(TypeOrder, func(ev Event) {
		mu.Lock()
		got = append(got, ev.Data.(string))
		mu.Unlock()
	})

	// Never started: everything sits in the queue until Stop drains it.
	e.Put(Event{Type: TypeOrder, Data: "filled"})
	e.Put(Event{Type: TypeOrder, Data: "cancelled"})
	e.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "filled" || got[1] != "cancelled" {
		t.Fatalf("queued events lost on stop: %v", got)
	}
}

func TestTimerEvent(t *testing.T) {
	e := New(10 * time.Millisecond)
	e.Start()
	defer e.Stop()

	fired := make(chan struct{}, 1)
	e.Register(TypeTimer, func(ev Event) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer event never fired")
	}
}
