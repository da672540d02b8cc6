package sigchan

// Chan is a non-blocking signal channel: it notifies that something
// happened without carrying data. Emitting on a full channel is a no-op,
// so producers never stall on a slow consumer.
type Chan struct {
	c chan struct{}
}

func New(bufferSize int) *Chan {
	return &Chan{c: make(chan struct{}, bufferSize)}
}

// Emit sends a signal without blocking. Dropped when the buffer is full.
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}

// C exposes the channel for select loops.
func (c *Chan) C() <-chan struct{} {
	return c.c
}
