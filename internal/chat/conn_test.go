package chat

import "sync"

// fakeConn records every event delivered to it. A capacity > 0 makes it
// refuse events once that many are queued, like a full send buffer.
type fakeConn struct {
	id       string
	capacity int

	mu     sync.Mutex
	events []Event
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Deliver(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if c.capacity > 0 && len(c.events) >= c.capacity {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *fakeConn) named(name EventName) []Event {
	var out []Event
	for _, ev := range c.all() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeConn) lastCount() int {
	counts := c.named(EventUsersCount)
	if len(counts) == 0 {
		return -1
	}
	return counts[len(counts)-1].Payload.(int)
}

func (c *fakeConn) received() []Message {
	var out []Message
	for _, ev := range c.named(EventReceiveMessage) {
		out = append(out, ev.Payload.(Message))
	}
	return out
}
