// Package connstate implements a small observable connection-state cell: a
// mutable current-status value plus a listener registry. Subscribing replays
// the current status immediately and returns an unsubscribe closure.
//
// The dashboard is a client of two independent remote systems (the chain node
// and the coordination backend); each owns its own Cell and the two are never
// conflated.
package connstate

import "sync"

// State enumerates the lifecycle states of a remote connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

// String returns the lowercase display name of the state.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Status pairs a State with the most recent error message. The message is
// retained across intermediate transitions and cleared only when the
// connection reaches Connected.
type Status struct {
	State State
	Err   string
}

// Listener receives status updates. Listeners are invoked synchronously, in
// registration order, outside the cell's lock.
type Listener func(Status)

// Cell is the mutable status holder. The zero value is not usable; create
// one with New.
type Cell struct {
	mu        sync.Mutex
	status    Status
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a Cell in the Disconnected state.
func New() *Cell {
	return &Cell{
		status:    Status{State: Disconnected},
		listeners: make(map[uint64]Listener),
	}
}

// Current returns the present status.
func (c *Cell) Current() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Set transitions the cell to the given state and notifies all listeners.
// Reaching Connected clears any retained error message.
func (c *Cell) Set(s State) {
	c.mu.Lock()
	c.status.State = s
	if s == Connected {
		c.status.Err = ""
	}
	status, listeners := c.status, c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range listeners {
		l(status)
	}
}

// SetError transitions the cell to Failed, records the error message, and
// notifies all listeners. A nil error is treated as an unspecified failure.
func (c *Cell) SetError(err error) {
	msg := "unspecified connection failure"
	if err != nil {
		msg = err.Error()
	}

	c.mu.Lock()
	c.status = Status{State: Failed, Err: msg}
	status, listeners := c.status, c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range listeners {
		l(status)
	}
}

// Subscribe registers a listener, invokes it immediately with the current
// status, and returns a closure that removes the registration. Unsubscribing
// twice is harmless.
func (c *Cell) Subscribe(l Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	status := c.status
	c.mu.Unlock()

	l(status)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// snapshotListeners copies the listener set in registration order.
// Callers must hold c.mu.
func (c *Cell) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for id := uint64(0); id < c.nextID; id++ {
		if l, ok := c.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}
