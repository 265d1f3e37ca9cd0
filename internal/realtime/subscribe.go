package realtime

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw payload of one inbound event
type Handler func(payload json.RawMessage)

// Subscriber registers inbound handlers. The returned func deregisters the
// handler and is safe to call more than once.
type Subscriber interface {
	On(event EventType, h Handler) (off func())
}

// Emitter sends outbound events
type Emitter interface {
	Emit(event EventType, payload any) error
}

// Scope groups handler registrations so they can be dropped together.
// Components bind through a scope and the owner closes it on teardown.
type Scope struct {
	sub Subscriber

	mu     sync.Mutex
	offs   []func()
	closed bool
}

// NewScope creates a scope over sub
func NewScope(sub Subscriber) *Scope {
	return &Scope{sub: sub}
}

// On registers h through the scope. Registering on a closed scope is a no-op.
func (s *Scope) On(event EventType, h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	off := s.sub.On(event, h)
	s.offs = append(s.offs, off)
	return off
}

// Close deregisters every handler registered through the scope
func (s *Scope) Close() {
	s.mu.Lock()
	offs := s.offs
	s.offs = nil
	s.closed = true
	s.mu.Unlock()

	for _, off := range offs {
		off()
	}
}

// Len returns how many registrations the scope holds
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offs)
}

// Dispatcher is a handler table. Channel uses one to route inbound frames;
// test doubles embed one to satisfy Subscriber.
type Dispatcher struct {
	mu       sync.Mutex
	next     uint64
	handlers map[EventType][]registration
}

type registration struct {
	id uint64
	h  Handler
}

// On registers h for event
func (d *Dispatcher) On(event EventType, h Handler) func() {
	d.mu.Lock()
	if d.handlers == nil {
		d.handlers = make(map[EventType][]registration)
	}
	d.next++
	id := d.next
	d.handlers[event] = append(d.handlers[event], registration{id: id, h: h})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			list := d.handlers[event]
			for i, reg := range list {
				if reg.id == id {
					d.handlers[event] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(d.handlers[event]) == 0 {
				delete(d.handlers, event)
			}
		})
	}
}

// Dispatch runs every handler registered for event, in registration order.
// Handlers run without the table lock held, so they may deregister themselves.
func (d *Dispatcher) Dispatch(event EventType, payload json.RawMessage) int {
	d.mu.Lock()
	list := d.handlers[event]
	hs := make([]Handler, len(list))
	for i, reg := range list {
		hs[i] = reg.h
	}
	d.mu.Unlock()

	for _, h := range hs {
		h(payload)
	}
	return len(hs)
}

// Handlers returns the number of live registrations across all events
func (d *Dispatcher) Handlers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, list := range d.handlers {
		n += len(list)
	}
	return n
}

// Reset drops every registration
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.handlers = nil
	d.mu.Unlock()
}
