// Package realtimetest provides an in-process stand-in for realtime.Channel.
package realtimetest

import (
	"encoding/json"
	"sync"

	"snappy/client/internal/realtime"
)

// Emitted is one recorded outbound event
type Emitted struct {
	Event   realtime.EventType
	Payload json.RawMessage
}

// Bus records everything emitted on it and lets tests push inbound events
type Bus struct {
	realtime.Dispatcher

	mu      sync.Mutex
	emitted []Emitted
	closed  bool
	err     error
	dropErr error
	done    chan struct{}
}

// New creates an empty bus
func New() *Bus {
	return &Bus{done: make(chan struct{})}
}

// Emit records the event
func (b *Bus) Emit(event realtime.EventType, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return realtime.ErrClosed
	}
	if b.err != nil {
		return b.err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.emitted = append(b.emitted, Emitted{Event: event, Payload: raw})
	return nil
}

// FailEmits makes every following Emit return err
func (b *Bus) FailEmits(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// Deliver pushes an inbound event to the registered handlers
func (b *Bus) Deliver(event realtime.EventType, payload any) int {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return b.Dispatch(event, raw)
}

// Emitted returns a copy of everything emitted so far
func (b *Bus) Emitted() []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Emitted(nil), b.emitted...)
}

// Events returns the emitted event names in order
func (b *Bus) Events() []realtime.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.EventType, len(b.emitted))
	for i, e := range b.emitted {
		out[i] = e.Event
	}
	return out
}

// Close marks the bus closed and drops every handler
func (b *Bus) Close() error {
	b.shutdown(nil)
	return nil
}

// Drop simulates the connection going away with err
func (b *Bus) Drop(err error) {
	b.shutdown(err)
}

func (b *Bus) shutdown(err error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.dropErr = err
	close(b.done)
	b.mu.Unlock()
	b.Reset()
}

// Done is closed once the bus is closed or dropped
func (b *Bus) Done() <-chan struct{} { return b.done }

// Err returns the error passed to Drop
func (b *Bus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropErr
}

// Closed reports whether Close was called
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
