package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsHandlersInOrder(t *testing.T) {
	var d Dispatcher
	var got []string
	d.On(EventTyping, func(json.RawMessage) { got = append(got, "first") })
	d.On(EventTyping, func(json.RawMessage) { got = append(got, "second") })
	d.On(EventStopTyping, func(json.RawMessage) { got = append(got, "other") })

	n := d.Dispatch(EventTyping, nil)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestDispatcherOffIsIdempotent(t *testing.T) {
	var d Dispatcher
	calls := 0
	off := d.On(EventTyping, func(json.RawMessage) { calls++ })
	keep := d.On(EventTyping, func(json.RawMessage) {})
	_ = keep

	off()
	off()
	assert.Equal(t, 1, d.Handlers())

	d.Dispatch(EventTyping, nil)
	assert.Zero(t, calls)
}

func TestDispatcherHandlerMayDeregisterItself(t *testing.T) {
	var d Dispatcher
	calls := 0
	var off func()
	off = d.On(EventTyping, func(json.RawMessage) {
		calls++
		off()
	})

	d.Dispatch(EventTyping, nil)
	d.Dispatch(EventTyping, nil)
	assert.Equal(t, 1, calls)
	assert.Zero(t, d.Handlers())
}

func TestScopeCloseDeregistersEverything(t *testing.T) {
	var d Dispatcher
	outside := d.On(EventNotifyUser, func(json.RawMessage) {})
	defer outside()

	scope := NewScope(&d)
	scope.On(EventTyping, func(json.RawMessage) {})
	scope.On(EventStopTyping, func(json.RawMessage) {})
	scope.On(EventOnlineUsers, func(json.RawMessage) {})
	require.Equal(t, 3, scope.Len())
	require.Equal(t, 4, d.Handlers())

	scope.Close()
	assert.Equal(t, 1, d.Handlers(), "handlers registered outside the scope survive")

	// a closed scope refuses new registrations
	scope.On(EventTyping, func(json.RawMessage) {})
	assert.Equal(t, 1, d.Handlers())

	scope.Close()
	assert.Equal(t, 1, d.Handlers())
}
