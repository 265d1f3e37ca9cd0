package realtime_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"snappy/client/internal/fakeserver"
	"snappy/client/internal/models"
	"snappy/client/internal/realtime"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recorder struct {
	mu     sync.Mutex
	frames map[realtime.EventType][]json.RawMessage
}

func (r *recorder) record(ch *realtime.Channel, events ...realtime.EventType) {
	r.frames = make(map[realtime.EventType][]json.RawMessage)
	for _, ev := range events {
		ev := ev
		ch.On(ev, func(raw json.RawMessage) {
			r.mu.Lock()
			r.frames[ev] = append(r.frames[ev], raw)
			r.mu.Unlock()
		})
	}
}

func (r *recorder) count(ev realtime.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames[ev])
}

func (r *recorder) last(ev realtime.EventType) json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.frames[ev]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func setup(t *testing.T) (*fakeserver.Server, string, models.User, models.User) {
	t.Helper()
	srv := fakeserver.New(fakeserver.Config{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	base, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	alice, err := srv.SeedUser("alice", "a@example.com", "password1", models.RoleUser)
	require.NoError(t, err)
	bob, err := srv.SeedUser("bob", "b@example.com", "password1", models.RoleUser)
	require.NoError(t, err)
	return srv, strings.Replace(base, "http://", "ws://", 1) + "/ws", alice, bob
}

func dial(t *testing.T, url, userID string) *realtime.Channel {
	t.Helper()
	ch, err := realtime.Dial(context.Background(), realtime.Config{URL: url}, userID, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { ch.Close() })
	return ch
}

func TestPresenceAndSnapshot(t *testing.T) {
	srv, url, alice, bob := setup(t)

	a := dial(t, url, alice.ID)
	var ra recorder
	ra.record(a, realtime.EventUserOnline, realtime.EventUserOffline, realtime.EventOnlineUsers)
	require.Eventually(t, func() bool { return len(srv.Online()) == 1 }, 2*time.Second, 10*time.Millisecond)

	b := dial(t, url, bob.ID)
	require.Eventually(t, func() bool { return ra.count(realtime.EventUserOnline) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Emit(realtime.EventRequestOnlineUsers, struct{}{}))
	require.Eventually(t, func() bool { return ra.count(realtime.EventOnlineUsers) == 1 }, 2*time.Second, 10*time.Millisecond)
	var snap realtime.OnlineUsersPayload
	require.NoError(t, json.Unmarshal(ra.last(realtime.EventOnlineUsers), &snap))
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, snap.UserIDs)

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return ra.count(realtime.EventUserOffline) == 1 }, 2*time.Second, 10*time.Millisecond)
	var off realtime.PresencePayload
	require.NoError(t, json.Unmarshal(ra.last(realtime.EventUserOffline), &off))
	assert.Equal(t, bob.ID, off.UserID)
}

func TestRelayedEvents(t *testing.T) {
	srv, url, alice, bob := setup(t)
	a := dial(t, url, alice.ID)
	b := dial(t, url, bob.ID)
	require.Eventually(t, func() bool { return len(srv.Online()) == 2 }, 2*time.Second, 10*time.Millisecond)

	var rb recorder
	rb.record(b, realtime.EventMessageReceived, realtime.EventTyping, realtime.EventMessageEdited, realtime.EventNotifyUser)

	require.NoError(t, a.Emit(realtime.EventTyping, realtime.TypingPayload{To: bob.ID, From: alice.ID}))
	require.NoError(t, a.Emit(realtime.EventSendMessage, realtime.ChatMessagePayload{To: bob.ID, From: alice.ID, Msg: "hi", MessageID: "m1"}))
	require.NoError(t, a.Emit(realtime.EventMessageEdited, realtime.MessageEditedPayload{MessageID: "m1", NewMessage: "hi!", To: bob.ID}))

	require.Eventually(t, func() bool { return rb.count(realtime.EventMessageEdited) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rb.count(realtime.EventTyping))
	assert.Equal(t, 1, rb.count(realtime.EventNotifyUser))

	var got realtime.ChatMessagePayload
	require.NoError(t, json.Unmarshal(rb.last(realtime.EventMessageReceived), &got))
	assert.Equal(t, alice.ID, got.From)
	assert.Equal(t, "hi", got.Msg)
	assert.Equal(t, "m1", got.MessageID)
}

func TestCloseIsIdempotent(t *testing.T) {
	_, url, alice, _ := setup(t)
	ch := dial(t, url, alice.ID)
	ch.On(realtime.EventTyping, func(json.RawMessage) {})
	require.Equal(t, 1, ch.Handlers())

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())

	select {
	case <-ch.Done():
	default:
		t.Fatal("done not closed")
	}
	assert.NoError(t, ch.Err())
	assert.Zero(t, ch.Handlers())
	assert.ErrorIs(t, ch.Emit(realtime.EventTyping, realtime.TypingPayload{}), realtime.ErrClosed)
}

func TestServerShutdownSurfacesError(t *testing.T) {
	srv, url, alice, _ := setup(t)
	ch := dial(t, url, alice.ID)

	require.NoError(t, srv.Close())
	select {
	case <-ch.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("channel did not notice the server going away")
	}
	assert.Error(t, ch.Err())
}

func TestDialUnknownUser(t *testing.T) {
	_, url, _, _ := setup(t)
	_, err := realtime.Dial(context.Background(), realtime.Config{URL: url}, "ghost", zerolog.Nop())
	assert.Error(t, err)
}
