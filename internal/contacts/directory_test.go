package contacts

import (
	"context"
	"errors"
	"testing"

	"snappy/client/internal/api"
	"snappy/client/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	friends    []models.User
	pending    []models.FriendRequest
	friendsErr error
	pendingErr error
	sendErr    error
	acceptErr  error

	sent     [][2]string
	accepted [][2]string
	declined [][2]string
}

func (f *fakeAPI) Friends(_ context.Context, userID string) ([]models.User, error) {
	return f.friends, f.friendsErr
}

func (f *fakeAPI) PendingRequests(_ context.Context, userID string) ([]models.FriendRequest, error) {
	return f.pending, f.pendingErr
}

func (f *fakeAPI) SendFriendRequest(_ context.Context, sender, receiver string) error {
	f.sent = append(f.sent, [2]string{sender, receiver})
	return f.sendErr
}

func (f *fakeAPI) AcceptFriendRequest(_ context.Context, sender, receiver string) error {
	f.accepted = append(f.accepted, [2]string{sender, receiver})
	return f.acceptErr
}

func (f *fakeAPI) DeclineFriendRequest(_ context.Context, sender, receiver string) error {
	f.declined = append(f.declined, [2]string{sender, receiver})
	return nil
}

var me = models.User{ID: "u-me", Username: "me", Email: "me@example.com"}

func TestRefresh(t *testing.T) {
	fake := &fakeAPI{
		friends: []models.User{{ID: "u-a", Username: "alice"}},
		pending: []models.FriendRequest{{ID: "r1", SenderID: "u-b", Username: "bob"}},
	}
	d := New(fake, me, zerolog.Nop())
	changes := 0
	d.OnChange(func() { changes++ })

	require.NoError(t, d.Refresh(context.Background()))
	assert.Len(t, d.Friends(), 1)
	assert.Len(t, d.Pending(), 1)
	assert.Equal(t, 2, changes)

	f, ok := d.Friend("u-a")
	assert.True(t, ok)
	assert.Equal(t, "alice", f.Username)
}

func TestListFailures(t *testing.T) {
	fake := &fakeAPI{
		friends: []models.User{{ID: "u-a"}},
		pending: []models.FriendRequest{{SenderID: "u-b"}},
	}
	d := New(fake, me, zerolog.Nop())
	require.NoError(t, d.Refresh(context.Background()))

	fake.friendsErr = &api.TransportError{Op: "list friends", Err: errors.New("timeout")}
	fake.pendingErr = &api.StatusError{Op: "list pending requests", Code: 500}
	err := d.Refresh(context.Background())

	var te *api.TransportError
	assert.ErrorAs(t, err, &te)
	assert.Empty(t, d.Friends(), "friend list is cleared on failure")
	assert.Len(t, d.Pending(), 1, "pending list keeps its prior value")
}

func TestSendRequestUsesEmails(t *testing.T) {
	fake := &fakeAPI{}
	d := New(fake, me, zerolog.Nop())

	assert.ErrorIs(t, d.SendRequest(context.Background(), "   "), ErrEmptyEmail)
	assert.Empty(t, fake.sent)

	require.NoError(t, d.SendRequest(context.Background(), " bob@example.com "))
	assert.Equal(t, [][2]string{{"me@example.com", "bob@example.com"}}, fake.sent)

	fake.sendErr = &api.ServerError{Op: "send friend request", Msg: "User not found"}
	err := d.SendRequest(context.Background(), "ghost@example.com")
	assert.Equal(t, "User not found", api.UserMessage(err))
}

func TestAcceptAndDecline(t *testing.T) {
	fake := &fakeAPI{
		friends: []models.User{{ID: "u-a"}},
		pending: []models.FriendRequest{
			{ID: "r1", SenderID: "u-b"},
			{ID: "r2", SenderID: "u-c"},
		},
	}
	d := New(fake, me, zerolog.Nop())
	require.NoError(t, d.Refresh(context.Background()))

	require.NoError(t, d.Accept(context.Background(), "u-b"))
	assert.Equal(t, [][2]string{{"u-b", "u-me"}}, fake.accepted)
	require.Len(t, d.Pending(), 1)
	assert.Equal(t, "u-c", d.Pending()[0].SenderID)
	assert.Len(t, d.Friends(), 1, "accept does not reload friends")

	require.NoError(t, d.Decline(context.Background(), "u-c"))
	assert.Equal(t, [][2]string{{"u-c", "u-me"}}, fake.declined)
	assert.Empty(t, d.Pending())
}

func TestAcceptFailureKeepsPending(t *testing.T) {
	fake := &fakeAPI{pending: []models.FriendRequest{{SenderID: "u-b"}}}
	d := New(fake, me, zerolog.Nop())
	require.NoError(t, d.ListPending(context.Background()))

	fake.acceptErr = &api.ServerError{Op: "accept friend request", Msg: "Friend request not found"}
	require.Error(t, d.Accept(context.Background(), "u-b"))
	assert.Len(t, d.Pending(), 1)
}
