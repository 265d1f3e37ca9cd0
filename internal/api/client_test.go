package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"snappy/client/internal/api"
	"snappy/client/internal/fakeserver"
	"snappy/client/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func startServer(t *testing.T) (*fakeserver.Server, *api.Client) {
	t.Helper()
	srv := fakeserver.New(fakeserver.Config{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	base, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv, api.New(base, 5*time.Second, zerolog.Nop())
}

func TestLoginRoundTrip(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	reg, err := c.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.User.ID)
	assert.Equal(t, models.RoleUser, reg.User.Role)

	res, err := c.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	_, err = c.Login(ctx, "alice@example.com", "nope-nope")
	var se *api.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Incorrect email or password", api.UserMessage(err))

	require.NoError(t, c.Logout(ctx, res.User.ID))

	img, err := c.SetAvatar(ctx, res.User.ID, "PHN2Zy8+")
	require.NoError(t, err)
	assert.Equal(t, "PHN2Zy8+", img)
}

func TestMessagesRoundTrip(t *testing.T) {
	srv, c := startServer(t)
	ctx := context.Background()
	alice, _ := srv.SeedUser("alice", "a@example.com", "password1", models.RoleUser)
	bob, _ := srv.SeedUser("bob", "b@example.com", "password1", models.RoleUser)

	m, err := c.AddMessage(ctx, alice.ID, bob.ID, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	msgs, err := c.GetMessages(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].FromSelf)

	require.NoError(t, c.EditMessage(ctx, m.ID, "hello!", alice.ID, bob.ID))
	err = c.EditMessage(ctx, m.ID, "stolen", bob.ID, alice.ID)
	var ste *api.StatusError
	require.ErrorAs(t, err, &ste)
	assert.Equal(t, 403, ste.Code)

	require.NoError(t, c.DeleteMessage(ctx, m.ID, alice.ID, bob.ID))
	msgs, err = c.GetMessages(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestFriendsRoundTrip(t *testing.T) {
	srv, c := startServer(t)
	ctx := context.Background()
	alice, _ := srv.SeedUser("alice", "a@example.com", "password1", models.RoleUser)
	bob, _ := srv.SeedUser("bob", "b@example.com", "password1", models.RoleUser)

	require.NoError(t, c.SendFriendRequest(ctx, alice.Email, bob.Email))
	pending, err := c.PendingRequests(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].Username)

	require.NoError(t, c.AcceptFriendRequest(ctx, alice.ID, bob.ID))
	friends, err := c.Friends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, alice.ID, friends[0].ID)

	err = c.DeclineFriendRequest(ctx, alice.ID, bob.ID)
	assert.Equal(t, "Friend request not found", api.UserMessage(err))
}

func TestAdminRoundTrip(t *testing.T) {
	srv, c := startServer(t)
	ctx := context.Background()
	_, _ = srv.SeedUser("root", "root@example.com", "password1", models.RoleAdmin)
	plain, _ := srv.SeedUser("plain", "p@example.com", "password1", models.RoleUser)

	res, err := c.Login(ctx, "root@example.com", "password1")
	require.NoError(t, err)

	users, err := c.AdminUsers(ctx, res.Token)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, c.AdminUpdateRole(ctx, res.Token, plain.ID, models.RoleAdmin))
	require.NoError(t, c.AdminDeleteUser(ctx, res.Token, plain.ID))

	_, err = c.AdminUsers(ctx, "garbage")
	var ste *api.StatusError
	require.ErrorAs(t, err, &ste)
	assert.Equal(t, 401, ste.Code)
}

func TestTransportErrors(t *testing.T) {
	c := api.New("http://127.0.0.1:1", time.Second, zerolog.Nop())
	_, err := c.Friends(context.Background(), "x")
	var te *api.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Unable to reach the server. Please try again later.", api.UserMessage(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Friends(ctx, "x")
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(err, context.Canceled))
}
