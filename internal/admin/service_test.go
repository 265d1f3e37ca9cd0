package admin

import (
	"context"
	"testing"
	"time"

	"snappy/client/internal/api"
	"snappy/client/internal/models"
	"snappy/client/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	tokens  []string
	roles   map[string]models.Role
	deleted []string
	err     error
}

func (f *fakeAPI) AdminUsers(_ context.Context, token string) ([]models.User, error) {
	f.tokens = append(f.tokens, token)
	return []models.User{{ID: "1"}, {ID: "2"}}, f.err
}

func (f *fakeAPI) AdminUpdateRole(_ context.Context, token, id string, role models.Role) error {
	f.tokens = append(f.tokens, token)
	if f.roles == nil {
		f.roles = map[string]models.Role{}
	}
	f.roles[id] = role
	return f.err
}

func (f *fakeAPI) AdminDeleteUser(_ context.Context, token, id string) error {
	f.tokens = append(f.tokens, token)
	f.deleted = append(f.deleted, id)
	return f.err
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func newService(t *testing.T, user models.User, tok string) (*Service, *fakeAPI) {
	t.Helper()
	store, err := session.OpenInMemory("k", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Save(user, tok))
	fake := &fakeAPI{}
	return New(fake, store, zerolog.Nop()), fake
}

var root = models.User{ID: "0", Username: "root", Role: models.RoleAdmin}

func TestUsersSendsBearerToken(t *testing.T) {
	tok := token(t, time.Now().Add(time.Hour))
	svc, fake := newService(t, root, tok)

	users, err := svc.Users(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, []string{tok}, fake.tokens)
}

func TestTokenChecks(t *testing.T) {
	svc, fake := newService(t, root, "")
	_, err := svc.Users(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	svc, _ = newService(t, root, token(t, time.Now().Add(-time.Minute)))
	_, err = svc.Users(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)

	svc, _ = newService(t, models.User{ID: "9", Role: models.RoleUser}, token(t, time.Now().Add(time.Hour)))
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), "1"), ErrNotAdmin)

	assert.Empty(t, fake.tokens)
}

func TestUpdateRoleAndDelete(t *testing.T) {
	svc, fake := newService(t, root, token(t, time.Now().Add(time.Hour)))

	require.Error(t, svc.UpdateRole(context.Background(), "1", models.Role("owner")))
	require.NoError(t, svc.UpdateRole(context.Background(), "1", models.RoleAdmin))
	require.NoError(t, svc.DeleteUser(context.Background(), "2"))

	assert.Equal(t, models.RoleAdmin, fake.roles["1"])
	assert.Equal(t, []string{"2"}, fake.deleted)

	fake.err = &api.StatusError{Op: "admin delete user", Code: 403, Msg: "Forbidden"}
	err := svc.DeleteUser(context.Background(), "3")
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 403, se.Code)
}
