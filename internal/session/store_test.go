package session

import (
	"testing"
	"time"

	"snappy/client/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", Role: models.RoleUser}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   alice.ID,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestLoadWithoutSession(t *testing.T) {
	s, err := OpenInMemory("", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSaveSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "snappy-user", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Save(alice, "tok"))
	require.NoError(t, s.Close())

	s, err = Open(dir, "snappy-user", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, alice, got.User)
	assert.Equal(t, "tok", got.Token)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, got, cur)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "k", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Save(alice, "tok"))
	require.NoError(t, s.Clear())
	_, ok := s.Current()
	assert.False(t, ok)
	require.NoError(t, s.Close())

	s, err = Open(dir, "k", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUpdateUserKeepsToken(t *testing.T) {
	s, err := OpenInMemory("k", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.UpdateUser(alice), ErrNoSession)

	require.NoError(t, s.Save(alice, "tok"))
	updated := alice
	updated.IsAvatarImageSet = true
	updated.AvatarImage = "PHN2Zy8+"
	require.NoError(t, s.UpdateUser(updated))

	cur, _ := s.Current()
	assert.True(t, cur.User.IsAvatarImageSet)
	assert.Equal(t, "tok", cur.Token)
}

func TestTokenExpiry(t *testing.T) {
	s, err := OpenInMemory("k", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	now := time.Now()

	assert.False(t, s.TokenExpired(now), "no session")

	require.NoError(t, s.Save(alice, signed(t, now.Add(time.Hour))))
	assert.False(t, s.TokenExpired(now))
	assert.True(t, s.TokenExpired(now.Add(2*time.Hour)))

	require.NoError(t, s.Save(alice, "not-a-jwt"))
	_, ok := s.TokenExpiry()
	assert.False(t, ok)
}
