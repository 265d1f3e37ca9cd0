package fakeserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"snappy/client/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	t.Cleanup(func() { s.hub.Stop() })
	return s
}

func request(t *testing.T, s *Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else {
		out["raw"] = string(raw)
	}
	return resp.StatusCode, out
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	code, res := request(t, s, fiber.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "password1",
	})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, res["status"])
	assert.NotEmpty(t, res["token"])

	_, res = request(t, s, fiber.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2", "email": "ALICE@example.com", "password": "password1",
	})
	assert.Equal(t, false, res["status"])
	assert.Equal(t, "Email already used", res["msg"])

	_, res = request(t, s, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, false, res["status"])

	_, res = request(t, s, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password1",
	})
	require.Equal(t, true, res["status"])
	user := res["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])

	claims, err := s.validateToken(res["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["_id"], claims.UserID)
}

func TestMessageOwnership(t *testing.T) {
	s := newTestServer(t)
	alice, err := s.SeedUser("alice", "a@example.com", "password1", models.RoleUser)
	require.NoError(t, err)
	bob, err := s.SeedUser("bob", "b@example.com", "password1", models.RoleUser)
	require.NoError(t, err)

	_, res := request(t, s, fiber.MethodPost, "/api/messages/addmsg", "", map[string]string{
		"from": alice.ID, "to": bob.ID, "message": "hi bob",
	})
	require.Equal(t, true, res["status"])
	msg := res["message"].(map[string]any)
	id := msg["_id"].(string)
	assert.Equal(t, true, msg["fromSelf"])

	code, _ := request(t, s, fiber.MethodPut, "/api/messages/edit", "", map[string]string{
		"messageId": id, "message": "hijacked", "userId": bob.ID, "to": alice.ID,
	})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = request(t, s, fiber.MethodPut, "/api/messages/edit", "", map[string]string{
		"messageId": id, "message": "hi bob!", "userId": alice.ID, "to": bob.ID,
	})
	assert.Equal(t, fiber.StatusOK, code)

	msgs := s.Messages(bob.ID, alice.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi bob!", msgs[0].Text)
	assert.False(t, msgs[0].FromSelf)

	// the window is not enforced server side
	old := s.SeedMessage(alice.ID, bob.ID, "ancient", time.Now().Add(-time.Hour))
	code, _ = request(t, s, fiber.MethodDelete, "/api/messages/delete", "", map[string]string{
		"messageId": old.ID, "userId": alice.ID, "to": bob.ID,
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, s.Messages(alice.ID, bob.ID), 1)
}

func TestFriendRequestFlow(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.SeedUser("alice", "a@example.com", "password1", models.RoleUser)
	bob, _ := s.SeedUser("bob", "b@example.com", "password1", models.RoleUser)

	_, res := request(t, s, fiber.MethodPost, "/api/users/send-request", "", map[string]string{
		"senderId": alice.Email, "receiverId": "nobody@example.com",
	})
	assert.Equal(t, "User not found", res["msg"])

	_, res = request(t, s, fiber.MethodPost, "/api/users/send-request", "", map[string]string{
		"senderId": alice.Email, "receiverId": bob.Email,
	})
	require.Equal(t, true, res["status"])

	pending := s.store.pendingFor(bob.ID)
	require.Len(t, pending, 1)
	assert.Equal(t, alice.ID, pending[0].SenderID)

	_, res = request(t, s, fiber.MethodPost, "/api/users/accept-request", "", map[string]string{
		"senderId": alice.ID, "receiverId": bob.ID,
	})
	require.Equal(t, true, res["status"])
	assert.Empty(t, s.store.pendingFor(bob.ID))

	_, res = request(t, s, fiber.MethodGet, "/api/users/friends/"+bob.ID, "", nil)
	friends := res["friends"].([]any)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].(map[string]any)["username"])

	_, res = request(t, s, fiber.MethodPost, "/api/users/send-request", "", map[string]string{
		"senderId": alice.Email, "receiverId": bob.Email,
	})
	assert.Equal(t, "You are already friends", res["msg"])
}

func TestAdminRequiresAdminToken(t *testing.T) {
	s := newTestServer(t)
	root, _ := s.SeedUser("root", "root@example.com", "password1", models.RoleAdmin)
	plain, _ := s.SeedUser("plain", "plain@example.com", "password1", models.RoleUser)

	code, _ := request(t, s, fiber.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	userToken, err := s.generateToken(plain)
	require.NoError(t, err)
	code, _ = request(t, s, fiber.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	adminToken, err := s.generateToken(root)
	require.NoError(t, err)
	code, res := request(t, s, fiber.MethodGet, "/api/admin/users", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, res["raw"], "plain@example.com")

	code, _ = request(t, s, fiber.MethodPut, "/api/admin/user/"+plain.ID+"/role", adminToken, map[string]string{"role": "admin"})
	assert.Equal(t, fiber.StatusOK, code)
	u, _ := s.store.user(plain.ID)
	assert.Equal(t, models.RoleAdmin, u.Role)

	code, _ = request(t, s, fiber.MethodDelete, "/api/admin/user/"+plain.ID, adminToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	_, ok := s.store.user(plain.ID)
	assert.False(t, ok)
}

func TestAuthRateLimit(t *testing.T) {
	s := New(Config{BcryptCost: bcrypt.MinCost, AuthRateLimit: 2}, zerolog.Nop())
	t.Cleanup(func() { s.hub.Stop() })

	body := map[string]string{"email": "x@example.com", "password": "password1"}
	for i := 0; i < 2; i++ {
		code, _ := request(t, s, fiber.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, fiber.StatusOK, code)
	}
	code, _ := request(t, s, fiber.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, fiber.StatusTooManyRequests, code)
}
