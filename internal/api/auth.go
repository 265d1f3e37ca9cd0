package api

import (
	"context"

	"snappy/client/internal/models"

	"github.com/valyala/fasthttp"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is what login and register hand back
type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.call(ctx, "login", fasthttp.MethodPost, RouteLogin, true,
		LoginRequest{Email: email, Password: password}, &res)
	return res, err
}

// Register creates an account
func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.call(ctx, "register", fasthttp.MethodPost, RouteRegister, true,
		RegisterRequest{Username: username, Email: email, Password: password}, &res)
	return res, err
}

// Logout invalidates the server side of the session
func (c *Client) Logout(ctx context.Context, userID string) error {
	return c.call(ctx, "logout", fasthttp.MethodGet, RouteLogout+"/"+userID, true, nil, nil)
}

type setAvatarResponse struct {
	IsSet bool   `json:"isSet"`
	Image string `json:"image"`
}

// SetAvatar stores a new avatar payload for the user and returns what the
// server kept.
func (c *Client) SetAvatar(ctx context.Context, userID, image string) (string, error) {
	var res setAvatarResponse
	_, err := c.do(ctx, "set avatar", fasthttp.MethodPost, RouteSetAvatar+"/"+userID, "",
		map[string]string{"image": image}, &res)
	if err != nil {
		return "", err
	}
	if !res.IsSet {
		return "", &ServerError{Op: "set avatar", Msg: "avatar not set"}
	}
	return res.Image, nil
}
