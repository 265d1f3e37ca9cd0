package api

import (
	"context"

	"snappy/client/internal/models"

	"github.com/valyala/fasthttp"
)

// AdminUsers lists every account. Requires an admin bearer token.
func (c *Client) AdminUsers(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if _, err := c.do(ctx, "admin list users", fasthttp.MethodGet, RouteAdminUsers, token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminUpdateRole changes the role of user id
func (c *Client) AdminUpdateRole(ctx context.Context, token, id string, role models.Role) error {
	_, err := c.do(ctx, "admin update role", fasthttp.MethodPut, RouteAdminUser+"/"+id+"/role", token,
		map[string]models.Role{"role": role}, nil)
	return err
}

// AdminDeleteUser removes user id
func (c *Client) AdminDeleteUser(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, "admin delete user", fasthttp.MethodDelete, RouteAdminUser+"/"+id, token, nil, nil)
	return err
}
