package fakeserver

import (
	"strings"
	"time"

	"snappy/client/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// requireAdmin validates the bearer token and lets only admins through
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": false,
			"msg":    "Unauthorized - No token provided",
		})
	}

	claims, err := s.validateToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": false,
			"msg":    "Unauthorized - Invalid token",
		})
	}

	// the role may have changed since the token was issued
	user, ok := s.store.user(claims.UserID)
	if !ok || user.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": false,
			"msg":    "Forbidden - Admins only",
		})
	}

	c.Locals("userID", claims.UserID)
	return c.Next()
}

// userID gets the user ID stored by requireAdmin
func userID(c *fiber.Ctx) string {
	id, ok := c.Locals("userID").(string)
	if !ok {
		return ""
	}
	return id
}

// rateLimiter limits requests per key within expiration
func rateLimiter(max int, expiration time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := userID(c); id != "" {
				return id
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": false,
				"msg":    "Too many requests, please try again later",
			})
		},
	})
}
