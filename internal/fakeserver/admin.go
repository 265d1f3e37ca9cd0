package fakeserver

import (
	"errors"

	"snappy/client/internal/models"

	"github.com/gofiber/fiber/v2"
)

// adminListUsers returns every account
func (s *Server) adminListUsers(c *fiber.Ctx) error {
	return c.JSON(s.store.listUsers())
}

// adminUpdateRole changes the role of an account
func (s *Server) adminUpdateRole(c *fiber.Ctx) error {
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if !req.Role.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "msg": "Invalid role"})
	}

	user, err := s.store.setRole(c.Params("id"), req.Role)
	if errors.Is(err, errUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": false, "msg": err.Error()})
	}

	s.log.Info().Str("by", userID(c)).Str("user", user.ID).Str("role", string(user.Role)).Msg("[devserver] role updated")
	return c.JSON(fiber.Map{"status": true, "user": user})
}

// adminDeleteUser removes an account
func (s *Server) adminDeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == userID(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "msg": "You cannot delete yourself"})
	}
	if err := s.store.deleteUser(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": false, "msg": err.Error()})
	}

	s.log.Info().Str("by", userID(c)).Str("user", id).Msg("[devserver] user deleted")
	return c.JSON(fiber.Map{"status": true, "msg": "User deleted"})
}
