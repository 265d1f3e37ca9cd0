package fakeserver

import (
	"errors"
	"strings"

	"snappy/client/internal/api"
	"snappy/client/internal/models"

	"github.com/gofiber/fiber/v2"
)

func reject(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"status": false, "msg": msg})
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status": false,
		"msg":    "Invalid request body",
	})
}

// register handles user registration
func (s *Server) register(c *fiber.Ctx) error {
	var req api.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return reject(c, "Username, email and password are required")
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": false,
			"msg":    "Failed to hash password",
		})
	}

	user, err := s.store.createUser(req.Username, req.Email, hash, models.RoleUser)
	if err != nil {
		return reject(c, err.Error())
	}

	token, err := s.generateToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": false,
			"msg":    "Failed to generate token",
		})
	}

	s.log.Info().Str("user", user.ID).Str("username", user.Username).Msg("[devserver] registered")
	return c.JSON(fiber.Map{"status": true, "user": user, "token": token})
}

// login handles user login
func (s *Server) login(c *fiber.Ctx) error {
	var req api.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if req.Email == "" || req.Password == "" {
		return reject(c, "Email and password are required")
	}

	rec, ok := s.store.userByEmail(req.Email)
	if !ok || !checkPassword(rec.PasswordHash, req.Password) {
		return reject(c, "Incorrect email or password")
	}

	token, err := s.generateToken(rec.User)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": false,
			"msg":    "Failed to generate token",
		})
	}

	return c.JSON(fiber.Map{"status": true, "user": rec.User, "token": token})
}

// logout handles user logout
func (s *Server) logout(c *fiber.Ctx) error {
	id := c.Params("userId")
	if _, ok := s.store.user(id); !ok {
		return reject(c, "User id is required")
	}
	return c.JSON(fiber.Map{"status": true, "msg": "Logged out successfully"})
}

// setAvatar stores the avatar payload of a user
func (s *Server) setAvatar(c *fiber.Ctx) error {
	var req struct {
		Image string `json:"image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, err := s.store.setAvatar(c.Params("userId"), req.Image)
	if errors.Is(err, errUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": false, "msg": err.Error()})
	}

	return c.JSON(fiber.Map{"isSet": user.IsAvatarImageSet, "image": user.AvatarImage})
}
