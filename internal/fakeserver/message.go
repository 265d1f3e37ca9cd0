package fakeserver

import (
	"errors"
	"time"

	"snappy/client/internal/api"

	"github.com/gofiber/fiber/v2"
)

// addMessage persists a direct message
func (s *Server) addMessage(c *fiber.Ctx) error {
	var req api.AddMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if req.From == "" || req.To == "" || req.Message == "" {
		return reject(c, "Failed to add message to the database")
	}
	if _, ok := s.store.user(req.To); !ok {
		return reject(c, "Recipient not found")
	}

	m := s.store.addMessage(req.From, req.To, req.Message, time.Now())
	return c.JSON(fiber.Map{
		"status":  true,
		"msg":     "Message added successfully.",
		"message": m.view(req.From),
	})
}

// getMessages returns the conversation between from and to
func (s *Server) getMessages(c *fiber.Ctx) error {
	var req api.ConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if req.From == "" || req.To == "" {
		return reject(c, "from and to are required")
	}

	return c.JSON(fiber.Map{
		"status":   true,
		"messages": s.store.conversation(req.From, req.To),
	})
}

// editMessage replaces the text of a message. Only the sender may edit.
func (s *Server) editMessage(c *fiber.Ctx) error {
	var req api.EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if err := s.store.editMessage(req.MessageID, req.UserID, req.Message); err != nil {
		return messageError(c, err)
	}
	return c.JSON(fiber.Map{"status": true, "msg": "Message edited"})
}

// deleteMessage removes a message. Only the sender may delete.
func (s *Server) deleteMessage(c *fiber.Ctx) error {
	var req api.DeleteMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if err := s.store.deleteMessage(req.MessageID, req.UserID); err != nil {
		return messageError(c, err)
	}
	return c.JSON(fiber.Map{"status": true, "msg": "Message deleted"})
}

func messageError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, errNoMessage):
		code = fiber.StatusNotFound
	case errors.Is(err, errNotOwner):
		code = fiber.StatusForbidden
	}
	return c.Status(code).JSON(fiber.Map{"status": false, "msg": err.Error()})
}
