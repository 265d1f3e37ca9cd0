package fakeserver

import (
	"snappy/client/internal/api"
	"snappy/client/internal/realtime"

	"github.com/gofiber/fiber/v2"
)

// sendRequest creates a friend request. Both ends are identified by email.
func (s *Server) sendRequest(c *fiber.Ctx) error {
	var req api.FriendRequestBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	sender, ok := s.store.userByEmail(req.SenderID)
	if !ok {
		return reject(c, "Sender not found")
	}
	receiver, ok := s.store.userByEmail(req.ReceiverID)
	if !ok {
		return reject(c, errUserNotFound.Error())
	}

	if err := s.store.addRequest(sender.ID, receiver.ID); err != nil {
		return reject(c, err.Error())
	}

	s.hub.SendToUser(receiver.ID, realtime.EventNotifyUser, realtime.NotifyPayload{
		From:    sender.ID,
		Message: "sent you a friend request",
	})
	return c.JSON(fiber.Map{"status": true, "msg": "Friend request sent"})
}

// acceptRequest turns a pending request into a friendship
func (s *Server) acceptRequest(c *fiber.Ctx) error {
	var req api.FriendRequestBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if err := s.store.takeRequest(req.SenderID, req.ReceiverID, true); err != nil {
		return reject(c, err.Error())
	}

	s.hub.SendToUser(req.SenderID, realtime.EventNotifyUser, realtime.NotifyPayload{
		From:    req.ReceiverID,
		Message: "accepted your friend request",
	})
	return c.JSON(fiber.Map{"status": true, "msg": "Friend request accepted"})
}

// declineRequest drops a pending request
func (s *Server) declineRequest(c *fiber.Ctx) error {
	var req api.FriendRequestBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	if err := s.store.takeRequest(req.SenderID, req.ReceiverID, false); err != nil {
		return reject(c, err.Error())
	}
	return c.JSON(fiber.Map{"status": true, "msg": "Friend request declined"})
}

// getFriends returns the friend list of a user
func (s *Server) getFriends(c *fiber.Ctx) error {
	id := c.Params("userId")
	if _, ok := s.store.user(id); !ok {
		return reject(c, errUserNotFound.Error())
	}
	return c.JSON(fiber.Map{"status": true, "friends": s.store.friendsOf(id)})
}

// getPendingRequests returns the incoming requests of a user as a bare array
func (s *Server) getPendingRequests(c *fiber.Ctx) error {
	return c.JSON(s.store.pendingFor(c.Params("userId")))
}
