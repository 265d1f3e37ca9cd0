package api

import (
	"context"

	"snappy/client/internal/models"

	"github.com/valyala/fasthttp"
)

// AddMessageRequest represents the send message request body
type AddMessageRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// ConversationRequest selects the history between two users
type ConversationRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EditMessageRequest represents the edit request body
type EditMessageRequest struct {
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	To        string `json:"to"`
}

// DeleteMessageRequest represents the delete request body
type DeleteMessageRequest struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	To        string `json:"to"`
}

// AddMessage persists a message and returns it as stored, with the id and
// timestamp the server generated.
func (c *Client) AddMessage(ctx context.Context, from, to, text string) (models.Message, error) {
	var res struct {
		Message *models.Message `json:"message"`
	}
	err := c.call(ctx, "add message", fasthttp.MethodPost, RouteAddMessage, true,
		AddMessageRequest{From: from, To: to, Message: text}, &res)
	if err != nil {
		return models.Message{}, err
	}
	if res.Message == nil || res.Message.ID == "" {
		return models.Message{}, &ServerError{Op: "add message", Msg: "server did not return the stored message"}
	}
	return *res.Message, nil
}

// GetMessages returns the full history between from and to, oldest first
func (c *Client) GetMessages(ctx context.Context, from, to string) ([]models.Message, error) {
	var res struct {
		Messages []models.Message `json:"messages"`
	}
	err := c.call(ctx, "get messages", fasthttp.MethodPost, RouteGetMessages, true,
		ConversationRequest{From: from, To: to}, &res)
	if err != nil {
		return nil, err
	}
	return res.Messages, nil
}

// EditMessage replaces the text of a message
func (c *Client) EditMessage(ctx context.Context, messageID, text, userID, to string) error {
	return c.call(ctx, "edit message", fasthttp.MethodPut, RouteEditMessage, false,
		EditMessageRequest{MessageID: messageID, Message: text, UserID: userID, To: to}, nil)
}

// DeleteMessage removes a message
func (c *Client) DeleteMessage(ctx context.Context, messageID, userID, to string) error {
	return c.call(ctx, "delete message", fasthttp.MethodDelete, RouteDeleteMessage, false,
		DeleteMessageRequest{MessageID: messageID, UserID: userID, To: to}, nil)
}
