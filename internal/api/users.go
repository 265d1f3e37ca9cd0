package api

import (
	"context"

	"snappy/client/internal/models"

	"github.com/valyala/fasthttp"
)

// FriendRequestBody represents the send/accept/decline request body. For
// send-request both fields carry email addresses; accept and decline use ids.
type FriendRequestBody struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// SendFriendRequest asks receiver to become a friend of sender
func (c *Client) SendFriendRequest(ctx context.Context, senderEmail, receiverEmail string) error {
	return c.call(ctx, "send friend request", fasthttp.MethodPost, RouteSendRequest, true,
		FriendRequestBody{SenderID: senderEmail, ReceiverID: receiverEmail}, nil)
}

// AcceptFriendRequest accepts the request senderID sent to receiverID
func (c *Client) AcceptFriendRequest(ctx context.Context, senderID, receiverID string) error {
	return c.call(ctx, "accept friend request", fasthttp.MethodPost, RouteAcceptRequest, false,
		FriendRequestBody{SenderID: senderID, ReceiverID: receiverID}, nil)
}

// DeclineFriendRequest declines the request senderID sent to receiverID
func (c *Client) DeclineFriendRequest(ctx context.Context, senderID, receiverID string) error {
	return c.call(ctx, "decline friend request", fasthttp.MethodPost, RouteDeclineRequest, false,
		FriendRequestBody{SenderID: senderID, ReceiverID: receiverID}, nil)
}

// Friends returns the friend list of userID
func (c *Client) Friends(ctx context.Context, userID string) ([]models.User, error) {
	var res struct {
		Friends []models.User `json:"friends"`
	}
	if err := c.call(ctx, "list friends", fasthttp.MethodGet, RouteFriends+"/"+userID, true, nil, &res); err != nil {
		return nil, err
	}
	return res.Friends, nil
}

// PendingRequests returns the requests waiting for userID to answer. The
// endpoint answers with a bare array.
func (c *Client) PendingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	var res []models.FriendRequest
	if _, err := c.do(ctx, "list pending requests", fasthttp.MethodGet,
		RouteUsers+"/"+userID+"/pending-requests", "", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}
