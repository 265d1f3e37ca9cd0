package fakeserver

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"snappy/client/internal/realtime"

	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client represents a websocket client connection
type Client struct {
	ID     string // User ID
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	joined atomic.Bool
}

// NewClient creates a new websocket client
func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   userID,
		conn: conn,
		hub:  hub,
		send: make(chan []byte, 256),
	}
}

func (c *Client) isJoined() bool { return c.joined.Load() }

// ReadPump handles incoming frames from the client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("user", c.ID).Msg("[hub] read error")
			}
			break
		}

		var incoming realtime.Envelope
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.hub.log.Warn().Err(err).Msg("[hub] failed to parse frame")
			continue
		}

		c.handleIncoming(incoming)
	}
}

// WritePump handles outgoing frames to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debug().Err(err).Str("user", c.ID).Msg("[hub] write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncoming routes one client event
func (c *Client) handleIncoming(msg realtime.Envelope) {
	switch msg.Type {
	case realtime.EventJoin:
		c.handleJoin()
	case realtime.EventRequestOnlineUsers:
		c.hub.SendToUser(c.ID, realtime.EventOnlineUsers, realtime.OnlineUsersPayload{UserIDs: c.hub.OnlineUsers()})
	case realtime.EventSendMessage:
		c.handleSendMessage(msg.Payload)
	case realtime.EventTyping, realtime.EventStopTyping:
		c.handleTyping(msg.Type, msg.Payload)
	case realtime.EventMessageEdited:
		c.handleEdited(msg.Payload)
	case realtime.EventMessageDeleted:
		c.handleDeleted(msg.Payload)
	default:
		c.hub.log.Debug().Str("event", string(msg.Type)).Msg("[hub] unknown event type")
	}
}

// handleJoin marks the client online and tells everybody else
func (c *Client) handleJoin() {
	if c.joined.Swap(true) {
		return
	}
	c.hub.broadcast(realtime.EventUserOnline, realtime.PresencePayload{UserID: c.ID}, c.ID)
}

func (c *Client) handleSendMessage(raw json.RawMessage) {
	var p realtime.ChatMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.To == "" {
		return
	}
	p.From = c.ID
	if c.hub.SendToUser(p.To, realtime.EventMessageReceived, p) {
		c.hub.SendToUser(p.To, realtime.EventNotifyUser, realtime.NotifyPayload{
			From:    c.ID,
			Message: "sent you a message",
		})
	}
}

func (c *Client) handleTyping(event realtime.EventType, raw json.RawMessage) {
	var p realtime.TypingPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.To == "" {
		return
	}
	c.hub.SendToUser(p.To, event, realtime.TypingPayload{From: c.ID})
}

func (c *Client) handleEdited(raw json.RawMessage) {
	var p realtime.MessageEditedPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.To == "" {
		return
	}
	to := p.To
	p.To = ""
	c.hub.SendToUser(to, realtime.EventMessageEdited, p)
}

func (c *Client) handleDeleted(raw json.RawMessage) {
	var p realtime.MessageDeletedPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.To == "" {
		return
	}
	to := p.To
	p.To = ""
	c.hub.SendToUser(to, realtime.EventMessageDeleted, p)
}
