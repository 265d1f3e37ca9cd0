package realtime

import (
	"encoding/json"
	"time"
)

// EventType represents the realtime event names
type EventType string

const (
	// Outbound
	EventJoin               EventType = "join"
	EventSendMessage        EventType = "send-message"
	EventRequestOnlineUsers EventType = "request-online-users"

	// Both directions
	EventTyping         EventType = "typing"
	EventStopTyping     EventType = "stop-typing"
	EventMessageEdited  EventType = "message-edited"
	EventMessageDeleted EventType = "message-deleted"

	// Inbound
	EventMessageReceived EventType = "message-received"
	EventUserOnline      EventType = "user-online"
	EventUserOffline     EventType = "user-offline"
	EventOnlineUsers     EventType = "online-users"
	EventNotifyUser      EventType = "notify-user"
)

// Envelope is the frame every event travels in
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// JoinPayload announces which user owns the connection
type JoinPayload struct {
	UserID string `json:"userId"`
}

// ChatMessagePayload is sent as send-message and delivered as
// message-received. MessageID and CreatedAt come from the persisted message.
type ChatMessagePayload struct {
	To        string    `json:"to"`
	From      string    `json:"from"`
	Msg       string    `json:"msg"`
	MessageID string    `json:"messageId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// TypingPayload represents typing and stop-typing. To is only set outbound.
type TypingPayload struct {
	To   string `json:"to,omitempty"`
	From string `json:"from"`
}

// MessageEditedPayload represents an edit broadcast
type MessageEditedPayload struct {
	MessageID  string `json:"messageId"`
	NewMessage string `json:"newMessage"`
	To         string `json:"to,omitempty"`
}

// MessageDeletedPayload represents a delete broadcast
type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
	To        string `json:"to,omitempty"`
}

// PresencePayload represents user-online and user-offline
type PresencePayload struct {
	UserID string `json:"userId"`
}

// OnlineUsersPayload is the presence snapshot
type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

// NotifyPayload is a generic notification addressed to the user
type NotifyPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}
