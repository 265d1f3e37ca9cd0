package fakeserver

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"snappy/client/internal/realtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and routes events between them
type Hub struct {
	// Registered clients mapped by user ID
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once

	log zerolog.Logger
	mu  sync.RWMutex
}

// NewHub creates a new hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		log:        logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Stop ends the main loop and closes every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Register hands a new connection to the hub
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a connection from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// If user already has a connection, close the old one
	if existing, ok := h.clients[client.ID]; ok {
		close(existing.send)
	}
	h.clients[client.ID] = client
	h.log.Debug().Str("user", client.ID).Msg("[hub] client connected")
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.ID]
	if !ok || current != client {
		// already replaced by a newer connection
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	close(client.send)
	joined := client.isJoined()
	h.mu.Unlock()

	if joined {
		h.broadcast(realtime.EventUserOffline, realtime.PresencePayload{UserID: client.ID}, client.ID)
	}
	h.log.Debug().Str("user", client.ID).Msg("[hub] client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

func frame(event realtime.EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(realtime.Envelope{
		ID:        uuid.NewString(),
		Type:      event,
		Payload:   raw,
		Timestamp: time.Now(),
	})
}

// SendToUser sends an event to a specific user
func (h *Hub) SendToUser(userID string, event realtime.EventType, payload any) bool {
	data, err := frame(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(event)).Msg("[hub] failed to marshal event")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		h.log.Warn().Str("user", userID).Msg("[hub] send buffer full, dropping event")
		return false
	}
}

// broadcast sends an event to every joined client except excludeUserID
func (h *Hub) broadcast(event realtime.EventType, payload any, excludeUserID string) {
	data, err := frame(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(event)).Msg("[hub] failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.clients {
		if id == excludeUserID || !client.isJoined() {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.log.Warn().Str("user", id).Msg("[hub] send buffer full, dropping event")
		}
	}
}

// IsUserOnline checks if a user has joined
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[userID]
	return ok && c.isJoined()
}

// OnlineUsers returns the joined user IDs, sorted
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	userIDs := make([]string, 0, len(h.clients))
	for id, c := range h.clients {
		if c.isJoined() {
			userIDs = append(userIDs, id)
		}
	}
	h.mu.RUnlock()

	sort.Strings(userIDs)
	return userIDs
}
