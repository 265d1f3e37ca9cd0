package presence

import (
	"encoding/json"
	"sort"
	"sync"

	"snappy/client/internal/realtime"

	"github.com/rs/zerolog"
)

// Tracker maintains the set of online user ids. It starts empty on every
// connection and is driven only by realtime events.
type Tracker struct {
	mu       sync.RWMutex
	online   map[string]struct{}
	onChange func()
	log      zerolog.Logger
}

// New creates an empty tracker
func New(logger zerolog.Logger) *Tracker {
	return &Tracker{
		online: make(map[string]struct{}),
		log:    logger.With().Str("component", "presence").Logger(),
	}
}

// OnChange sets the callback run after every membership change
func (t *Tracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// SetOnline adds one id
func (t *Tracker) SetOnline(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	t.online[userID] = struct{}{}
	t.mu.Unlock()
	t.changed()
}

// SetOffline removes one id
func (t *Tracker) SetOffline(userID string) {
	t.mu.Lock()
	delete(t.online, userID)
	t.mu.Unlock()
	t.changed()
}

// Replace swaps the whole set for a snapshot
func (t *Tracker) Replace(userIDs []string) {
	next := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			next[id] = struct{}{}
		}
	}
	t.mu.Lock()
	t.online = next
	t.mu.Unlock()
	t.changed()
}

// Reset empties the set, as at the start of a connection
func (t *Tracker) Reset() {
	t.Replace(nil)
}

// IsOnline reports whether userID is in the set
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

// Online returns the set members, sorted
func (t *Tracker) Online() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the set size
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.online)
}

// Bind registers the presence handlers on sub and returns the unbinder
func (t *Tracker) Bind(sub realtime.Subscriber) func() {
	offs := []func(){
		sub.On(realtime.EventUserOnline, t.handleOnline),
		sub.On(realtime.EventUserOffline, t.handleOffline),
		sub.On(realtime.EventOnlineUsers, t.handleSnapshot),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (t *Tracker) handleOnline(raw json.RawMessage) {
	var p realtime.PresencePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.log.Warn().Err(err).Msg("[presence] bad user-online payload")
		return
	}
	t.SetOnline(p.UserID)
}

func (t *Tracker) handleOffline(raw json.RawMessage) {
	var p realtime.PresencePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.log.Warn().Err(err).Msg("[presence] bad user-offline payload")
		return
	}
	t.SetOffline(p.UserID)
}

func (t *Tracker) handleSnapshot(raw json.RawMessage) {
	var p realtime.OnlineUsersPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.log.Warn().Err(err).Msg("[presence] bad online-users payload")
		return
	}
	t.Replace(p.UserIDs)
	t.log.Debug().Int("online", len(p.UserIDs)).Msg("[presence] snapshot applied")
}

func (t *Tracker) changed() {
	t.mu.RLock()
	fn := t.onChange
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
