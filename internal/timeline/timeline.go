// Package timeline holds the message history of the active conversation and
// keeps it in step with the server and the realtime channel.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"snappy/client/internal/models"
	"snappy/client/internal/realtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTypingTimeout is how long a typing signal stays valid without a
// follow-up, in both directions.
const DefaultTypingTimeout = 1500 * time.Millisecond

var (
	// ErrNoConversation is returned by operations that need an active contact
	ErrNoConversation = errors.New("timeline: no active conversation")

	// ErrNotFound is returned when the message id is not in the timeline
	ErrNotFound = errors.New("timeline: message not found")

	// ErrNotEligible is returned when the message is not ours or is past the edit window
	ErrNotEligible = errors.New("timeline: message can no longer be modified")
)

// State is the lifecycle state of the timeline
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MessageAPI is the part of the HTTP API the timeline talks to
type MessageAPI interface {
	AddMessage(ctx context.Context, from, to, text string) (models.Message, error)
	GetMessages(ctx context.Context, from, to string) ([]models.Message, error)
	EditMessage(ctx context.Context, messageID, text, userID, to string) error
	DeleteMessage(ctx context.Context, messageID, userID, to string) error
}

// Option configures a Timeline
type Option func(*Timeline)

// WithClock replaces time.Now for edit window checks
func WithClock(now func() time.Time) Option {
	return func(t *Timeline) { t.now = now }
}

// WithTypingTimeout overrides DefaultTypingTimeout
func WithTypingTimeout(d time.Duration) Option {
	return func(t *Timeline) {
		if d > 0 {
			t.typingTimeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(t *Timeline) { t.log = l }
}

// Timeline is the ordered message list between the current user and one
// contact. Every Select starts a new generation; results that complete under
// an older generation are dropped.
type Timeline struct {
	api           MessageAPI
	emit          realtime.Emitter
	self          string
	now           func() time.Time
	typingTimeout time.Duration
	log           zerolog.Logger

	mu       sync.Mutex
	gen      uint64
	contact  string
	state    State
	err      error
	messages []models.Message
	onChange func()

	// inbound changes seen while a history request is in flight, replayed
	// over the history once it arrives
	loads   int
	backlog []inbound

	// inbound typing indicator of the active contact
	typing      bool
	typingSeq   uint64
	typingTimer *time.Timer

	// outbound typing signal
	outTo    string
	outSeq   uint64
	outTimer *time.Timer
}

// New creates an idle timeline for the user self
func New(api MessageAPI, emit realtime.Emitter, self string, opts ...Option) *Timeline {
	t := &Timeline{
		api:           api,
		emit:          emit,
		self:          self,
		now:           time.Now,
		typingTimeout: DefaultTypingTimeout,
		log:           log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With().Str("component", "timeline").Logger()
	return t
}

// OnChange sets the callback run after every state change
func (t *Timeline) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Select makes contactID the active conversation and loads its history.
// An empty id returns the timeline to idle.
func (t *Timeline) Select(ctx context.Context, contactID string) error {
	t.StopTyping()

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.contact = contactID
	t.messages = nil
	t.err = nil
	t.loads, t.backlog = 0, nil
	t.clearTypingLocked()
	if contactID == "" {
		t.state = StateIdle
		t.mu.Unlock()
		t.changed()
		return nil
	}
	t.state = StateLoading
	t.loads = 1
	t.mu.Unlock()
	t.changed()

	return t.fetch(ctx, gen, contactID)
}

// Load fetches the history of the active conversation again
func (t *Timeline) Load(ctx context.Context) error {
	t.mu.Lock()
	gen, contact := t.gen, t.contact
	t.mu.Unlock()
	if contact == "" {
		return ErrNoConversation
	}
	return t.load(ctx, gen, contact)
}

func (t *Timeline) load(ctx context.Context, gen uint64, contact string) error {
	t.mu.Lock()
	if gen == t.gen {
		t.loads++
	}
	t.mu.Unlock()
	return t.fetch(ctx, gen, contact)
}

// fetch runs one history request already counted in loads
func (t *Timeline) fetch(ctx context.Context, gen uint64, contact string) error {
	msgs, err := t.api.GetMessages(ctx, t.self, contact)

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		t.log.Debug().Str("contact", contact).Msg("[timeline] dropped stale history")
		return nil
	}
	t.loads--
	backlog := t.backlog
	if t.loads == 0 {
		t.backlog = nil
	}
	if err != nil {
		t.messages = nil
		t.state = StateError
		t.err = err
		t.mu.Unlock()
		t.log.Error().Err(err).Str("contact", contact).Msg("[timeline] failed to load history")
		t.changed()
		return err
	}
	for i := range msgs {
		msgs[i].Normalize(t.self)
	}
	t.messages = msgs
	for _, in := range backlog {
		t.applyLocked(in)
	}
	t.state = StateReady
	t.err = nil
	t.mu.Unlock()
	t.changed()
	return nil
}

// Reset drops the conversation without contacting anyone
func (t *Timeline) Reset() {
	t.mu.Lock()
	t.gen++
	t.contact = ""
	t.state = StateIdle
	t.err = nil
	t.messages = nil
	t.loads, t.backlog = 0, nil
	t.clearTypingLocked()
	t.mu.Unlock()
	t.cancelOutbound()
	t.changed()
}

// Send persists text to the active contact and, once the server confirmed
// it, notifies the contact over the realtime channel. Whitespace-only text
// is ignored.
func (t *Timeline) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	t.mu.Lock()
	gen, contact := t.gen, t.contact
	t.mu.Unlock()
	if contact == "" {
		return ErrNoConversation
	}

	msg, err := t.api.AddMessage(ctx, t.self, contact, text)
	if err != nil {
		t.log.Error().Err(err).Str("contact", contact).Msg("[timeline] send failed")
		return err
	}
	msg.Normalize(t.self)
	if msg.Sender == "" {
		msg.FromSelf = true
	}

	t.mu.Lock()
	current := gen == t.gen
	if current && t.indexLocked(msg.ID) < 0 {
		t.messages = append(t.messages, msg)
	}
	t.mu.Unlock()
	if current {
		t.changed()
	}

	emitErr := t.emit.Emit(realtime.EventSendMessage, realtime.ChatMessagePayload{
		To:        contact,
		From:      t.self,
		Msg:       msg.Text,
		MessageID: msg.ID,
		CreatedAt: msg.CreatedAt,
	})
	if emitErr != nil {
		t.log.Warn().Err(emitErr).Msg("[timeline] failed to emit send-message")
	}
	t.cancelOutbound()
	t.emitStopTyping(contact)

	if !current {
		return nil
	}
	if err := t.load(ctx, gen, contact); err != nil {
		return err
	}
	if emitErr != nil {
		return fmt.Errorf("message saved but not delivered live: %w", emitErr)
	}
	return nil
}

// Edit replaces the text of one of our messages inside the edit window.
// Empty or unchanged text is ignored.
func (t *Timeline) Edit(ctx context.Context, messageID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	gen, contact, msg, err := t.eligible(messageID)
	if err != nil {
		return err
	}
	if msg.Text == text {
		return nil
	}

	if err := t.api.EditMessage(ctx, messageID, text, t.self, contact); err != nil {
		t.log.Error().Err(err).Str("message", messageID).Msg("[timeline] edit failed")
		return err
	}
	emitErr := t.emit.Emit(realtime.EventMessageEdited, realtime.MessageEditedPayload{
		MessageID:  messageID,
		NewMessage: text,
		To:         contact,
	})

	t.mu.Lock()
	patched := gen == t.gen && t.patchLocked(messageID, text)
	t.mu.Unlock()
	if patched {
		t.changed()
	}

	if emitErr != nil {
		t.log.Warn().Err(emitErr).Msg("[timeline] failed to emit message-edited")
		return fmt.Errorf("edit saved but not delivered live: %w", emitErr)
	}
	return nil
}

// Remove deletes one of our messages inside the edit window
func (t *Timeline) Remove(ctx context.Context, messageID string) error {
	gen, contact, _, err := t.eligible(messageID)
	if err != nil {
		return err
	}

	if err := t.api.DeleteMessage(ctx, messageID, t.self, contact); err != nil {
		t.log.Error().Err(err).Str("message", messageID).Msg("[timeline] delete failed")
		return err
	}
	emitErr := t.emit.Emit(realtime.EventMessageDeleted, realtime.MessageDeletedPayload{
		MessageID: messageID,
		To:        contact,
	})

	t.mu.Lock()
	removed := gen == t.gen && t.removeLocked(messageID)
	t.mu.Unlock()
	if removed {
		t.changed()
	}

	if emitErr != nil {
		t.log.Warn().Err(emitErr).Msg("[timeline] failed to emit message-deleted")
		return fmt.Errorf("delete saved but not delivered live: %w", emitErr)
	}
	return nil
}

func (t *Timeline) eligible(messageID string) (uint64, string, models.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.contact == "" {
		return 0, "", models.Message{}, ErrNoConversation
	}
	i := t.indexLocked(messageID)
	if i < 0 {
		return 0, "", models.Message{}, ErrNotFound
	}
	msg := t.messages[i]
	if !msg.CanModify(t.now()) {
		return 0, "", models.Message{}, ErrNotEligible
	}
	return t.gen, t.contact, msg, nil
}

// Messages returns a copy of the current sequence, oldest first
func (t *Timeline) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Message(nil), t.messages...)
}

// State returns the lifecycle state
func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the error of the last failed load
func (t *Timeline) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Contact returns the id of the active contact
func (t *Timeline) Contact() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.contact
}

// CanModify reports whether messageID may be edited or deleted right now
func (t *Timeline) CanModify(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexLocked(messageID)
	return i >= 0 && t.messages[i].CanModify(t.now())
}

func (t *Timeline) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, m := range t.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (t *Timeline) patchLocked(id, text string) bool {
	i := t.indexLocked(id)
	if i < 0 {
		return false
	}
	t.messages[i].Text = text
	return true
}

func (t *Timeline) removeLocked(id string) bool {
	i := t.indexLocked(id)
	if i < 0 {
		return false
	}
	t.messages = append(t.messages[:i:i], t.messages[i+1:]...)
	return true
}

func (t *Timeline) changed() {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}
