// Package chat composes the session, the contact directory, presence, the
// message timeline and the realtime channel into the main chat view.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"strings"
	"sync"
	"time"

	"snappy/client/internal/api"
	"snappy/client/internal/contacts"
	"snappy/client/internal/models"
	"snappy/client/internal/presence"
	"snappy/client/internal/realtime"
	"snappy/client/internal/session"
	"snappy/client/internal/timeline"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Channel is the realtime connection as the controller uses it
type Channel interface {
	realtime.Subscriber
	realtime.Emitter
	Close() error
	Done() <-chan struct{}
	Err() error
}

// Dialer opens the realtime channel for userID
type Dialer func(ctx context.Context, userID string) (Channel, error)

// RealtimeDialer dials websocket channels with cfg
func RealtimeDialer(cfg realtime.Config, logger zerolog.Logger) Dialer {
	return func(ctx context.Context, userID string) (Channel, error) {
		ch, err := realtime.Dial(ctx, cfg, userID, logger)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

// API is the part of the HTTP API the chat view uses
type API interface {
	timeline.MessageAPI
	contacts.API
}

// Logouter ends the session on the server and locally
type Logouter interface {
	Logout(ctx context.Context) error
}

// Notification is something worth telling the user about
type Notification struct {
	From  string // user id, empty for local errors
	Name  string
	Text  string
	Error bool
}

// Notifier receives notifications. It runs on whatever goroutine produced
// the notification and must not call Close.
type Notifier func(Notification)

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithNotifier sets the notification callback
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notify = n }
}

// WithTypingTimeout overrides the typing signal timeout
func WithTypingTimeout(d time.Duration) Option {
	return func(c *Controller) { c.typingTimeout = d }
}

// WithClock replaces time.Now for the edit window
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns no business state of its own. It holds the components and
// the single realtime channel of the session and forwards user intents.
type Controller struct {
	me            models.User
	dial          Dialer
	logout        Logouter
	notify        Notifier
	typingTimeout time.Duration
	now           func() time.Time
	policy        *bluemonday.Policy
	log           zerolog.Logger

	directory *contacts.Directory
	presence  *presence.Tracker
	timeline  *timeline.Timeline

	mu    sync.Mutex
	ch    Channel
	scope *realtime.Scope
}

// New creates the controller for the signed-in user of store
func New(store *session.Store, api API, logout Logouter, dial Dialer, opts ...Option) (*Controller, error) {
	cur, ok := store.Current()
	if !ok {
		return nil, session.ErrNoSession
	}

	c := &Controller{
		me:     cur.User,
		dial:   dial,
		logout: logout,
		now:    time.Now,
		policy: bluemonday.StrictPolicy(),
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("user", c.me.ID).Logger()

	c.directory = contacts.New(api, c.me, c.log)
	c.presence = presence.New(c.log)
	c.timeline = timeline.New(api, c, c.me.ID,
		timeline.WithLogger(c.log),
		timeline.WithClock(c.now),
		timeline.WithTypingTimeout(c.typingTimeout),
	)
	return c, nil
}

// Me returns the signed-in user
func (c *Controller) Me() models.User { return c.me }

// Directory returns the contact directory
func (c *Controller) Directory() *contacts.Directory { return c.directory }

// Presence returns the presence tracker
func (c *Controller) Presence() *presence.Tracker { return c.presence }

// Timeline returns the message timeline
func (c *Controller) Timeline() *timeline.Timeline { return c.timeline }

// OnChange installs fn as the change callback of every component
func (c *Controller) OnChange(fn func()) {
	c.directory.OnChange(fn)
	c.presence.OnChange(fn)
	c.timeline.OnChange(fn)
}

// Connected reports whether a realtime channel is open
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch != nil
}

// Start opens the realtime channel, binds every inbound handler inside one
// scope, asks for the presence snapshot and loads the contact lists. A
// previous channel is closed first and the conversation that was open is
// opened again. Any failure leaves nothing connected.
func (c *Controller) Start(ctx context.Context) error {
	reopen := c.timeline.Contact()
	c.Close()

	ch, err := c.dial(ctx, c.me.ID)
	if err != nil {
		c.log.Error().Err(err).Msg("[chat] failed to connect")
		return err
	}

	scope := realtime.NewScope(ch)
	c.presence.Reset()
	c.presence.Bind(scope)
	c.timeline.Bind(scope)
	scope.On(realtime.EventNotifyUser, c.handleNotify)

	c.mu.Lock()
	c.ch = ch
	c.scope = scope
	c.mu.Unlock()

	if err := ch.Emit(realtime.EventRequestOnlineUsers, struct{}{}); err != nil {
		c.log.Error().Err(err).Msg("[chat] failed to request online users")
		c.Close()
		return err
	}
	go c.watch(ch)

	if err := c.directory.Refresh(ctx); err != nil {
		c.report(err)
	}
	if reopen != "" {
		if err := c.timeline.Select(ctx, reopen); err != nil {
			c.report(err)
		}
	}
	c.log.Info().Int("handlers", scope.Len()).Msg("[chat] started")
	return nil
}

// watch detaches and reports a channel that ends without Close being called
func (c *Controller) watch(ch Channel) {
	<-ch.Done()
	err := ch.Err()

	c.mu.Lock()
	if c.ch != ch {
		c.mu.Unlock()
		return
	}
	scope := c.scope
	c.ch, c.scope = nil, nil
	c.mu.Unlock()

	scope.Close()
	ch.Close()
	c.presence.Reset()
	if err == nil {
		err = realtime.ErrClosed
	}
	c.log.Warn().Err(err).Msg("[chat] realtime connection lost")
	c.report(err)
}

// Emit forwards an outbound event to the current channel
func (c *Controller) Emit(event realtime.EventType, payload any) error {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch == nil {
		return realtime.ErrClosed
	}
	return ch.Emit(event, payload)
}

// Close tears the realtime channel down and resets presence and the
// timeline. It is safe to call at any time and more than once, but not from
// inside a realtime handler.
func (c *Controller) Close() error {
	// tell the contact we stopped typing while the channel is still there
	c.timeline.StopTyping()

	c.mu.Lock()
	ch, scope := c.ch, c.scope
	c.ch, c.scope = nil, nil
	c.mu.Unlock()

	if scope != nil {
		scope.Close()
	}
	var err error
	if ch != nil {
		err = ch.Close()
		c.log.Info().Msg("[chat] stopped")
	}
	c.timeline.Reset()
	c.presence.Reset()
	return err
}

// Logout ends the session on the server and then closes the channel. A
// failed logout leaves everything as it was.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.logout.Logout(ctx); err != nil {
		c.report(err)
		return err
	}
	return c.Close()
}

// Select opens the conversation with contactID
func (c *Controller) Select(ctx context.Context, contactID string) error {
	return c.timeline.Select(ctx, contactID)
}

// Send sends text to the active contact
func (c *Controller) Send(ctx context.Context, text string) error {
	return c.timeline.Send(ctx, text)
}

// Edit changes one of our messages
func (c *Controller) Edit(ctx context.Context, messageID, text string) error {
	return c.timeline.Edit(ctx, messageID, text)
}

// Remove deletes one of our messages
func (c *Controller) Remove(ctx context.Context, messageID string) error {
	return c.timeline.Remove(ctx, messageID)
}

// Keystroke signals typing to the active contact
func (c *Controller) Keystroke() {
	if err := c.timeline.Keystroke(); err != nil {
		c.log.Debug().Err(err).Msg("[chat] typing signal not sent")
	}
}

// SendRequest sends a friend request to receiverEmail
func (c *Controller) SendRequest(ctx context.Context, receiverEmail string) error {
	return c.directory.SendRequest(ctx, receiverEmail)
}

// Accept accepts the friend request from senderID
func (c *Controller) Accept(ctx context.Context, senderID string) error {
	return c.directory.Accept(ctx, senderID)
}

// Decline declines the friend request from senderID
func (c *Controller) Decline(ctx context.Context, senderID string) error {
	return c.directory.Decline(ctx, senderID)
}

// RefreshContacts reloads friends and pending requests
func (c *Controller) RefreshContacts(ctx context.Context) error {
	return c.directory.Refresh(ctx)
}

func (c *Controller) handleNotify(raw json.RawMessage) {
	var p realtime.NotifyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.Warn().Err(err).Msg("[chat] bad notify-user payload")
		return
	}
	// the open conversation already shows it
	if p.From != "" && p.From == c.timeline.Contact() && c.timeline.State() == timeline.StateReady {
		return
	}

	n := Notification{
		From: p.From,
		Name: c.displayName(p.From),
		Text: c.sanitize(p.Message),
	}
	if c.notify != nil {
		c.notify(n)
	}
}

func (c *Controller) displayName(userID string) string {
	if f, ok := c.directory.Friend(userID); ok {
		return f.Username
	}
	for _, r := range c.directory.Pending() {
		if r.SenderID == userID {
			return r.Username
		}
	}
	return userID
}

// sanitize strips markup from server-supplied text
func (c *Controller) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}

func (c *Controller) report(err error) {
	if c.notify != nil {
		c.notify(Notification{Text: ErrorText(err), Error: true})
	}
}

// ErrorText turns err into something to show the user
func ErrorText(err error) string {
	var (
		se  *api.ServerError
		ste *api.StatusError
		te  *api.TransportError
	)
	if errors.As(err, &se) || errors.As(err, &ste) || errors.As(err, &te) {
		return api.UserMessage(err)
	}
	return err.Error()
}
