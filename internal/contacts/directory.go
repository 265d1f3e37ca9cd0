// Package contacts keeps the friend list and the pending incoming requests of
// the signed-in user.
package contacts

import (
	"context"
	"errors"
	"strings"
	"sync"

	"snappy/client/internal/models"

	"github.com/rs/zerolog"
)

// ErrEmptyEmail is returned when a friend request has no receiver
var ErrEmptyEmail = errors.New("contacts: receiver email is required")

// API is the part of the HTTP API the directory talks to
type API interface {
	Friends(ctx context.Context, userID string) ([]models.User, error)
	PendingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error)
	SendFriendRequest(ctx context.Context, senderEmail, receiverEmail string) error
	AcceptFriendRequest(ctx context.Context, senderID, receiverID string) error
	DeclineFriendRequest(ctx context.Context, senderID, receiverID string) error
}

// Directory holds the friends and pending requests of one user
type Directory struct {
	api API
	me  models.User
	log zerolog.Logger

	mu       sync.RWMutex
	friends  []models.Contact
	pending  []models.FriendRequest
	onChange func()
}

// New creates an empty directory for me
func New(api API, me models.User, logger zerolog.Logger) *Directory {
	return &Directory{
		api: api,
		me:  me,
		log: logger.With().Str("component", "contacts").Logger(),
	}
}

// OnChange sets the callback run after the lists change
func (d *Directory) OnChange(fn func()) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

// ListFriends fetches the friend list. On failure the list is emptied.
func (d *Directory) ListFriends(ctx context.Context) error {
	friends, err := d.api.Friends(ctx, d.me.ID)
	d.mu.Lock()
	if err != nil {
		d.friends = nil
	} else {
		d.friends = friends
	}
	d.mu.Unlock()
	d.changed()

	if err != nil {
		d.log.Error().Err(err).Msg("[contacts] failed to list friends")
	}
	return err
}

// ListPending fetches the pending requests. On failure the previous list stays.
func (d *Directory) ListPending(ctx context.Context) error {
	pending, err := d.api.PendingRequests(ctx, d.me.ID)
	if err != nil {
		d.log.Error().Err(err).Msg("[contacts] failed to list pending requests")
		return err
	}
	d.mu.Lock()
	d.pending = pending
	d.mu.Unlock()
	d.changed()
	return nil
}

// Refresh reloads both lists and returns the first error
func (d *Directory) Refresh(ctx context.Context) error {
	errFriends := d.ListFriends(ctx)
	errPending := d.ListPending(ctx)
	if errFriends != nil {
		return errFriends
	}
	return errPending
}

// SendRequest asks the user registered with receiverEmail to become a friend
func (d *Directory) SendRequest(ctx context.Context, receiverEmail string) error {
	receiverEmail = strings.TrimSpace(receiverEmail)
	if receiverEmail == "" {
		return ErrEmptyEmail
	}
	if err := d.api.SendFriendRequest(ctx, d.me.Email, receiverEmail); err != nil {
		d.log.Error().Err(err).Str("to", receiverEmail).Msg("[contacts] failed to send request")
		return err
	}
	d.log.Info().Str("to", receiverEmail).Msg("[contacts] friend request sent")
	return nil
}

// Accept accepts the request from senderID and drops it from the pending list.
// The friend list is not reloaded.
func (d *Directory) Accept(ctx context.Context, senderID string) error {
	if err := d.api.AcceptFriendRequest(ctx, senderID, d.me.ID); err != nil {
		d.log.Error().Err(err).Str("from", senderID).Msg("[contacts] failed to accept request")
		return err
	}
	d.dropPending(senderID)
	return nil
}

// Decline declines the request from senderID and drops it from the pending list
func (d *Directory) Decline(ctx context.Context, senderID string) error {
	if err := d.api.DeclineFriendRequest(ctx, senderID, d.me.ID); err != nil {
		d.log.Error().Err(err).Str("from", senderID).Msg("[contacts] failed to decline request")
		return err
	}
	d.dropPending(senderID)
	return nil
}

func (d *Directory) dropPending(senderID string) {
	d.mu.Lock()
	kept := d.pending[:0:0]
	for _, r := range d.pending {
		if r.SenderID != senderID {
			kept = append(kept, r)
		}
	}
	d.pending = kept
	d.mu.Unlock()
	d.changed()
}

// Friends returns a snapshot of the friend list
func (d *Directory) Friends() []models.Contact {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Contact(nil), d.friends...)
}

// Pending returns a snapshot of the pending requests
func (d *Directory) Pending() []models.FriendRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.FriendRequest(nil), d.pending...)
}

// Friend looks a friend up by id
func (d *Directory) Friend(id string) (models.Contact, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, f := range d.friends {
		if f.ID == id {
			return f, true
		}
	}
	return models.Contact{}, false
}

func (d *Directory) changed() {
	d.mu.RLock()
	fn := d.onChange
	d.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
