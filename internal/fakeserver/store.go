package fakeserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"snappy/client/internal/models"

	"github.com/google/uuid"
)

var (
	errEmailTaken    = errors.New("Email already used")
	errUsernameTaken = errors.New("Username already used")
	errUserNotFound  = errors.New("User not found")
	errAlreadyFriend = errors.New("You are already friends")
	errRequestExists = errors.New("Friend request already sent")
	errSelfRequest   = errors.New("You cannot send a request to yourself")
	errNoRequest     = errors.New("Friend request not found")
	errNoMessage     = errors.New("Message not found")
	errNotOwner      = errors.New("You can only change your own messages")
)

type userRecord struct {
	models.User
	PasswordHash []byte
}

type messageRecord struct {
	ID        string
	From      string
	To        string
	Text      string
	CreatedAt time.Time
}

func (m messageRecord) view(self string) models.Message {
	return models.Message{
		ID:        m.ID,
		Sender:    m.From,
		Recipient: m.To,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
		FromSelf:  m.From == self,
	}
}

type requestRecord struct {
	ID         string
	SenderID   string
	ReceiverID string
}

// store is the in-memory database of the fake backend
type store struct {
	mu       sync.RWMutex
	users    map[string]*userRecord
	byEmail  map[string]string
	friends  map[string]map[string]struct{}
	requests []requestRecord
	messages []messageRecord
}

func newStore() *store {
	return &store{
		users:   make(map[string]*userRecord),
		byEmail: make(map[string]string),
		friends: make(map[string]map[string]struct{}),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *store) createUser(username, email string, hash []byte, role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[emailKey(email)]; ok {
		return models.User{}, errEmailTaken
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return models.User{}, errUsernameTaken
		}
	}
	if role == "" {
		role = models.RoleUser
	}
	rec := &userRecord{
		User: models.User{
			ID:       uuid.NewString(),
			Username: username,
			Email:    email,
			Role:     role,
		},
		PasswordHash: hash,
	}
	s.users[rec.ID] = rec
	s.byEmail[emailKey(email)] = rec.ID
	return rec.User, nil
}

func (s *store) userByEmail(email string) (userRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return userRecord{}, false
	}
	return *s.users[id], true
}

func (s *store) user(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return rec.User, true
}

func (s *store) setAvatar(id, image string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, errUserNotFound
	}
	rec.AvatarImage = image
	rec.IsAvatarImageSet = image != ""
	return rec.User, nil
}

func (s *store) setRole(id string, role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, errUserNotFound
	}
	rec.Role = role
	return rec.User, nil
}

func (s *store) deleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return errUserNotFound
	}
	delete(s.users, id)
	delete(s.byEmail, emailKey(rec.Email))
	for other := range s.friends[id] {
		delete(s.friends[other], id)
	}
	delete(s.friends, id)

	kept := s.requests[:0]
	for _, r := range s.requests {
		if r.SenderID != id && r.ReceiverID != id {
			kept = append(kept, r)
		}
	}
	s.requests = kept
	return nil
}

func (s *store) listUsers() []models.User {
	s.mu.RLock()
	out := make([]models.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.User)
	}
	s.mu.RUnlock()
	sortUsers(out)
	return out
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
	})
}

func (s *store) addFriendsLocked(a, b string) {
	if s.friends[a] == nil {
		s.friends[a] = make(map[string]struct{})
	}
	if s.friends[b] == nil {
		s.friends[b] = make(map[string]struct{})
	}
	s.friends[a][b] = struct{}{}
	s.friends[b][a] = struct{}{}
}

func (s *store) makeFriends(a, b string) {
	s.mu.Lock()
	s.addFriendsLocked(a, b)
	s.mu.Unlock()
}

func (s *store) friendsOf(id string) []models.User {
	s.mu.RLock()
	out := make([]models.User, 0, len(s.friends[id]))
	for fid := range s.friends[id] {
		if rec, ok := s.users[fid]; ok {
			out = append(out, rec.User)
		}
	}
	s.mu.RUnlock()
	sortUsers(out)
	return out
}

func (s *store) addRequest(senderID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if senderID == receiverID {
		return errSelfRequest
	}
	if _, ok := s.friends[senderID][receiverID]; ok {
		return errAlreadyFriend
	}
	for _, r := range s.requests {
		if r.SenderID == senderID && r.ReceiverID == receiverID {
			return errRequestExists
		}
	}
	s.requests = append(s.requests, requestRecord{ID: uuid.NewString(), SenderID: senderID, ReceiverID: receiverID})
	return nil
}

// takeRequest removes the request and, when accept is set, befriends both users
func (s *store) takeRequest(senderID, receiverID string, accept bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.SenderID == senderID && r.ReceiverID == receiverID {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			if accept {
				s.addFriendsLocked(senderID, receiverID)
			}
			return nil
		}
	}
	return errNoRequest
}

func (s *store) pendingFor(receiverID string) []models.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FriendRequest, 0)
	for _, r := range s.requests {
		if r.ReceiverID != receiverID {
			continue
		}
		sender, ok := s.users[r.SenderID]
		if !ok {
			continue
		}
		out = append(out, models.FriendRequest{
			ID:       r.ID,
			SenderID: r.SenderID,
			Username: sender.Username,
			Email:    sender.Email,
		})
	}
	return out
}

func (s *store) addMessage(from, to, text string, at time.Time) messageRecord {
	m := messageRecord{ID: uuid.NewString(), From: from, To: to, Text: text, CreatedAt: at}
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return m
}

func (s *store) conversation(a, b string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, 0)
	for _, m := range s.messages {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, m.view(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *store) editMessage(id, userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID != id {
			continue
		}
		if s.messages[i].From != userID {
			return errNotOwner
		}
		s.messages[i].Text = text
		return nil
	}
	return errNoMessage
}

func (s *store) deleteMessage(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID != id {
			continue
		}
		if m.From != userID {
			return errNotOwner
		}
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
		return nil
	}
	return errNoMessage
}
