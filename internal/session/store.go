// Package session persists the signed-in user between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"snappy/client/internal/models"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// ErrNoSession is returned when nobody is signed in
var ErrNoSession = errors.New("session: not signed in")

const tokenKey = "token"

// Session is the persisted identity of the signed-in user
type Session struct {
	User  models.User
	Token string
}

// Store is the single source of identity. It is opened once at startup and
// handed to every component that needs to know who is signed in.
type Store struct {
	db      *pebble.DB
	userKey []byte
	log     zerolog.Logger

	mu     sync.RWMutex
	cur    *Session
	loaded bool
}

// Open opens the store under dir. key names the record holding the user.
func Open(dir, key string, logger zerolog.Logger) (*Store, error) {
	path := filepath.Join(filepath.Clean(dir), "session")
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	return newStore(db, key, logger), nil
}

// OpenInMemory opens a store that lives only as long as the process
func OpenInMemory(key string, logger zerolog.Logger) (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	return newStore(db, key, logger), nil
}

func newStore(db *pebble.DB, key string, logger zerolog.Logger) *Store {
	if key == "" {
		key = "snappy-user"
	}
	return &Store{
		db:      db,
		userKey: []byte(key),
		log:     logger.With().Str("component", "session").Logger(),
	}
}

// Load reads the persisted session. Later calls return the cached copy.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		if s.cur == nil {
			return Session{}, ErrNoSession
		}
		return *s.cur, nil
	}

	raw, err := s.get(s.userKey)
	if err != nil {
		return Session{}, err
	}
	s.loaded = true
	if raw == nil {
		return Session{}, ErrNoSession
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.log.Warn().Err(err).Msg("[session] discarding unreadable user record")
		return Session{}, ErrNoSession
	}
	token, err := s.get([]byte(tokenKey))
	if err != nil {
		return Session{}, err
	}
	s.cur = &Session{User: user, Token: string(token)}
	return *s.cur, nil
}

// Current returns the session if one is active
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Session{}, false
	}
	return *s.cur, true
}

// Save persists user and token as the active session
func (s *Store) Save(user models.User, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(s.userKey, raw, nil); err != nil {
		return err
	}
	if token != "" {
		err = b.Set([]byte(tokenKey), []byte(token), nil)
	} else {
		err = b.Delete([]byte(tokenKey), nil)
	}
	if err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.cur = &Session{User: user, Token: token}
	s.loaded = true
	s.mu.Unlock()
	s.log.Info().Str("user", user.ID).Msg("[session] saved")
	return nil
}

// UpdateUser replaces the stored user and keeps the token
func (s *Store) UpdateUser(user models.User) error {
	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()
	if cur == nil {
		return ErrNoSession
	}
	return s.Save(user, cur.Token)
}

// Clear forgets the session
func (s *Store) Clear() error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(s.userKey, nil); err != nil {
		return err
	}
	if err := b.Delete([]byte(tokenKey), nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.mu.Lock()
	s.cur = nil
	s.loaded = true
	s.mu.Unlock()
	s.log.Info().Msg("[session] cleared")
	return nil
}

// TokenExpiry returns the exp claim of the stored token. The signature is
// not checked; only the backend can do that.
func (s *Store) TokenExpiry() (time.Time, bool) {
	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()
	if cur == nil || cur.Token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(cur.Token)
}

// TokenExpired reports whether the stored token carries an exp claim at or
// before now
func (s *Store) TokenExpired(now time.Time) bool {
	exp, ok := s.TokenExpiry()
	return ok && !exp.After(now)
}

func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key []byte) ([]byte, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	defer closeQuietly(closer)
	return append([]byte(nil), val...), nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
