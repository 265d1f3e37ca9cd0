// Package admin wraps the admin-only user management endpoints.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snappy/client/internal/models"
	"snappy/client/internal/session"

	"github.com/rs/zerolog"
)

var (
	// ErrNoToken is returned when the session carries no bearer token
	ErrNoToken = errors.New("admin: no access token, sign in again")

	// ErrTokenExpired is returned when the stored token is past its exp claim
	ErrTokenExpired = errors.New("admin: access token expired, sign in again")

	// ErrNotAdmin is returned when the signed-in user is not an admin
	ErrNotAdmin = errors.New("admin: signed-in user is not an admin")
)

// API is the admin part of the HTTP API
type API interface {
	AdminUsers(ctx context.Context, token string) ([]models.User, error)
	AdminUpdateRole(ctx context.Context, token, id string, role models.Role) error
	AdminDeleteUser(ctx context.Context, token, id string) error
}

// Service manages user accounts on behalf of an admin
type Service struct {
	api   API
	store *session.Store
	now   func() time.Time
	log   zerolog.Logger
}

// New creates the service
func New(api API, store *session.Store, logger zerolog.Logger) *Service {
	return &Service{
		api:   api,
		store: store,
		now:   time.Now,
		log:   logger.With().Str("component", "admin").Logger(),
	}
}

func (s *Service) token() (string, error) {
	cur, ok := s.store.Current()
	if !ok {
		return "", session.ErrNoSession
	}
	if !cur.User.IsAdmin() {
		return "", ErrNotAdmin
	}
	if cur.Token == "" {
		return "", ErrNoToken
	}
	if s.store.TokenExpired(s.now()) {
		return "", ErrTokenExpired
	}
	return cur.Token, nil
}

// Users lists every account
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	users, err := s.api.AdminUsers(ctx, tok)
	if err != nil {
		s.log.Error().Err(err).Msg("[admin] failed to list users")
		return nil, err
	}
	return users, nil
}

// UpdateRole sets the role of user id
func (s *Service) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("admin: unknown role %q", role)
	}
	tok, err := s.token()
	if err != nil {
		return err
	}
	if err := s.api.AdminUpdateRole(ctx, tok, id, role); err != nil {
		s.log.Error().Err(err).Str("user", id).Msg("[admin] failed to update role")
		return err
	}
	s.log.Info().Str("user", id).Str("role", string(role)).Msg("[admin] role updated")
	return nil
}

// DeleteUser removes user id
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	tok, err := s.token()
	if err != nil {
		return err
	}
	if err := s.api.AdminDeleteUser(ctx, tok, id); err != nil {
		s.log.Error().Err(err).Str("user", id).Msg("[admin] failed to delete user")
		return err
	}
	s.log.Info().Str("user", id).Msg("[admin] user deleted")
	return nil
}
