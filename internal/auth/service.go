// Package auth runs the login, registration, logout and avatar flows and
// keeps the session store in step with them.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"snappy/client/internal/api"
	"snappy/client/internal/models"
	"snappy/client/internal/session"

	"github.com/rs/zerolog"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError is a form problem caught before any request is made
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Destination is the view a successful sign-in leads to
type Destination int

const (
	DestChat Destination = iota
	DestAdmin
	DestAvatar
)

func (d Destination) String() string {
	switch d {
	case DestAdmin:
		return "admin"
	case DestAvatar:
		return "avatar"
	}
	return "chat"
}

// DestinationFor picks the view for user
func DestinationFor(user models.User) Destination {
	if user.IsAdmin() {
		return DestAdmin
	}
	if !user.IsAvatarImageSet {
		return DestAvatar
	}
	return DestChat
}

// API is the part of the HTTP API the auth flows use
type API interface {
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (api.AuthResult, error)
	Logout(ctx context.Context, userID string) error
	SetAvatar(ctx context.Context, userID, image string) (string, error)
}

// RegisterForm is the registration input
type RegisterForm struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate checks the form the same way the server expects it
func (f RegisterForm) Validate() error {
	if len([]rune(strings.TrimSpace(f.Username))) < 3 {
		return &ValidationError{Field: "username", Msg: "Username must be at least 3 characters."}
	}
	if !emailRegex.MatchString(f.Email) {
		return &ValidationError{Field: "email", Msg: "Please enter a valid email address."}
	}
	if len(f.Password) < 8 {
		return &ValidationError{Field: "password", Msg: "Password must be at least 8 characters."}
	}
	if f.Password != f.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Msg: "Passwords do not match."}
	}
	return nil
}

// Service runs the auth flows
type Service struct {
	api   API
	store *session.Store
	log   zerolog.Logger
}

// New creates the service
func New(api API, store *session.Store, logger zerolog.Logger) *Service {
	return &Service{
		api:   api,
		store: store,
		log:   logger.With().Str("component", "auth").Logger(),
	}
}

// Login signs in and persists the session
func (s *Service) Login(ctx context.Context, email, password string) (Destination, error) {
	if email == "" || password == "" {
		return DestChat, &ValidationError{Field: "email", Msg: "Email and password are required."}
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("[auth] login failed")
		return DestChat, err
	}
	if err := s.store.Save(res.User, res.Token); err != nil {
		return DestChat, err
	}
	s.log.Info().Str("user", res.User.ID).Str("role", string(res.User.Role)).Msg("[auth] signed in")
	return DestinationFor(res.User), nil
}

// Register creates the account and signs it in
func (s *Service) Register(ctx context.Context, form RegisterForm) (Destination, error) {
	if err := form.Validate(); err != nil {
		return DestChat, err
	}

	res, err := s.api.Register(ctx, form.Username, form.Email, form.Password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", form.Email).Msg("[auth] registration failed")
		return DestChat, err
	}
	if err := s.store.Save(res.User, res.Token); err != nil {
		return DestChat, err
	}
	s.log.Info().Str("user", res.User.ID).Msg("[auth] registered")
	return DestinationFor(res.User), nil
}

// Logout ends the session on the server and then forgets it locally. A
// failed request leaves the session in place.
func (s *Service) Logout(ctx context.Context) error {
	cur, ok := s.store.Current()
	if !ok {
		return session.ErrNoSession
	}
	if err := s.api.Logout(ctx, cur.User.ID); err != nil {
		s.log.Warn().Err(err).Msg("[auth] logout failed")
		return err
	}
	return s.store.Clear()
}

// NeedsAvatar reports whether the signed-in user still has to pick an avatar
func (s *Service) NeedsAvatar() bool {
	cur, ok := s.store.Current()
	return ok && !cur.User.IsAvatarImageSet
}

// SetAvatar uploads image as the avatar of the signed-in user
func (s *Service) SetAvatar(ctx context.Context, image string) error {
	if image == "" {
		return &ValidationError{Field: "image", Msg: "Please select an avatar."}
	}
	cur, ok := s.store.Current()
	if !ok {
		return session.ErrNoSession
	}
	stored, err := s.api.SetAvatar(ctx, cur.User.ID, image)
	if err != nil {
		return err
	}
	user := cur.User
	user.AvatarImage = stored
	user.IsAvatarImageSet = true
	return s.store.UpdateUser(user)
}

// IsValidation reports whether err is a form problem
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
