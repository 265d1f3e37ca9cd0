// Package fakeserver is an in-memory backend that speaks the same HTTP and
// realtime protocol as the snappy API. Tests run against it and `snappy
// devserver` serves it locally.
package fakeserver

import (
	"fmt"
	"net"
	"time"

	"snappy/client/internal/api"
	"snappy/client/internal/models"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Config tunes the fake backend
type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AuthRateLimit int // login/register requests per minute and client, 0 disables
	LogRequests   bool
	BcryptCost    int
	AllowOrigins  string
}

func (c *Config) defaults() {
	if c.JWTSecret == "" {
		c.JWTSecret = "snappy-devserver-secret"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.AllowOrigins == "" {
		c.AllowOrigins = "*"
	}
}

// Server is the fake backend
type Server struct {
	cfg    Config
	secret []byte
	app    *fiber.App
	store  *store
	hub    *Hub
	log    zerolog.Logger
}

// New builds the server and starts its hub
func New(cfg Config, log zerolog.Logger) *Server {
	cfg.defaults()
	log = log.With().Str("component", "devserver").Logger()

	s := &Server{
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		store:  newStore(),
		hub:    NewHub(log),
		log:    log,
	}
	go s.hub.Run()

	s.app = fiber.New(fiber.Config{
		AppName:               "snappy devserver",
		DisableStartupMessage: true,
	})
	if cfg.LogRequests {
		s.app.Use(logger.New(logger.Config{Output: log}))
	}
	s.app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))
	s.setupRoutes()
	return s
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	app := s.app

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": true, "online": len(s.hub.OnlineUsers())})
	})

	authLimit := func(c *fiber.Ctx) error { return c.Next() }
	if s.cfg.AuthRateLimit > 0 {
		authLimit = rateLimiter(s.cfg.AuthRateLimit, time.Minute)
	}
	app.Post(api.RouteLogin, authLimit, s.login)
	app.Post(api.RouteRegister, authLimit, s.register)
	app.Get(api.RouteLogout+"/:userId", s.logout)
	app.Post(api.RouteSetAvatar+"/:userId", s.setAvatar)

	app.Post(api.RouteAddMessage, s.addMessage)
	app.Post(api.RouteGetMessages, s.getMessages)
	app.Put(api.RouteEditMessage, s.editMessage)
	app.Delete(api.RouteDeleteMessage, s.deleteMessage)

	app.Post(api.RouteSendRequest, s.sendRequest)
	app.Post(api.RouteAcceptRequest, s.acceptRequest)
	app.Post(api.RouteDeclineRequest, s.declineRequest)
	app.Get(api.RouteFriends+"/:userId", s.getFriends)
	app.Get(api.RouteUsers+"/:userId/pending-requests", s.getPendingRequests)

	admin := app.Group("/api/admin", s.requireAdmin)
	admin.Get("/users", s.adminListUsers)
	admin.Put("/user/:id/role", s.adminUpdateRole)
	admin.Delete("/user/:id", s.adminDeleteUser)

	app.Get("/ws", s.upgrade, websocket.New(s.serveWS))
}

// upgrade checks if the request should be upgraded to a websocket
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
			"status": false,
			"msg":    "WebSocket upgrade required",
		})
	}
	id := c.Query("userId")
	if _, ok := s.store.user(id); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": false,
			"msg":    "Unknown user",
		})
	}
	c.Locals("userID", id)
	return c.Next()
}

// serveWS runs one realtime connection
func (s *Server) serveWS(c *websocket.Conn) {
	id, _ := c.Locals("userID").(string)
	client := NewClient(id, c, s.hub)
	if !s.hub.Register(client) {
		return
	}

	go client.WritePump()
	client.ReadPump() // blocks until the connection closes
}

// App exposes the fiber app, for app.Test style tests
func (s *Server) App() *fiber.App { return s.app }

// Start listens on addr and serves in the background. It returns the base
// URL of the API.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}
	go func() {
		if err := s.app.Listener(ln); err != nil {
			s.log.Error().Err(err).Msg("[devserver] stopped serving")
		}
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("[devserver] listening")
	return "http://" + ln.Addr().String(), nil
}

// Listen serves on addr until the server is closed
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Close drops every realtime connection and stops serving
func (s *Server) Close() error {
	s.hub.Stop()
	return s.app.ShutdownWithTimeout(2 * time.Second)
}

// SeedUser creates an account directly in the store
func (s *Server) SeedUser(username, email, password string, role models.Role) (models.User, error) {
	hash, err := s.hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.store.createUser(username, email, hash, role)
}

// SetAvatar marks the avatar of a seeded user as set
func (s *Server) SetAvatar(userID, image string) (models.User, error) {
	return s.store.setAvatar(userID, image)
}

// MakeFriends befriends two users
func (s *Server) MakeFriends(a, b string) {
	s.store.makeFriends(a, b)
}

// SeedMessage stores a message with an explicit timestamp
func (s *Server) SeedMessage(from, to, text string, at time.Time) models.Message {
	return s.store.addMessage(from, to, text, at).view(from)
}

// Messages returns the conversation between a and b as a sees it
func (s *Server) Messages(a, b string) []models.Message {
	return s.store.conversation(a, b)
}

// Online returns the joined user ids
func (s *Server) Online() []string {
	return s.hub.OnlineUsers()
}
