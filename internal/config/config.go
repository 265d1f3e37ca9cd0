package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the client needs to reach the backend and keep
// local state.
type Config struct {
	APIHost       string
	SocketHost    string
	SocketPath    string
	DataDir       string
	SessionKey    string
	HTTPTimeout   time.Duration
	TypingTimeout time.Duration
	LogLevel      string
}

const (
	DefaultAPIHost       = "http://localhost:5000"
	DefaultSocketPath    = "/ws"
	DefaultSessionKey    = "snappy-user"
	DefaultHTTPTimeout   = 10 * time.Second
	DefaultTypingTimeout = 1500 * time.Millisecond
)

// Load reads an optional .env file and then the environment
func Load() (Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg := Config{
		APIHost:    strings.TrimRight(getenv("SNAPPY_API_HOST", DefaultAPIHost), "/"),
		SocketPath: getenv("SNAPPY_SOCKET_PATH", DefaultSocketPath),
		SessionKey: getenv("SNAPPY_SESSION_KEY", DefaultSessionKey),
		LogLevel:   getenv("SNAPPY_LOG_LEVEL", "info"),
	}
	cfg.SocketHost = strings.TrimRight(getenv("SNAPPY_SOCKET_HOST", cfg.APIHost), "/")

	dataDir := os.Getenv("SNAPPY_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".snappy")
	}
	cfg.DataDir = dataDir

	var err error
	if cfg.HTTPTimeout, err = durationEnv("SNAPPY_HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TypingTimeout, err = durationEnv("SNAPPY_TYPING_TIMEOUT", DefaultTypingTimeout); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SocketURL returns the websocket URL of the realtime channel
func (c Config) SocketURL() (string, error) {
	u, err := url.Parse(c.SocketHost)
	if err != nil {
		return "", fmt.Errorf("parse socket host: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket host scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + c.SocketPath
	return u.String(), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
