package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned when emitting on a channel that has shut down
	ErrClosed = errors.New("realtime: channel closed")

	// ErrSendBufferFull is returned when the write pump cannot keep up
	ErrSendBufferFull = errors.New("realtime: send buffer full")
)

// Config controls the connection timings
type Config struct {
	URL        string
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
	SendBuffer int
	Dialer     *websocket.Dialer
}

func (c *Config) defaults() {
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.Dialer == nil {
		c.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
}

// Channel is the single persistent connection of a session. Inbound frames
// are dispatched on the read goroutine in arrival order.
type Channel struct {
	Dispatcher

	userID string
	cfg    Config
	conn   *websocket.Conn
	send   chan []byte
	log    zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
	errMu    sync.Mutex
	err      error
	wg       sync.WaitGroup
}

// Dial opens the connection for userID and announces it with a join event
func Dial(ctx context.Context, cfg Config, userID string, logger zerolog.Logger) (*Channel, error) {
	if userID == "" {
		return nil, errors.New("realtime: dial without a user id")
	}
	cfg.defaults()

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	conn, _, err := cfg.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime channel: %w", err)
	}

	c := &Channel{
		userID: userID,
		cfg:    cfg,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
		log:    logger.With().Str("component", "realtime").Str("user", userID).Logger(),
	}

	c.wg.Add(2)
	go c.writePump()
	go c.readPump()

	if err := c.Emit(EventJoin, JoinPayload{UserID: userID}); err != nil {
		c.Close()
		return nil, err
	}
	c.log.Info().Msg("[realtime] connected")
	return c, nil
}

// UserID returns the user the channel was opened for
func (c *Channel) UserID() string { return c.userID }

// Done is closed once the channel has shut down, for whatever reason
func (c *Channel) Done() <-chan struct{} { return c.done }

// Err returns what ended the channel, or nil after a clean Close
func (c *Channel) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Emit queues an outbound event
func (c *Channel) Emit(event EventType, payload any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	data, err := json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Type:      event,
		Payload:   raw,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event, err)
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrSendBufferFull
	}
}

// Close deregisters every handler, says goodbye to the server and waits for
// both pumps to exit. It must not be called from inside a handler.
func (c *Channel) Close() error {
	c.stop(nil)
	c.wg.Wait()
	return nil
}

func (c *Channel) stop(err error) {
	c.stopOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		c.Dispatcher.Reset()
		close(c.done)
		if err != nil {
			c.log.Warn().Err(err).Msg("[realtime] connection lost")
		} else {
			c.log.Info().Msg("[realtime] disconnected")
		}
	})
}

// readPump handles incoming frames from the server
func (c *Channel) readPump() {
	defer func() {
		c.wg.Done()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// we closed the connection ourselves
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.stop(err)
				} else {
					c.stop(fmt.Errorf("realtime: server closed the connection: %w", err))
				}
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.log.Warn().Err(err).Msg("[realtime] failed to parse frame")
			continue
		}

		if n := c.Dispatch(env.Type, env.Payload); n == 0 {
			c.log.Debug().Str("event", string(env.Type)).Msg("[realtime] no handler")
		}
	}
}

// writePump owns every write on the connection
func (c *Channel) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.wg.Done()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.stop(fmt.Errorf("realtime: write: %w", err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop(fmt.Errorf("realtime: ping: %w", err))
				return
			}

		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever was queued before shutdown, so a stop-typing emitted
// right before Close still reaches the server.
func (c *Channel) flush() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Scope returns a handler scope bound to this channel
func (c *Channel) Scope() *Scope {
	return NewScope(c)
}
