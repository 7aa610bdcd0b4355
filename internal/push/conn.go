package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

// recordSeparator terminates every JSON hub protocol message.
const recordSeparator = 0x1E

// Hub protocol message types.
const (
	msgInvocation = 1
	msgPing       = 6
	msgClose      = 7
)

const (
	dialTimeout       = 10 * time.Second
	keepAliveInterval = 15 * time.Second
)

// frame is the subset of a hub protocol message the client understands.
type frame struct {
	Type      int               `json:"type"`
	Target    string            `json:"target,omitempty"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Conn is a websocket connection to a SignalR-style notification hub.
// Every invocation received is dispatched to the Hub by target name.
// Reconnection is left to the caller.
type Conn struct {
	url string
	hub *Hub
	log zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	done    chan struct{}
	err     error
	closing bool
}

// NewConn prepares a connection to hubURL. http(s) schemes are converted
// to ws(s). A non-empty token is sent as the access_token query
// parameter.
func NewConn(hubURL, token string, hub *Hub, logger zerolog.Logger) (*Conn, error) {
	u, err := url.Parse(hubURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if token != "" {
		q := u.Query()
		q.Set("access_token", token)
		u.RawQuery = q.Encode()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		url:    u.String(),
		hub:    hub,
		log:    logger.With().Str("component", "push").Logger(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

// Connect dials the hub, performs the protocol handshake, and starts
// reading. Calling Connect on a connected Conn is a no-op.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}

	if err := handshake(dialCtx, conn); err != nil {
		_ = conn.Close(websocket.StatusProtocolError, "handshake failed")
		return err
	}

	c.conn = conn
	go c.readLoop(conn)
	go c.keepAlive(conn)

	c.log.Debug().Str("url", c.url).Msg("push connected")
	return nil
}

// Done is closed when the read loop ends, for any reason.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the read loop, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close closes the connection and waits for the read loop to end. It is
// safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closing = true
	c.mu.Unlock()

	if conn == nil {
		c.cancel()
		return nil
	}

	var err error
	select {
	case <-c.done:
		// Server already ended the session.
		_ = conn.CloseNow()
	default:
		err = conn.Close(websocket.StatusNormalClosure, "closing")
	}
	c.cancel()
	<-c.done
	return err
}

func handshake(ctx context.Context, conn *websocket.Conn) error {
	req := append([]byte(`{"protocol":"json","version":1}`), recordSeparator)
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		return fmt.Errorf("sending handshake: %w", err)
	}

	_, msg, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading handshake: %w", err)
	}

	var resp struct {
		Error string `json:"error"`
	}
	first, _, _ := bytes.Cut(msg, []byte{recordSeparator})
	if err := json.Unmarshal(first, &resp); err != nil {
		return fmt.Errorf("decoding handshake: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("handshake rejected: %s", resp.Error)
	}
	return nil
}

func (c *Conn) readLoop(conn *websocket.Conn) {
	defer close(c.done)

	for {
		_, msg, err := conn.Read(c.ctx)
		if err != nil {
			c.finish(err)
			return
		}

		for _, raw := range bytes.Split(msg, []byte{recordSeparator}) {
			if len(bytes.TrimSpace(raw)) == 0 {
				continue
			}

			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				c.log.Warn().Err(err).Msg("skipping malformed push frame")
				continue
			}

			switch f.Type {
			case msgInvocation:
				c.hub.Dispatch(Event{Name: f.Target, Args: f.Arguments})
			case msgPing:
			case msgClose:
				if f.Error != "" {
					c.finish(fmt.Errorf("server closed connection: %s", f.Error))
				} else {
					c.finish(nil)
				}
				_ = conn.CloseNow()
				return
			}
		}
	}
}

func (c *Conn) keepAlive(conn *websocket.Conn) {
	ping := append([]byte(`{"type":6}`), recordSeparator)
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			if err := conn.Write(c.ctx, websocket.MessageText, ping); err != nil {
				return
			}
		}
	}
}

func (c *Conn) finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		err = nil
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("push connection ended")
	}
	c.err = err
}
