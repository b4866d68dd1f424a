// Package websocket implements the WebSocket operation executor on top of
// gorilla/websocket.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Stage names the step of a session that failed.
type Stage string

const (
	StageConnect Stage = "connect"
	StageSend    Stage = "send"
	StageReceive Stage = "receive"
	StageClose   Stage = "close"
)

// Error wraps a transport error with the stage it occurred in.
type Error struct {
	Stage  Stage
	Status int // handshake response status, when the server answered
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("websocket %s failed with status %d: %v", e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("websocket %s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var errNotConnected = errors.New("not connected")

// Stats counts messages exchanged over one connection.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	BytesSent        int64
	BytesReceived    int64
}

// Client is a single WebSocket connection. One goroutine may send while
// another receives.
type Client struct {
	url            string
	headers        http.Header
	dialer         *websocket.Dialer
	maxMessageSize int64

	mu    sync.Mutex
	conn  *websocket.Conn
	stats Stats
}

// Config configures the WebSocket client behavior.
type Config struct {
	URL              string
	Headers          http.Header
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
}

func NewClient(cfg Config) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 1024 * 1024
	}
	return &Client{
		url:     cfg.URL,
		headers: cfg.Headers,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			Proxy:            http.ProxyFromEnvironment,
		},
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// Connect performs the opening handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return &Error{Stage: StageConnect, Err: errors.New("already connected")}
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.headers)
	if err != nil {
		werr := &Error{Stage: StageConnect, Err: err}
		if resp != nil {
			werr.Status = resp.StatusCode
		}
		return werr
	}
	conn.SetReadLimit(c.maxMessageSize)
	c.conn = conn
	return nil
}

// Send writes one text message. The write deadline follows ctx.
func (c *Client) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return &Error{Stage: StageSend, Err: errNotConnected}
	}
	deadline, _ := ctx.Deadline()
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &Error{Stage: StageSend, Err: err}
	}
	c.stats.MessagesSent++
	c.stats.BytesSent += int64(len(data))
	return nil
}

// Receive blocks until a data message arrives or the connection fails. The
// read deadline follows ctx.
func (c *Client) Receive(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, &Error{Stage: StageReceive, Err: errNotConnected}
	}
	deadline, _ := ctx.Deadline()
	_ = conn.SetReadDeadline(deadline)
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, &Error{Stage: StageReceive, Err: err}
	}

	c.mu.Lock()
	c.stats.MessagesReceived++
	c.stats.BytesReceived += int64(len(data))
	c.mu.Unlock()
	return data, nil
}

// SendClose starts the closing handshake with a normal-closure frame and
// leaves the connection open so a reader can observe the peer's reply.
func (c *Client) SendClose(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return &Error{Stage: StageClose, Err: errNotConnected}
	}
	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(timeout),
	)
	if err != nil {
		return &Error{Stage: StageClose, Err: err}
	}
	return nil
}

// Close sends a close frame and releases the connection.
func (c *Client) Close() error {
	err := c.SendClose(5 * time.Second)
	if errors.Is(err, errNotConnected) {
		return nil
	}
	if abortErr := c.Abort(); err == nil {
		err = abortErr
	}
	return err
}

// Abort releases the underlying connection without a closing handshake.
func (c *Client) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// IsNormalClose reports whether err is the peer completing a clean closing
// handshake.
func IsNormalClose(err error) bool {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
}
