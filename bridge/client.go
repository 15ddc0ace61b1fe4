package bridge

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is the content-script side of the bridge. It dials the app's bridge
// server and exposes the same send/subscribe surface the in-page script uses.
type Client struct {
	log  zerolog.Logger
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[Channel][]Listener
}

// Dial connects to the bridge server at rawURL (ws://...).
func Dial(rawURL string, log zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to bridge at %s: %w (is the app running?)", rawURL, err)
	}
	return &Client{
		log:      log.With().Str("component", "bridge-client").Logger(),
		conn:     conn,
		handlers: make(map[Channel][]Listener),
	}, nil
}

// Send delivers one message to the app process.
func (c *Client) Send(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// On registers a handler for messages arriving from the app on chann.
func (c *Client) On(chann Channel, fn Listener) {
	c.mu.Lock()
	c.handlers[chann] = append(c.handlers[chann], fn)
	c.mu.Unlock()
}

// Run reads messages until the connection closes, fanning each one out to the
// registered handlers. Malformed messages are dropped with a log entry.
func (c *Client) Run() error {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return err
		}
		if err := msg.Validate(); err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed message from app")
			continue
		}
		c.mu.Lock()
		handlers := append([]Listener(nil), c.handlers[msg.Channel]...)
		c.mu.Unlock()
		for _, fn := range handlers {
			fn(msg.Payload)
		}
	}
}

// Close closes the underlying connection, ending Run.
func (c *Client) Close() error {
	return c.conn.Close()
}
