package bridge

import (
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Server accepts websocket connections from content-script contexts on a
// loopback listener and binds each one to the IPC bridge while it lives. The
// page's bootstrap script dials back to Server.URL after the window loads.
type Server struct {
	ipc      *IPC
	log      zerolog.Logger
	listener net.Listener
	upgrader websocket.Upgrader
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[*wsContext]struct{}
}

// NewServer creates a Server bound to an ephemeral loopback port.
func NewServer(ipc *IPC, log zerolog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	return &Server{
		ipc:      ipc,
		log:      log.With().Str("component", "bridge-server").Logger(),
		listener: listener,
		conns:    make(map[*wsContext]struct{}),
	}, nil
}

// URL returns the websocket endpoint content scripts should dial.
func (s *Server) URL() string {
	return "ws://" + s.listener.Addr().String()
}

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	err := http.Serve(s.listener, s)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// ServeHTTP upgrades one request to a websocket and pumps its messages into
// the bridge. The newest connection becomes the attached send target.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx := &wsContext{id: uuid.NewString(), conn: conn}
	s.mu.Lock()
	s.conns[ctx] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, ctx)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	s.log.Debug().Str("context", ctx.id).Msg("content-script context connected")
	s.ipc.Attach(ctx)
	defer s.ipc.Detach(ctx)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			s.log.Debug().Err(err).Str("context", ctx.id).Msg("content-script context disconnected")
			return
		}
		s.ipc.Dispatch(msg)
	}
}

// Close shuts the listener down and drops every live connection.
func (s *Server) Close() {
	_ = s.listener.Close()
	s.mu.Lock()
	for ctx := range s.conns {
		_ = ctx.conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// wsContext adapts one websocket connection into a bridge Context.
type wsContext struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsContext) ID() string { return c.id }

func (c *wsContext) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}
