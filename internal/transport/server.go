// Package transport accepts browser-extension sources over WebSocket and
// feeds their protocol lines to the adapter.
package transport

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nowplaying-redux/adapter-go/internal/registry"
)

const (
	maxMessageSize = 1 << 16
	writeWait      = 10 * time.Second

	DefaultPingInterval = 30 * time.Second
	DefaultSendBuffer   = 64
)

// Handler receives connection lifecycle events and inbound lines.
// *adapter.Adapter satisfies it.
type Handler interface {
	Connect(id string, peer registry.Peer)
	HandleMessage(id, line string)
	Disconnect(id string)
}

// Options tunes a Server. Zero values use the defaults above.
type Options struct {
	PingInterval time.Duration
	SendBuffer   int
	// CheckOrigin overrides the upgrader's origin check. Extensions connect
	// from their own origin, so the default accepts every origin.
	CheckOrigin func(r *http.Request) bool
}

// Server is an http.Handler that upgrades requests to source connections.
type Server struct {
	handler      Handler
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	sendBuffer   int

	mu     sync.Mutex
	conns  map[string]*Conn
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a Server that reports to h.
func NewServer(h Handler, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = func(*http.Request) bool { return true }
	}
	return &Server{
		handler: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     opts.CheckOrigin,
		},
		pingInterval: opts.PingInterval,
		sendBuffer:   opts.SendBuffer,
		conns:        make(map[string]*Conn),
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		slog.Debug("transport: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newConn(uuid.NewString(), ws, s.sendBuffer)
	if !s.track(c) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	defer s.untrack(c)

	slog.Info("transport: source connected", "conn", c.id, "remote", r.RemoteAddr)
	go c.writeLoop(s.pingInterval)

	s.handler.Connect(c.id, c)
	c.readLoop(2*s.pingInterval, func(line string) {
		s.handler.HandleMessage(c.id, line)
	})
	c.Close()
	s.handler.Disconnect(c.id)
	slog.Info("transport: source disconnected", "conn", c.id)
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
	s.wg.Done()
}

// Len returns the number of open connections.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close closes every connection and waits for their handlers to finish.
// New upgrades are refused afterwards.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	s.wg.Wait()
}

// splitLines splits a frame into protocol lines. Sources may batch several
// lines into one frame; blank lines carry nothing and are dropped.
func splitLines(frame string) []string {
	if !strings.ContainsAny(frame, "\r\n") {
		if frame == "" {
			return nil
		}
		return []string{frame}
	}
	var out []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
