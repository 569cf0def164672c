package transport

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrConnClosed is returned by Send once the connection has been closed.
	ErrConnClosed = errors.New("transport: connection closed")
	// ErrSendBufferFull is returned by Send when the writer cannot keep up.
	ErrSendBufferFull = errors.New("transport: send buffer full")
)

// Conn is one source connection. It implements registry.Peer.
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan string

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, ws *websocket.Conn, buffer int) *Conn {
	return &Conn{
		id:   id,
		ws:   ws,
		send: make(chan string, buffer),
		done: make(chan struct{}),
	}
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string { return c.id }

// Send queues line for delivery. It never blocks.
func (c *Conn) Send(line string) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- line:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close asks the writer to send a close frame and shut the socket down.
// It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// writeLoop drains the send queue and keeps the socket alive with pings.
func (c *Conn) writeLoop(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case line := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				slog.Debug("transport: write failed", "conn", c.id, "err", err)
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("transport: ping failed", "conn", c.id, "err", err)
				c.Close()
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// readLoop hands every inbound line to fn, in arrival order, until the
// socket fails or closes.
func (c *Conn) readLoop(pongWait time.Duration, fn func(line string)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case errors.As(err, &ne) && ne.Timeout():
				slog.Debug("transport: read deadline exceeded", "conn", c.id)
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
				slog.Debug("transport: read failed", "conn", c.id, "err", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		for _, line := range splitLines(string(data)) {
			fn(line)
		}
	}
}
