package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Keepalive and write limits for websocket connections
const (
	WriteWait  = 10 * time.Second
	PongWait   = 60 * time.Second
	PingPeriod = 50 * time.Second
	MaxMessage = 64 * 1024
)

// Conn is a live, bidirectional client connection that can receive events
type Conn interface {
	ID() string
	Send(Event) error
	Close() error
}

// WSConn adapts a gorilla websocket to Conn. Writes are serialized since the
// sweep, the chat handlers and the ping loop all write to the same socket.
type WSConn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

// NewWSConn wraps ws and configures its read limits and pong handling
func NewWSConn(ws *websocket.Conn) *WSConn {
	ws.SetReadLimit(MaxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(PongWait))
	})
	return &WSConn{id: uuid.NewString(), ws: ws}
}

// ID returns the connection's unique id
func (c *WSConn) ID() string { return c.id }

// Send writes e as a JSON text frame
func (c *WSConn) Send(e Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(WriteWait))
	return c.ws.WriteJSON(e)
}

// Ping writes a ping control frame
func (c *WSConn) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait))
}

// ReadEvent blocks until the client sends the next event
func (c *WSConn) ReadEvent() (IncomingEvent, error) {
	var in IncomingEvent
	err := c.ws.ReadJSON(&in)
	return in, err
}

// Close closes the underlying socket once
func (c *WSConn) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(WriteWait))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
