package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serialises writes: gorilla allows one concurrent writer, and the stream writes
// both replies and pushed events.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed message.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// Send wraps data in a Message for event.
func (c *Conn) Send(event Event, data any) error {
	return c.WriteTyped(Message{Event: event, Data: data})
}

// WriteError sends an error event.
func (c *Conn) WriteError(code, msg string) error {
	return c.Send(EventError, ErrorData{Code: code, Message: msg})
}

// ReadJSON decodes the next message. An idle client is dropped after readWait.
func (c *Conn) ReadJSON(v interface{}) error {
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	return c.ws.ReadJSON(v)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
