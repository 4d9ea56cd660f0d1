// Package gateway is the websocket edge: it upgrades HTTP requests,
// authenticates them and bridges sockets to the fanout transport.
package gateway

import (
	"chat-relay/domain/event"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	maxFrameSize = 64 << 10
	sendBuffer   = 256
)

// Frame is the wire shape of everything crossing a socket, both
// directions.
type Frame struct {
	Event event.Name      `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Connection wraps one websocket. All writes go through the send channel
// so only the write pump touches the socket; a full buffer drops the
// frame rather than blocking the caller.
type Connection struct {
	id        string
	log       *slog.Logger
	ws        *websocket.Conn
	send      chan Frame
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	closed  bool
	onClose func()
}

func NewConnection(log *slog.Logger, ws *websocket.Conn) *Connection {
	return &Connection{
		id:   uuid.NewString(),
		log:  log,
		ws:   ws,
		send: make(chan Frame, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Connection) ID() string { return c.id }

// OnClose registers the teardown hook, running it exactly once no matter
// how many paths tear the connection down. A connection that already died
// runs the hook right away, so registering after a pump failure still
// releases whatever the caller indexed under this connection.
func (c *Connection) OnClose(fn func()) {
	c.mu.Lock()
	if !c.closed {
		c.onClose = fn
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	fn()
}

func (c *Connection) Emit(name event.Name, data json.RawMessage) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- Frame{Event: name, Data: data}:
	default:
		c.log.Warn("send buffer full, dropping frame", "connId", c.id, "event", name)
	}
}

// Close tears the connection down once. The underlying socket is closed
// by the write pump after it drained the outbound queue.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.closed = true
		fn := c.onClose
		c.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// WritePump owns the socket until the connection dies, including closing
// it on the way out.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			// flush what is already queued, then say goodbye
			for {
				select {
				case frame := <-c.send:
					c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					c.ws.WriteJSON(frame)
				default:
					c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					c.ws.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump feeds inbound frames to the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Frame)) {
	defer c.Close()

	c.ws.SetReadLimit(maxFrameSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			return
		}
		handler(frame)
	}
}
