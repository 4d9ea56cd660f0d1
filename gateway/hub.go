package gateway

import (
	"chat-relay/domain/event"
	"encoding/json"
	"sync"
)

// Hub is the local transport: it maps connection ids to live sockets for
// the fanout workers. An id the hub does not know is ignored, the socket
// may have died between publish and dispatch.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Connection)}
}

func (h *Hub) Attach(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

func (h *Hub) Emit(connID string, name event.Name, data json.RawMessage) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	conn.Emit(name, data)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
