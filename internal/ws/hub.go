package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks the live connections watching each listing.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*clientConn]struct{} // listingID -> connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*clientConn]struct{})}
}

func (h *Hub) Join(listingID string, c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[listingID]
	if room == nil {
		room = make(map[*clientConn]struct{})
		h.rooms[listingID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) Leave(listingID string, c *clientConn) {
	h.mu.Lock()
	if room, ok := h.rooms[listingID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, listingID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Broadcast fans a frame out to every connection in the listing's room.
// The write I/O happens outside the lock; connections that fail are dropped.
func (h *Hub) Broadcast(listingID string, msg []byte) {
	h.mu.RLock()
	conns := make([]*clientConn, 0, len(h.rooms[listingID]))
	for c := range h.rooms[listingID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			h.Leave(listingID, c)
		}
	}
}
