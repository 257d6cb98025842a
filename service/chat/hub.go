package chat

import "sync"

// Hub keys rooms by name. Rooms are created on first join and dropped once
// empty; the single-fixed-room behavior falls out of everyone using the
// default room name.
//
// Join and Drop go through the hub so that room creation, membership change
// and empty-room collection are ordered under one lock. Lock order is always
// hub then room.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

// Join adds the client to the named room, creating the room on first use.
func (h *Hub) Join(name string, c *Client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[name]
	if !ok {
		r = newRoom(name)
		h.rooms[name] = r
	}
	r.Join(c)
	return r
}

// Drop removes the client from its room and garbage-collects the room when
// it was the last member.
func (h *Hub) Drop(room *Room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room.Leave(connID)
	if room.Size() == 0 {
		delete(h.rooms, room.name)
	}
}

// Rooms returns the number of live rooms.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Members returns the member count of the named room, 0 when it does not
// exist.
func (h *Hub) Members(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[name]; ok {
		return r.Size()
	}
	return 0
}
