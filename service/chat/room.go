package chat

import (
	"sync"

	"github.com/Meizuno/Chat/logger"
)

// Room is a named broadcast group. Membership mutation and broadcast
// iteration are serialized by the room mutex; delivery itself is a
// non-blocking enqueue onto each member's queue, so holding the lock across
// the loop is cheap and keeps per-connection ordering intact.
type Room struct {
	name    string
	mu      sync.Mutex
	members map[string]*Client
}

func newRoom(name string) *Room {
	return &Room{
		name:    name,
		members: make(map[string]*Client),
	}
}

func (r *Room) Name() string { return r.name }

// Join adds the client and announces it to every *other* current member.
// The newcomer does not hear about itself.
func (r *Room) Join(c *Client) {
	notice := []byte("Another user joined the chat " + c.ConnID)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[c.ConnID] = c
	for id, m := range r.members {
		if id == c.ConnID {
			continue
		}
		if !m.Enqueue(notice) {
			logger.Debugf("[room %s] join notice dropped connID=%s", r.name, id)
		}
	}
}

// Leave removes the client from membership. No leave notice is sent.
func (r *Room) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, connID)
}

// Broadcast relays payload to every member, sender included. Delivery to a
// closed or saturated peer is dropped silently and never aborts the rest.
func (r *Room) Broadcast(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.members {
		if !m.Enqueue(payload) {
			logger.Debugf("[room %s] broadcast dropped connID=%s", r.name, id)
		}
	}
}

// Size returns the current member count.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
