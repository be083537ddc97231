package registry

import (
	"sync"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
)

// Registry is the in-memory, single-instance implementation of
// contracts.Registry. All state is process-local; pair it with the pub/sub
// backplane when running more than one instance.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]contracts.Client              // user id → connection
	channels map[string]map[contracts.Client]struct{} // channel id → members
	joined   map[contracts.Client]map[string]struct{} // connection → its channels
}

func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[string]contracts.Client),
		channels: make(map[string]map[contracts.Client]struct{}),
		joined:   make(map[contracts.Client]map[string]struct{}),
	}
}

func (r *Registry) Register(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Last-connect-wins: the previous connection is replaced, not closed.
	// Its own unregister-on-disconnect will find itself stale and no-op.
	r.clients[c.UserID()] = c
}

func (r *Registry) Unregister(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[c.UserID()]; ok && current == c {
		delete(r.clients, c.UserID())
	}
	for channelID := range r.joined[c] {
		r.removeFromChannel(channelID, c)
	}
	delete(r.joined, c)
}

func (r *Registry) Join(channelID string, c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[channelID] == nil {
		r.channels[channelID] = make(map[contracts.Client]struct{})
	}
	r.channels[channelID][c] = struct{}{}
	if r.joined[c] == nil {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][channelID] = struct{}{}
}

func (r *Registry) Leave(channelID string, c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeFromChannel(channelID, c)
	if set := r.joined[c]; set != nil {
		delete(set, channelID)
		if len(set) == 0 {
			delete(r.joined, c)
		}
	}
}

// removeFromChannel must be called with the write lock held.
func (r *Registry) removeFromChannel(channelID string, c contracts.Client) {
	if members := r.channels[channelID]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(r.channels, channelID)
		}
	}
}

func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}

func (r *Registry) ListConnected() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.clients))
	for id := range r.clients {
		users = append(users, id)
	}
	return users
}

func (r *Registry) Lookup(userID string) (contracts.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

func (r *Registry) Channel(channelID string) []contracts.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.channels[channelID]
	out := make([]contracts.Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

func (r *Registry) All() []contracts.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]contracts.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}
