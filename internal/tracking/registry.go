package tracking

import "sync"

// Registry tracks which websocket connections are currently authenticated as
// which user. An entry disappears entirely when its last connection drops.
type Registry struct {
	mu    sync.Mutex
	conns map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: map[string]map[string]struct{}{}}
}

func (r *Registry) Add(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] == nil {
		r.conns[userID] = map[string]struct{}{}
	}
	r.conns[userID][connID] = struct{}{}
}

// Remove drops the connection and reports how many live connections the user
// still has, so the caller can decide whether to mark sessions abandoned.
func (r *Registry) Remove(userID, connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return 0
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
		return 0
	}
	return len(set)
}

func (r *Registry) Count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID])
}

func (r *Registry) Connections(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.conns[userID]))
	for id := range r.conns[userID] {
		out = append(out, id)
	}
	return out
}
