// Package registry tracks which users currently hold a realtime connection.
// Room addressing for delivery goes through the transport itself; the
// registry only answers reachability questions.
package registry

import "sync"

// ConnectionRegistry maps a user identifier to the identifiers of all of its
// live realtime connections. A user may be connected from several devices at
// once; every connection is tracked and removed individually.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

// NewConnectionRegistry creates an empty ConnectionRegistry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]map[string]struct{})}
}

// Add records a connection for the user.
func (r *ConnectionRegistry) Add(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	set[connID] = struct{}{}
}

// Remove forgets one connection of the user. The user entry disappears once
// its last connection is removed.
func (r *ConnectionRegistry) Remove(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// Connections returns the connection ids currently held by the user.
func (r *ConnectionRegistry) Connections(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.conns[userID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Connected reports whether the user holds at least one live connection.
func (r *ConnectionRegistry) Connected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// Size returns the number of connected users.
func (r *ConnectionRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
