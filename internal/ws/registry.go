package ws

import (
	"sync"
)

// Group key helpers. A connection is auto-joined to its own user group at
// handshake; workspace and board membership is always an explicit join.
func UserGroup(userID string) string  { return "user:" + userID }
func WorkspaceGroup(id string) string { return "workspace:" + id }
func BoardGroup(id string) string     { return "board:" + id }

// Conn is a live client connection as the registry sees it. Send must not
// block: it reports false when the connection cannot keep up, and the
// registry then drops it.
type Conn interface {
	ID() string
	Send(payload []byte) bool
	Close()
}

// Registry tracks which live connections belong to which groups. State is
// process-local only; clients rejoin after a restart.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[string]Conn
	conns  map[string]map[string]struct{} // conn id -> joined group keys
}

func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[string]map[string]Conn),
		conns:  make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Join(c Conn, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[group]
	if !ok {
		g = make(map[string]Conn)
		r.groups[group] = g
	}
	g[c.ID()] = c

	m, ok := r.conns[c.ID()]
	if !ok {
		m = make(map[string]struct{})
		r.conns[c.ID()] = m
	}
	m[group] = struct{}{}
}

func (r *Registry) Leave(c Conn, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c.ID(), group)
}

func (r *Registry) leaveLocked(connID, group string) {
	if g, ok := r.groups[group]; ok {
		delete(g, connID)
		if len(g) == 0 {
			delete(r.groups, group)
		}
	}
	if m, ok := r.conns[connID]; ok {
		delete(m, group)
		if len(m) == 0 {
			delete(r.conns, connID)
		}
	}
}

// Drop removes the connection from every group it had joined. Called on
// disconnect, graceful or not; membership never outlives the connection.
func (r *Registry) Drop(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for group := range r.conns[c.ID()] {
		r.leaveLocked(c.ID(), group)
	}
	delete(r.conns, c.ID())
}

// Broadcast delivers payload to every member of group, minus any excluded
// connection ids. A missing or empty group is a no-op. Members whose send
// buffer is full are dropped rather than blocking the broadcast.
func (r *Registry) Broadcast(group string, payload []byte, exclude ...string) {
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.groups[group]))
	for id, c := range r.groups[group] {
		if contains(exclude, id) {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if !c.Send(payload) {
			r.Drop(c)
			c.Close()
		}
	}
}

// BroadcastExceptUser excludes every connection belonging to userID, so
// actors are not notified of their own actions on scope groups.
func (r *Registry) BroadcastExceptUser(group string, payload []byte, userID string) {
	if userID == "" {
		r.Broadcast(group, payload)
		return
	}

	r.mu.RLock()
	exclude := make([]string, 0, len(r.groups[UserGroup(userID)]))
	for id := range r.groups[UserGroup(userID)] {
		exclude = append(exclude, id)
	}
	r.mu.RUnlock()

	r.Broadcast(group, payload, exclude...)
}

// GroupSize reports current membership, used by tests and debug handlers.
func (r *Registry) GroupSize(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
