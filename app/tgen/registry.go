package tgen

import (
	"sort"
	"sync"
)

// Registry is a concurrency-safe collection of sessions keyed by port.
//
// Every operation acquires the same mutex, which the controller also holds for the duration of a tick.
// Operations are not re-entrant and do not perform I/O.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*Session{},
	}
}

// Add inserts a session, replacing any session on the same port.
func (reg *Registry) Add(sess *Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.sessions[sess.Port()] = sess
}

// Remove deletes the session on a port.
// Returns the removed session, or nil if the port was not running.
func (reg *Registry) Remove(port string) *Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	sess := reg.sessions[port]
	delete(reg.sessions, port)
	return sess
}

// Get returns the session on a port, or nil if the port is not running.
func (reg *Registry) Get(port string) *Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.sessions[port]
}

// IsRunning determines whether a port has a session.
func (reg *Registry) IsRunning(port string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.sessions[port]
	return ok
}

// Clear removes every session.
// Returns the number of removed sessions.
func (reg *Registry) Clear() (n int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	n = len(reg.sessions)
	reg.sessions = map[string]*Session{}
	return n
}

// Len returns the number of sessions.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// Info returns a snapshot of the session on a port.
func (reg *Registry) Info(port string) (info SessionInfo, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	sess := reg.sessions[port]
	if sess == nil {
		return info, false
	}
	return sess.Info(), true
}

// Snapshot returns snapshots of every session, sorted by port.
func (reg *Registry) Snapshot() (list []SessionInfo) {
	reg.withLock(func(sessions map[string]*Session) {
		for _, port := range sortedPorts(sessions) {
			list = append(list, sessions[port].Info())
		}
	})
	return list
}

// withLock invokes fn while holding the lock.
// fn may mutate the map.
func (reg *Registry) withLock(fn func(sessions map[string]*Session)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	fn(reg.sessions)
}

func sortedPorts(sessions map[string]*Session) (ports []string) {
	ports = make([]string, 0, len(sessions))
	for port := range sessions {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	return ports
}
