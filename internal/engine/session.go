package engine

import (
	"sync"
	"time"
)

// SessionStatus is the lifecycle state of a protected session.
type SessionStatus string

const (
	StatusActive     SessionStatus = "active"
	StatusTerminated SessionStatus = "terminated"
	StatusClosed     SessionStatus = "closed"
)

// Terminal reports whether the status absorbs all further transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusTerminated || s == StatusClosed
}

// Session is a protected viewing context tracked from creation to
// termination or closure.
type Session struct {
	ID               string        `json:"sessionId"`
	Info             SessionInfo   `json:"info,omitempty"`
	StartTime        time.Time     `json:"startTime"`
	Status           SessionStatus `json:"status"`
	TerminatedReason string        `json:"terminatedReason,omitempty"`
	TerminatedAt     *time.Time    `json:"terminatedAt,omitempty"`
	ClosedAt         *time.Time    `json:"closedAt,omitempty"`
}

// SessionStore is the in-memory single source of truth for session state.
// All check-then-act sequences run under the lock so concurrent requests
// cannot corrupt the active -> terminated/closed transition invariant.
//
// Entries are never deleted; terminal states are soft. This favors
// auditability over bounded memory and the store grows for the life of
// the process.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Insert adds a new active session. The caller must have generated a
// fresh unique id; Insert overwrites nothing.
func (st *SessionStore) Insert(s *Session) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[s.ID]; exists {
		return false
	}
	st.sessions[s.ID] = s
	return true
}

// Get returns a snapshot of the session, or false if unknown.
func (st *SessionStore) Get(id string) (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Len returns the number of stored sessions, terminal ones included.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Terminate moves an active session to terminated. A session already in
// a terminal state keeps that state and only has its terminal timestamp
// re-stamped (idempotent terminality). Returns a snapshot and whether
// the session exists.
func (st *SessionStore) Terminate(id, reason string, now time.Time) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, false
	}
	switch s.Status {
	case StatusActive:
		s.Status = StatusTerminated
		s.TerminatedReason = reason
		s.TerminatedAt = &now
	case StatusTerminated:
		s.TerminatedAt = &now
	case StatusClosed:
		s.ClosedAt = &now
	}
	return *s, true
}

// Close moves an active session to closed. Like Terminate, terminal
// states absorb: a closed session is re-stamped, a terminated one stays
// terminated.
func (st *SessionStore) Close(id string, now time.Time) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, false
	}
	switch s.Status {
	case StatusActive, StatusClosed:
		s.Status = StatusClosed
		s.ClosedAt = &now
	case StatusTerminated:
		s.TerminatedAt = &now
	}
	return *s, true
}
