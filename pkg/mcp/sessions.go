package mcp

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rendis/flowviz/internal/viewport"
	"github.com/rendis/flowviz/pkg/schema"
)

// Session is one viewport opened by an MCP client. Its controller is not
// safe for concurrent use, so handlers hold mu for the whole dispatch.
type Session struct {
	ID string
	// Owner is the MCP client session that opened the viewport; "" over
	// transports without client sessions.
	Owner string

	mu     sync.Mutex
	ctrl   *viewport.Controller
	layout *schema.FlowLayout
}

// Do runs fn with the session locked.
func (s *Session) Do(fn func(ctrl *viewport.Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ctrl)
}

// SetLayout stores the latest layout and refits the viewport to it.
func (s *Session) SetLayout(l *schema.FlowLayout) viewport.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = l
	w, h := l.Size()
	s.ctrl.SetLayout(viewport.Size{Width: w, Height: h})
	return s.ctrl.Viewport()
}

// Layout returns the last layout stored on the session, if any.
func (s *Session) Layout() *schema.FlowLayout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// Viewport returns a snapshot of the session viewport.
func (s *Session) Viewport() viewport.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Viewport()
}

// SessionRegistry tracks open viewport sessions by ID.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionRegistry creates a new empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Create opens a session over ctrl and returns it.
func (r *SessionRegistry) Create(owner string, ctrl *viewport.Controller) *Session {
	sess := &Session{ID: uuid.New().String(), Owner: owner, ctrl: ctrl}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	return sess
}

// Get returns the session with the given ID.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Close removes a session. It reports whether the session existed.
func (r *SessionRegistry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// RemoveOwner closes every session opened by the given MCP client session.
// Called when a client disconnects.
func (r *SessionRegistry) RemoveOwner(owner string) int {
	if owner == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, sess := range r.sessions {
		if sess.Owner == owner {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
