package debugger

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bookmark marks a named location of interest within a session.
type Bookmark struct {
	ID                uint32
	Name              string
	FunctionIndex     uint32
	InstructionOffset uint32
	Description       string
	CreatedAt         time.Time
}

// DebugLocation pins a note to a specific instruction.
type DebugLocation struct {
	FunctionIndex     uint32
	InstructionOffset uint32
}

// Note is a free-form annotation, optionally anchored to a DebugLocation.
type Note struct {
	ID        uint32
	Content   string
	Location  *DebugLocation
	CreatedAt time.Time
}

// DebugSession groups the breakpoints, bookmarks, notes, and scratch
// variables accumulated while debugging one module instance. Session ids
// are v4 UUIDs, unique across managers and process restarts.
type DebugSession struct {
	mu sync.Mutex

	ID          string
	CreatedAt   time.Time
	ModuleName  string
	Breakpoints []Breakpoint
	Variables   map[string]string
	Bookmarks   []Bookmark
	Notes       []Note
}

// NewDebugSession returns a session with a fresh id and no module name set.
func NewDebugSession() *DebugSession {
	return &DebugSession{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		ModuleName: "unknown",
		Variables:  make(map[string]string),
	}
}

// NewDebugSessionForModule returns a fresh session labeled with moduleName.
func NewDebugSessionForModule(moduleName string) *DebugSession {
	s := NewDebugSession()
	s.ModuleName = moduleName
	return s
}

// AddBookmark records a named bookmark and returns its session-local id.
func (s *DebugSession) AddBookmark(name string, functionIndex, offset uint32, description string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint32(len(s.Bookmarks)) + 1
	s.Bookmarks = append(s.Bookmarks, Bookmark{
		ID:                id,
		Name:              name,
		FunctionIndex:     functionIndex,
		InstructionOffset: offset,
		Description:       description,
		CreatedAt:         time.Now(),
	})
	return id
}

// RemoveBookmark deletes a bookmark by id, reporting whether it existed.
func (s *DebugSession) RemoveBookmark(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.Bookmarks {
		if b.ID == id {
			s.Bookmarks = append(s.Bookmarks[:i], s.Bookmarks[i+1:]...)
			return true
		}
	}
	return false
}

// AddNote records a free-form note, optionally anchored to a location, and
// returns its session-local id.
func (s *DebugSession) AddNote(content string, location *DebugLocation) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint32(len(s.Notes)) + 1
	s.Notes = append(s.Notes, Note{
		ID:        id,
		Content:   content,
		Location:  location,
		CreatedAt: time.Now(),
	})
	return id
}

// SetVariable stores a named scratch value on the session.
func (s *DebugSession) SetVariable(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Variables[name] = value
}

// GetVariable reads a named scratch value from the session.
func (s *DebugSession) GetVariable(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Variables[name]
	return v, ok
}

// sessionJSON is the wire shape for DebugSession serialization; only
// session metadata, breakpoints, bookmarks, notes, and variables are exported.
// Persisting a session to or loading it from a file is out of scope: a
// session is a live debugging aid, not durable storage.
type sessionJSON struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	ModuleName  string            `json:"module_name"`
	Breakpoints []Breakpoint      `json:"breakpoints"`
	Bookmarks   []Bookmark        `json:"bookmarks"`
	Notes       []Note            `json:"notes"`
	Variables   map[string]string `json:"variables"`
}

// MarshalJSON renders the session as its wire shape.
func (s *DebugSession) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(sessionJSON{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		ModuleName:  s.ModuleName,
		Breakpoints: s.Breakpoints,
		Bookmarks:   s.Bookmarks,
		Notes:       s.Notes,
		Variables:   s.Variables,
	})
}

// SessionManager owns a set of concurrent debug sessions and tracks which
// one is active.
type SessionManager struct {
	mu             sync.Mutex
	sessions       map[string]*DebugSession
	currentSession string
}

// NewSessionManager returns an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*DebugSession)}
}

// CreateSession starts a new session for moduleName, makes it current, and
// returns its id.
func (m *SessionManager) CreateSession(moduleName string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := NewDebugSessionForModule(moduleName)
	m.sessions[session.ID] = session
	m.currentSession = session.ID
	return session.ID
}

// GetSession looks up a session by id.
func (m *SessionManager) GetSession(id string) (*DebugSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetCurrentSession returns the active session, if any.
func (m *SessionManager) GetCurrentSession() (*DebugSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentSession == "" {
		return nil, false
	}
	s, ok := m.sessions[m.currentSession]
	return s, ok
}

// SwitchSession makes id the active session, reporting whether it exists.
func (m *SessionManager) SwitchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	m.currentSession = id
	return true
}

// ListSessions returns every known session id, in no particular order.
func (m *SessionManager) ListSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out
}

// RemoveSession deletes a session by id, clearing it as current if it was
// active.
func (m *SessionManager) RemoveSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	if m.currentSession == id {
		m.currentSession = ""
	}
	return true
}

// ExportTrace renders tracer's trace in format via tracer.Export. The output
// is not tagged with the session id or module name.
func (s *DebugSession) ExportTrace(tracer *ExecutionTracer, format TraceFormat) (string, error) {
	return tracer.Export(format)
}
