package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "insightigraph_session"

// Session is the per-browser state: at most one loaded dataset.
type Session struct {
	Dataset    *dataset.Dataset
	FileName   string
	UploadedAt time.Time
}

// Loaded reports whether a dataset is present.
func (s Session) Loaded() bool { return s.Dataset != nil }

// Store maps session ids to their state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// Get returns a copy of the session state for id.
func (s *Store) Get(id string) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Put replaces the session state for id.
func (s *Store) Put(id string, sess Session) {
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
}

// Reset discards the dataset of session id.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len is the number of sessions holding a dataset.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

type sessionKey struct{}

type requestSession struct {
	ID string
	Session
}

// withSession resolves the session cookie, issuing a new id when the request
// has none, and stores a snapshot of the session in the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		snap := requestSession{ID: id, Session: s.sessions.Get(id)}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, snap)))
	})
}

func sessionFrom(ctx context.Context) requestSession {
	snap, _ := ctx.Value(sessionKey{}).(requestSession)
	return snap
}
