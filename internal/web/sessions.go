package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/MenuEditor/internal/core"
	"github.com/JonMunkholm/MenuEditor/internal/logging"
)

// Session is the editing state of one browser.
type Session struct {
	ID           string
	Store        *core.Store
	Menu         *core.Menu
	Toppings     *core.Toppings
	Exporter     *core.Exporter
	Orchestrator *core.Orchestrator

	lastSeen time.Time
}

func newSession(id string, scraper core.Scraper) *Session {
	store := core.NewStore()
	return &Session{
		ID:           id,
		Store:        store,
		Menu:         core.NewMenu(store),
		Toppings:     core.NewToppings(store),
		Exporter:     core.NewExporter(store),
		Orchestrator: core.NewOrchestrator(store, scraper),
	}
}

// SessionManager holds the sessions of all browsers and expires idle ones.
type SessionManager struct {
	scraper core.Scraper
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager whose sessions load through scraper
// and expire after idle without a request.
func NewSessionManager(scraper core.Scraper, idle time.Duration) *SessionManager {
	return &SessionManager{
		scraper:  scraper,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session with id and marks it used.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.Sub(s.lastSeen) > m.idle {
		delete(m.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Create starts a new, empty session.
func (m *SessionManager) Create() *Session {
	s := newSession(uuid.NewString(), m.scraper)

	m.mu.Lock()
	s.lastSeen = m.now()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("session created", "session_id", s.ID)
	return s
}

// Len returns the number of sessions held.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("expired idle sessions", "removed", n, "remaining", m.Len())
			}
		}
	}
}

type sessionCtxKey struct{}

// sessionFrom returns the session attached by withSession.
func sessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s
}

// withSession attaches the caller's session, creating one and setting the
// cookie when the request carries none or an expired one.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *Session
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			sess, _ = s.sessions.Get(c.Value)
		}
		if sess == nil {
			sess = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
		ctx = logging.WithSession(ctx, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
