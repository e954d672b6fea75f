package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(idle time.Duration) (*SessionManager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewSessionManager(nil, idle)
	m.now = clock.now
	return m, clock
}

// =============================================================================
// SessionManager
// =============================================================================

func TestSessionManager_CreateAndGet(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	s := m.Create()
	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID)
	assert.NotNil(t, s.Store)
	assert.NotNil(t, s.Menu)
	assert.NotNil(t, s.Toppings)
	assert.NotNil(t, s.Exporter)
	assert.NotNil(t, s.Orchestrator)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Get("unknown")
	assert.False(t, ok)
}

func TestSessionManager_DistinctIDs(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	a, b := m.Create(), m.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Store, b.Store)
	assert.Equal(t, 2, m.Len())
}

func TestSessionManager_IdleExpiry(t *testing.T) {
	m, clock := newTestManager(time.Hour)
	s := m.Create()

	clock.advance(50 * time.Minute)
	_, ok := m.Get(s.ID)
	require.True(t, ok, "session expired early")

	// Get refreshed lastSeen, so another 50 minutes is still inside the window.
	clock.advance(50 * time.Minute)
	_, ok = m.Get(s.ID)
	require.True(t, ok, "use did not extend the session")

	clock.advance(61 * time.Minute)
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestSessionManager_Sweep(t *testing.T) {
	m, clock := newTestManager(time.Hour)
	old := m.Create()

	clock.advance(45 * time.Minute)
	fresh := m.Create()

	clock.advance(30 * time.Minute)
	assert.Equal(t, 1, m.Sweep())

	_, ok := m.Get(old.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSessionManager_RunStopsOnCancel(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// =============================================================================
// withSession
// =============================================================================

func TestWithSession_Cookie(t *testing.T) {
	srv := newTestServer(t, nil)

	var seen []string
	h := srv.withSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		require.NotNil(t, sess)
		seen = append(seen, sess.ID)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "menu_session", c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, seen[0], c.Value)

	// The cookie selects the same session and is not set again.
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, seen[0], seen[1])

	// An unknown cookie gets a fresh session.
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.AddCookie(&http.Cookie{Name: "menu_session", Value: "gone"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "gone", seen[2])
	assert.Equal(t, 2, srv.Sessions().Len())
}
