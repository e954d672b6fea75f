// Package web provides the HTTP surface of the menu editor.
//
// Every browser gets its own editing session, keyed by a cookie. Handlers
// translate JSON requests into core operations on that session and return
// view models; the export route streams the generated CSV.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/JonMunkholm/MenuEditor/internal/config"
	"github.com/JonMunkholm/MenuEditor/internal/core"
	"github.com/JonMunkholm/MenuEditor/internal/scrape"
	mw "github.com/JonMunkholm/MenuEditor/internal/web/middleware"
)

// Server is the HTTP server of the menu editor.
type Server struct {
	cfg      *config.Config
	sessions *SessionManager
	limiter  *scrape.Limiter
	router   *chi.Mux
	server   *http.Server

	// stop ends the session sweeper and rate limiter cleanup.
	stop context.CancelFunc
}

// NewServer creates a server whose sessions load through scraper. When
// limiter is non-nil, every scrape holds one of its slots.
func NewServer(cfg *config.Config, scraper core.Scraper, limiter *scrape.Limiter) *Server {
	if limiter != nil {
		scraper = scrape.Limit(scraper, limiter)
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		sessions: NewSessionManager(scraper, cfg.Session.IdleTimeout),
		limiter:  limiter,
		router:   chi.NewRouter(),
		stop:     stop,
	}
	go s.sessions.Run(ctx, cfg.Session.SweepInterval)

	s.setupMiddleware(ctx)
	s.setupRoutes(ctx)
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler)

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(ctx, s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(ctx context.Context) {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/platforms", s.handleListPlatforms)

		// Loads wait on the scrape backend, bounded by the scrape timeout
		// rather than the request timeout.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(newRateLimiter(ctx, s.cfg.Rate.LoadLimit, time.Minute).middleware)
			}
			r.Post("/load", s.handleLoad)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

			r.Post("/reset", s.handleReset)
			r.Get("/status", s.handleStatus)

			// Topping sub-editor
			r.Route("/toppings", func(r chi.Router) {
				r.Get("/", s.handleToppingTree)
				r.Post("/open/{domID}", s.handleOpenToppings)
				r.Post("/confirm", s.handleConfirmToppings)
				r.Post("/groups", s.handleAddGroup)
				r.Patch("/groups/{groupID}", s.handleUpdateGroup)
				r.Delete("/groups/{groupID}", s.handleDeleteGroup)
				r.Post("/groups/{groupID}/toppings", s.handleAddTopping)
				r.Patch("/groups/{groupID}/toppings/{toppingID}", s.handleUpdateTopping)
				r.Delete("/groups/{groupID}/toppings/{toppingID}", s.handleDeleteTopping)
			})

			// Schedule editor
			r.Route("/schedule", func(r chi.Router) {
				r.Get("/", s.handleSchedules)
				r.Delete("/", s.handleCloseSchedules)
				r.Post("/open", s.handleOpenSchedules)
				r.Post("/confirm", s.handleConfirmSchedules)
				r.Post("/{platform}/days/{weekday}", s.handleEditDay)
			})

			// Per-platform menu editing
			r.Route("/{platform}", func(r chi.Router) {
				r.Get("/menu", s.handleMenu)
				r.Get("/vendor", s.handleVendor)
				r.Patch("/vendor", s.handleUpdateVendor)
				r.Patch("/items/{domID}", s.handleUpdateItem)
				r.Delete("/items/{domID}", s.handleDeleteItem)
				r.Post("/categories", s.handleAddCategory)
				r.Delete("/categories/{name}", s.handleUndoCategory)
				r.Post("/categories/{name}/items", s.handleAddItem)
				r.Post("/sections/{sectionID}/toggle", s.handleToggleSection)
				r.Post("/sections/{sectionID}/focus", s.handleFocusSection)
				r.Get("/export", s.handleExport)
			})
		})
	})
}

// Handler returns the root handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session registry.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Run serves HTTP until ctx is done, then shuts down within the configured
// shutdown timeout. It returns only after in-flight requests and scrapes
// have finished or the timeout has passed.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	served := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", s.server.Addr)
		err := s.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	select {
	case err := <-served:
		s.stop()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	if s.limiter != nil {
		if active := s.limiter.ActiveCount(); active > 0 {
			slog.Info("waiting for loads to complete", "active", active)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := s.Shutdown(shutdownCtx)
	if serr := <-served; serr != nil && err == nil {
		err = serr
	}
	return err
}

// Shutdown gracefully stops the server and waits for scrapes in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.stop()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if s.limiter != nil {
		if derr := s.limiter.WaitForDrain(ctx); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The API serves JSON and CSV only.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a fixed-window rate limiter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a limiter with rate requests per window. Stale
// entries are dropped until ctx is done.
func newRateLimiter(ctx context.Context, rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
	go rl.cleanup(ctx)
	return rl
}

// cleanup removes stale visitor entries every window.
func (rl *rateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for ip, v := range rl.visitors {
				if now.Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by client IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(mw.ClientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respondError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errRateLimited = errors.New("rate limit exceeded")
