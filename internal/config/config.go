// Package config loads the editor's settings from environment variables.
// Every field has a default; the loaded values are validated as a whole so
// a misconfigured process refuses to start.
package config

import (
	"strconv"
	"time"
)

// Config holds the settings of one editor process.
type Config struct {
	Server   ServerConfig
	Scrape   ScrapeConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds listener and timeout settings.
type ServerConfig struct {
	// Host is the bind interface (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the listen port (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout bounds reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds writing a response (default: 0, none).
	// A load waits on the scrape backend, which can take minutes.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout closes idle keep-alive connections (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including loads in flight (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-load requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// ScrapeConfig holds settings for the external scrape endpoint.
type ScrapeConfig struct {
	// URL is the scrape endpoint. BACKEND_SCRAPE_URL is accepted as well.
	URL string `env:"SCRAPE_URL" envAlt:"BACKEND_SCRAPE_URL" default:"http://127.0.0.1:5001/scrape"`

	// Timeout bounds a single scrape request (default: 0, none)
	Timeout time.Duration `env:"SCRAPE_TIMEOUT" default:"0s"`

	// MaxResponseBytes caps the decoded response body (default: 64MB)
	MaxResponseBytes int64 `env:"SCRAPE_MAX_RESPONSE_BYTES" default:"67108864"`

	// MaxConcurrent is the number of scrapes allowed in flight across sessions (default: 4)
	MaxConcurrent int `env:"SCRAPE_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a load waits for a free scrape slot (default: 30s)
	MaxWait time.Duration `env:"SCRAPE_MAX_WAIT" default:"30s"`
}

// SessionConfig holds per-browser editing session settings.
type SessionConfig struct {
	// IdleTimeout expires sessions not touched for this long (default: 2h)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"2h"`

	// SweepInterval is how often expired sessions are removed (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// CookieName names the session cookie (default: menu_session)
	CookieName string `env:"SESSION_COOKIE" default:"menu_session"`

	// CookieSecure marks the cookie Secure; enable behind TLS (default: false)
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" default:"false"`
}

// RateLimitConfig holds per-IP request budgets.
type RateLimitConfig struct {
	// Enabled turns the budgets on (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the budget of every route (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// LoadLimit is requests per minute for the load endpoint (default: 10)
	LoadLimit int `env:"RATE_LIMIT_LOAD" default:"10"`
}

// SecurityConfig holds proxy trust and browser policy settings.
type SecurityConfig struct {
	// TrustedProxies lists the proxies, as IPs or CIDRs, whose forwarding headers are honoured
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// CORSAllowedOrigins is a comma-separated list of origins; "*" allows any (default: *)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// EnableCSP sends a Content-Security-Policy header (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns host:port for the listener.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
