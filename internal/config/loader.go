package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if err := populate(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// populate fills the tagged fields of the struct v, descending into
// nested sections.
func populate(v reflect.Value, getenv func(string) string) error {
	for i := 0; i < v.NumField(); i++ {
		sf, fv := v.Type().Field(i), v.Field(i)
		switch {
		case !fv.CanSet():
		case sf.Type.Kind() == reflect.Struct:
			if err := populate(fv, getenv); err != nil {
				return err
			}
		case sf.Tag.Get("env") != "":
			if err := assign(fv, sf.Tag, getenv); err != nil {
				return err
			}
		}
	}
	return nil
}

// assign resolves one field from its env, envAlt, required and default tags.
func assign(fv reflect.Value, tag reflect.StructTag, getenv func(string) string) error {
	name := tag.Get("env")
	raw := strings.TrimSpace(getenv(name))
	if alt := tag.Get("envAlt"); raw == "" && alt != "" {
		raw = strings.TrimSpace(getenv(alt))
	}

	if raw == "" {
		if tag.Get("required") == "true" {
			return fmt.Errorf("required environment variable %s is not set", name)
		}
		if raw = tag.Get("default"); raw == "" {
			return nil
		}
	}

	if err := parseInto(fv, raw); err != nil {
		return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
	}
	return nil
}

// parseInto converts raw to the type of fv and stores it.
func parseInto(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fv.Type())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", fv.Type())
	}
	return nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// problems collects validation failures.
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var p problems
	c.Server.validate(&p)
	c.Scrape.validate(&p)
	c.Session.validate(&p)
	c.Rate.validate(&p)
	c.Security.validate(&p)
	c.Logging.validate(&p)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (c *ServerConfig) validate(p *problems) {
	p.check(c.Port > 0 && c.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Port)
	p.check(c.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(c.WriteTimeout >= 0, "SERVER_WRITE_TIMEOUT must be non-negative")
	p.check(c.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	p.check(c.RequestTimeout > 0, "SERVER_REQUEST_TIMEOUT must be positive")
}

func (c *ScrapeConfig) validate(p *problems) {
	u, err := url.Parse(c.URL)
	p.check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
		"SCRAPE_URL (%q) must be an absolute http(s) URL", redactURL(c.URL))
	p.check(c.Timeout >= 0, "SCRAPE_TIMEOUT must be non-negative")
	p.check(c.MaxResponseBytes > 0, "SCRAPE_MAX_RESPONSE_BYTES must be positive")
	p.check(c.MaxConcurrent > 0, "SCRAPE_MAX_CONCURRENT must be positive")
	p.check(c.MaxWait > 0, "SCRAPE_MAX_WAIT must be positive")
}

func (c *SessionConfig) validate(p *problems) {
	p.check(c.IdleTimeout > 0, "SESSION_IDLE_TIMEOUT must be positive")
	p.check(c.SweepInterval > 0, "SESSION_SWEEP_INTERVAL must be positive")
	p.check(c.CookieName != "", "SESSION_COOKIE must not be empty")
}

// Limits are only checked while rate limiting is on.
func (c *RateLimitConfig) validate(p *problems) {
	if !c.Enabled {
		return
	}
	p.check(c.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	p.check(c.LoadLimit > 0, "RATE_LIMIT_LOAD must be positive when rate limiting is enabled")
}

func (c *SecurityConfig) validate(p *problems) {
	for _, entry := range c.TrustedProxies {
		_, prefixErr := netip.ParsePrefix(entry)
		_, addrErr := netip.ParseAddr(entry)
		p.check(prefixErr == nil || addrErr == nil, "TRUSTED_PROXIES entry %q is not an IP or CIDR", entry)
	}
}

func (c *LoggingConfig) validate(p *problems) {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		p.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Format)
	}
}

// redactURL masks any password in raw.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[INVALID]"
	}
	return u.Redacted()
}

// String returns a safe string representation of the config for logging.
// Credentials in the scrape URL are masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, "+
		"Scrape: {URL: %q, Timeout: %s, MaxConcurrent: %d}, "+
		"Session: {IdleTimeout: %s, Cookie: %q}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d, Load: %d}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port,
		redactURL(c.Scrape.URL), c.Scrape.Timeout, c.Scrape.MaxConcurrent,
		c.Session.IdleTimeout, c.Session.CookieName,
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.LoadLimit,
		c.Logging.Level, c.Logging.Format,
	)
}
