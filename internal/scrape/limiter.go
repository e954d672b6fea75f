package scrape

// limiter.go bounds the number of scrape requests in flight across all
// editing sessions.
//
// When all slots are occupied, a load waits up to maxWait before failing
// with ErrTooManyScrapes. WaitForDrain blocks until every active scrape has
// returned, for graceful shutdown.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/MenuEditor/internal/core"
)

// ErrTooManyScrapes is returned when no scrape slot frees up in time.
var ErrTooManyScrapes = errors.New("too many concurrent loads, please try again later")

// DefaultMaxConcurrent is the default limit for parallel scrapes.
const DefaultMaxConcurrent = 4

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 30 * time.Second

// Limiter controls concurrent scrapes using a semaphore.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter that allows at most maxConcurrent scrapes.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &Limiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot.
// Returns ErrTooManyScrapes if maxWait passes first, or the context error.
// The caller must call Release when the scrape returns.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyScrapes
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of scrapes in flight.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no scrape is in flight or ctx is done.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for the health endpoint.
func (l *Limiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}

// Limit wraps s so every scrape holds a slot of l.
// A load that cannot get a slot fails as a network failure. When the slots
// stayed busy, the failure carries a user message saying so.
func Limit(s core.Scraper, l *Limiter) core.Scraper {
	return core.ScraperFunc(func(ctx context.Context, identifier string) (*core.ScrapeResponse, error) {
		if err := l.Acquire(ctx); err != nil {
			wrapped := fmt.Errorf("%w: %w", core.ErrNetwork, err)
			if errors.Is(err, ErrTooManyScrapes) {
				return nil, &core.UserError{Technical: wrapped, User: core.MapError(err)}
			}
			return nil, wrapped
		}
		defer l.Release()
		return s.Scrape(ctx, identifier)
	})
}
