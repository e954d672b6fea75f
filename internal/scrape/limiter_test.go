package scrape

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/MenuEditor/internal/core"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := NewLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, LimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, l.Status())

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, 2, l.ActiveCount())
	assert.Equal(t, 0, l.Status().Available)

	l.Release()
	assert.Equal(t, LimiterStatus{Active: 1, Available: 1, MaxConcurrent: 2}, l.Status())

	l.Release()
	assert.Equal(t, 0, l.ActiveCount())
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrent, l.Status().MaxConcurrent)
	assert.Equal(t, DefaultMaxWait, l.maxWait)
}

func TestLimiter_TryAcquire(t *testing.T) {
	l := NewLimiter(1, time.Second)

	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire(), "second TryAcquire should fail while the slot is held")

	l.Release()
	assert.True(t, l.TryAcquire())
	l.Release()
}

func TestLimiter_Timeout(t *testing.T) {
	l := NewLimiter(1, 30*time.Millisecond)
	require.True(t, l.TryAcquire())
	defer l.Release()

	start := time.Now()
	err := l.Acquire(context.Background())

	assert.ErrorIs(t, err, ErrTooManyScrapes)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := NewLimiter(1, 10*time.Second)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiter_AlreadyCancelled(t *testing.T) {
	l := NewLimiter(1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Acquire(ctx), context.Canceled)
	assert.Equal(t, 0, l.ActiveCount())
}

func TestLimiter_WaitForDrain(t *testing.T) {
	l := NewLimiter(2, time.Second)
	require.True(t, l.TryAcquire())

	go func() {
		time.Sleep(30 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.WaitForDrain(ctx))
	assert.Equal(t, 0, l.ActiveCount())
}

func TestLimiter_WaitForDrainTimeout(t *testing.T) {
	l := NewLimiter(1, time.Second)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitForDrain(ctx), context.DeadlineExceeded)
}

func TestLimit_BoundsConcurrency(t *testing.T) {
	const maxConcurrent = 2
	l := NewLimiter(maxConcurrent, time.Second)

	var inFlight, peak int32
	slow := core.ScraperFunc(func(ctx context.Context, identifier string) (*core.ScrapeResponse, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return &core.ScrapeResponse{OK: true, Success: true}, nil
	})
	limited := Limit(slow, l)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := limited.Scrape(context.Background(), "abc")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(maxConcurrent))
	assert.Equal(t, 0, l.ActiveCount())
}

func TestLimit_BusyIsNetworkFailure(t *testing.T) {
	l := NewLimiter(1, 10*time.Millisecond)
	require.True(t, l.TryAcquire())
	defer l.Release()

	called := false
	limited := Limit(core.ScraperFunc(func(context.Context, string) (*core.ScrapeResponse, error) {
		called = true
		return nil, nil
	}), l)

	_, err := limited.Scrape(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNetwork))
	assert.ErrorIs(t, err, ErrTooManyScrapes)
	assert.Equal(t, "REQ005", core.MapError(err).Code)
	assert.False(t, called)
}
