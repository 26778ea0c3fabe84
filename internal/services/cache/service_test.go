package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 13, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(clock *fakeClock, opts ...Option) *Service {
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(arbor.NewLogger(), opts...)
}

func TestService_SetGetExpires(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	for _, ttl := range []time.Duration{time.Millisecond, time.Second, time.Minute, 48 * time.Hour} {
		c.Set("k", "v", ttl)

		v, ok := c.Get("k")
		require.True(t, ok, "ttl %v", ttl)
		assert.Equal(t, "v", v)

		clock.Advance(ttl)

		_, ok = c.Get("k")
		assert.False(t, ok, "ttl %v should have expired", ttl)
		assert.Equal(t, 0, c.Stats().TotalItems)
	}
}

func TestService_NamespaceDefaultTTL(t *testing.T) {
	tests := []struct {
		key string
		ttl time.Duration
	}{
		{"economic:indicators", 24 * time.Hour},
		{"ai:eval:AAPL", 12 * time.Hour},
		{"news:AAPL:2026-10-13", 6 * time.Hour},
		{"chat:session-1", time.Hour},
		{"stock:AAPL", 5 * time.Minute},
		{"chart:GSPC.INDX", time.Hour},
		{"unknown:thing", DefaultTTL},
		{"no-namespace", DefaultTTL},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clock := newFakeClock()
			c := newTestCache(clock)

			c.Set(tt.key, 42, 0)

			clock.Advance(tt.ttl - time.Second)
			_, ok := c.Get(tt.key)
			assert.True(t, ok, "expired before namespace default")

			clock.Advance(time.Second)
			_, ok = c.Get(tt.key)
			assert.False(t, ok, "still present after namespace default")
		})
	}
}

func TestService_NamespaceTTLOverrides(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, WithNamespaceTTLs(map[string]time.Duration{
		NamespaceStock: time.Minute,
		NamespaceNews:  0,
	}))

	assert.Equal(t, time.Minute, c.TTLFor("stock:AAPL"))
	assert.Equal(t, 6*time.Hour, c.TTLFor("news:AAPL"))
}

func TestService_SetOverwrites(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Set("stock:AAPL", 1, time.Minute)
	c.Set("stock:AAPL", 2, time.Hour)

	clock.Advance(2 * time.Minute)
	v, ok := c.Get("stock:AAPL")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestService_DeleteAndClear(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Set("stock:AAPL", 1, 0)
	c.Set("stock:MSFT", 2, 0)
	c.Set("economic:indicators", 3, 0)

	assert.True(t, c.Delete("stock:AAPL"))
	assert.False(t, c.Delete("stock:AAPL"))

	c.Get("stock:MSFT")
	c.Get("stock:missing")

	assert.Equal(t, 2, c.Clear())

	stats := c.Stats()
	assert.Equal(t, 0, stats.TotalItems)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, float64(0), stats.HitRate)
}

func TestService_Stats(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Set("stock:AAPL", 1, 0)
	c.Set("stock:MSFT", 1, 0)
	c.Set("economic:indicators", 1, 0)
	c.Set("plain", 1, 0)

	c.Get("stock:AAPL")
	c.Get("stock:MSFT")
	c.Get("economic:indicators")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 4, stats.TotalItems)
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 75.0, stats.HitRate)
	assert.Equal(t, map[string]int{"stock": 2, "economic": 1, "other": 1}, stats.ItemsByNamespace)
}

func TestService_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Set("stock:AAPL", 1, time.Minute)
	c.Set("economic:indicators", 1, time.Hour)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.Sweep())

	_, ok := c.Get("economic:indicators")
	assert.True(t, ok)
}

func TestService_StartSweeperStops(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Set("stock:AAPL", 1, time.Minute)
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.entries) == 0
	}, time.Second, 5*time.Millisecond)

	c.Close()
	c.Close()
}

func TestService_GetOrLoadCoalesces(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "loaded", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "stock:AAPL", 0, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let the goroutines pile up behind the first load
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	for _, v := range results {
		assert.Equal(t, "loaded", v)
	}

	v, ok := c.Get("stock:AAPL")
	require.True(t, ok)
	assert.Equal(t, "loaded", v)
}

func TestService_GetOrLoadErrorNotCached(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	boom := errors.New("upstream down")
	_, err := c.GetOrLoad(context.Background(), "stock:AAPL", 0, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get("stock:AAPL")
	assert.False(t, ok)
}

func TestService_GetOrLoadSurvivesCallerCancel(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "loaded", nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(firstCtx, "economic:indicators", 0, load)
		firstErr <- err
	}()
	<-started

	second := make(chan any, 1)
	go func() {
		v, err := c.GetOrLoad(context.Background(), "economic:indicators", 0, load)
		assert.NoError(t, err)
		second <- v
	}()

	// The first caller leaves while the load is in flight
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "loaded", <-second)

	v, ok := c.Get("economic:indicators")
	require.True(t, ok)
	assert.Equal(t, "loaded", v)
}

func TestGetAs(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Set("stock:AAPL", 12.5, 0)

	f, ok := GetAs[float64](c, "stock:AAPL")
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	_, ok = GetAs[string](c, "stock:AAPL")
	assert.False(t, ok)
}

func TestService_ConcurrentAccess(t *testing.T) {
	c := NewService(arbor.NewLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key(NamespaceStock, string(rune('A'+i%26)))
			c.Set(key, i, 0)
			c.Get(key)
			c.Stats()
			if i%10 == 0 {
				c.Sweep()
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().TotalItems, 26)
}
