package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/cache"
)

type snapshot struct {
	A, B, C *float64
}

func blobSource(name string, blob map[string]any) models.Source {
	return models.Source{
		Name: name,
		Fetch: func(ctx context.Context) (any, error) {
			return blob, nil
		},
	}
}

func failingSource(name string) models.Source {
	return models.Source{
		Name: name,
		Fetch: func(ctx context.Context) (any, error) {
			return nil, errors.New(name + " unavailable")
		},
	}
}

func mergeSnapshot(results []models.SourceResult) snapshot {
	var s snapshot
	if r, ok := Find(results, "a"); ok && r.OK() {
		s.A = Number(r.Payload, "value")
	}
	if r, ok := Find(results, "b"); ok && r.OK() {
		s.B = Number(r.Payload, "value")
	}
	if r, ok := Find(results, "c"); ok && r.OK() {
		s.C = Number(r.Payload, "value")
	}
	return s
}

func TestSettleAll_StartsAllBeforeAwaiting(t *testing.T) {
	svc := NewService(arbor.NewLogger(), time.Second)

	var started int32
	gate := make(chan struct{})
	src := func(name string) models.Source {
		return models.Source{Name: name, Fetch: func(ctx context.Context) (any, error) {
			if atomic.AddInt32(&started, 1) == 3 {
				close(gate)
			}
			select {
			case <-gate:
				return name, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}}
	}

	results := svc.SettleAll(context.Background(), src("a"), src("b"), src("c"))

	require.Len(t, results, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, results[i].Name)
		assert.NoError(t, results[i].Err)
		assert.Equal(t, name, results[i].Payload)
	}
}

func TestSettleAll_IsolatesFailures(t *testing.T) {
	svc := NewService(arbor.NewLogger(), 50*time.Millisecond)

	slow := models.Source{Name: "slow", Fetch: func(ctx context.Context) (any, error) {
		time.Sleep(500 * time.Millisecond)
		return "late", nil
	}}
	panicky := models.Source{Name: "panicky", Fetch: func(ctx context.Context) (any, error) {
		panic("boom")
	}}

	start := time.Now()
	results := svc.SettleAll(context.Background(),
		blobSource("ok", map[string]any{"value": 1.0}),
		failingSource("down"),
		slow,
		panicky,
	)

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	require.Len(t, results, 4)
	assert.True(t, results[0].OK())
	assert.Error(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, ErrSourceTimeout)
	assert.ErrorContains(t, results[3].Err, "panic")
}

func TestFetchAggregate_PartialFailure(t *testing.T) {
	svc := NewService(arbor.NewLogger(), time.Second)

	got, err := FetchAggregate(context.Background(), svc, Request[snapshot]{
		Name: "test",
		Sources: []models.Source{
			blobSource("a", map[string]any{"value": 1.5}),
			failingSource("b"),
			blobSource("c", map[string]any{"value": "3.25"}),
		},
		Merge: mergeSnapshot,
	})

	require.NoError(t, err)
	require.NotNil(t, got.A)
	assert.Equal(t, 1.5, *got.A)
	assert.Nil(t, got.B)
	require.NotNil(t, got.C)
	assert.Equal(t, 3.25, *got.C)
}

func TestFetchAggregate_AllFailed(t *testing.T) {
	svc := NewService(arbor.NewLogger(), time.Second)
	c := cache.NewService(arbor.NewLogger())

	_, err := FetchAggregate(context.Background(), svc, Request[snapshot]{
		Name:    "test",
		Sources: []models.Source{failingSource("a"), failingSource("b")},
		Merge:   mergeSnapshot,
		Cache:   c,
		Key:     "economic:test",
	})

	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	_, ok := c.Get("economic:test")
	assert.False(t, ok)
}

func TestFetchAggregate_CacheFirstAndWriteThrough(t *testing.T) {
	svc := NewService(arbor.NewLogger(), time.Second)
	c := cache.NewService(arbor.NewLogger())

	var calls int32
	counting := models.Source{Name: "a", Fetch: func(ctx context.Context) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		return map[string]any{"value": float64(n)}, nil
	}}
	req := Request[snapshot]{
		Name:    "test",
		Sources: []models.Source{counting},
		Merge:   mergeSnapshot,
		Cache:   c,
		Key:     "economic:test",
	}

	first, err := FetchAggregate(context.Background(), svc, req)
	require.NoError(t, err)
	second, err := FetchAggregate(context.Background(), svc, req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, *first.A, *second.A)

	cached, ok := cache.GetAs[snapshot](c, "economic:test")
	require.True(t, ok)
	assert.Equal(t, 1.0, *cached.A)

	req.Refresh = true
	refreshed, err := FetchAggregate(context.Background(), svc, req)
	require.NoError(t, err)
	assert.Equal(t, 2.0, *refreshed.A)

	cached, _ = cache.GetAs[snapshot](c, "economic:test")
	assert.Equal(t, 2.0, *cached.A)
}
