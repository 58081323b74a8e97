package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceCache_TTL(t *testing.T) {
	c := NewReferenceCache(time.Minute, discardLogger())
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	var calls int
	fetch := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.Get(context.Background(), "types", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(30 * time.Second)
	v, _ = c.Get(context.Background(), "types", fetch)
	assert.Equal(t, 1, v)

	now = now.Add(31 * time.Second)
	v, _ = c.Get(context.Background(), "types", fetch)
	assert.Equal(t, 2, v)
}

func TestReferenceCache_InvalidateAndClear(t *testing.T) {
	c := NewReferenceCache(time.Hour, discardLogger())
	var calls int
	fetch := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, _ = c.Get(context.Background(), "types", fetch)
	_, _ = c.Get(context.Background(), "statuses", fetch)
	assert.Equal(t, 2, calls)

	c.Invalidate("types")
	v, _ := c.Get(context.Background(), "types", fetch)
	assert.Equal(t, 3, v)

	c.Clear()
	_, _ = c.Get(context.Background(), "types", fetch)
	_, _ = c.Get(context.Background(), "statuses", fetch)
	assert.Equal(t, 5, calls)

	v, err := c.Refresh(context.Background(), "statuses", fetch)
	require.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestReferenceCache_ErrorsAreNotCached(t *testing.T) {
	c := NewReferenceCache(time.Hour, discardLogger())
	boom := errors.New("boom")

	_, err := c.Get(context.Background(), "types", func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	v, err := c.Get(context.Background(), "types", func(context.Context) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestReferenceCache_CollapsesConcurrentMisses(t *testing.T) {
	c := NewReferenceCache(time.Hour, discardLogger())

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "priorities", fetch)
			assert.NoError(t, err)
			assert.Equal(t, "value", v)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestTypes_UsesCache(t *testing.T) {
	var hits atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/types", r.URL.Path)
		hits.Add(1)
		writeJSON(w, http.StatusOK, collectionPage(r, []map[string]any{
			{"id": 1, "name": "Task"},
			{"id": 2, "name": "Milestone", "isMilestone": true},
		}))
	})

	types, err := svc.Types(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.True(t, types[1].IsMilestone)

	_, err = svc.Types(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	require.NoError(t, svc.InvalidateReferenceData(ReferenceTypes))
	_, err = svc.Types(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	assert.Error(t, svc.InvalidateReferenceData("colors"))
}

func TestReferenceCache_InvalidateOtherKeyKeepsInFlightLoad(t *testing.T) {
	c := NewReferenceCache(time.Hour, discardLogger())

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return "statuses", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Get(context.Background(), "statuses", fetch)
		assert.NoError(t, err)
	}()

	<-started
	c.Invalidate("types")
	close(release)
	<-done

	v, err := c.Get(context.Background(), "statuses", fetch)
	require.NoError(t, err)
	assert.Equal(t, "statuses", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReferenceCache_InvalidateSameKeyDropsInFlightLoad(t *testing.T) {
	c := NewReferenceCache(time.Hour, discardLogger())

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return calls.Load(), nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Get(context.Background(), "types", fetch)
	}()

	<-started
	c.Invalidate("types")
	close(release)
	<-done

	v, err := c.Get(context.Background(), "types", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}
