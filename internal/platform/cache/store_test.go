package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
)

func TestStore_GetOrLoad_SharesConcurrentMiss(t *testing.T) {
	t.Parallel()

	store := NewStore[[]string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []string{"athlete-a", "athlete-b"}, nil
	}

	const workers = 32
	start := make(chan struct{})
	var failures atomic.Int32
	var wg conc.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Go(func() {
			<-start
			v, err := store.GetOrLoad(context.Background(), "leaderboard:t1", loader)
			if err != nil || len(v) != 2 {
				failures.Add(1)
			}
		})
	}

	close(start)
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d loads returned an unexpected value", failures.Load())
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	errBoom := errors.New("boom")
	var calls atomic.Int32

	failing := func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errBoom
	}
	if _, err := store.GetOrLoad(context.Background(), "k", failing); !errors.Is(err, errBoom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", failing); !errors.Is(err, errBoom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected loader retried after error, got %d calls", calls.Load())
	}
}

func TestStore_ExpiresAndDeletesByPrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	store.Set(ctx, "leaderboard:t1", "a")
	store.Set(ctx, "leaderboard:t2", "b")
	store.Set(ctx, "annual:2026", "c")

	if _, storedAt, ok := store.GetWithTime(ctx, "annual:2026"); !ok || !storedAt.Equal(now) {
		t.Fatalf("expected stored value with timestamp, got ok=%v at=%s", ok, storedAt)
	}

	store.DeletePrefix(ctx, "leaderboard:")
	if _, ok := store.Get(ctx, "leaderboard:t1"); ok {
		t.Fatalf("expected prefix delete to drop leaderboard:t1")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", store.Len())
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(ctx, "annual:2026"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_GetOrLoad_InvalidationDuringLoadIsNotStored(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	ctx := context.Background()

	v, err := store.GetOrLoad(ctx, "leaderboard:t1", func(ctx context.Context) (string, error) {
		store.Delete(ctx, "leaderboard:t1")
		return "stale", nil
	})
	if err != nil || v != "stale" {
		t.Fatalf("expected loaded value returned to caller, got %q %v", v, err)
	}
	if _, ok := store.Get(ctx, "leaderboard:t1"); ok {
		t.Fatalf("value loaded across an invalidation must not be cached")
	}
}
