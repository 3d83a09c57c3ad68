package limiters

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type retryLimiter interface {
	RecordFailure(ctx context.Context, account string) (bool, error)
	RecordSuccess(ctx context.Context, account string) error
	IsLocked(ctx context.Context, account string) (bool, error)
}

func newRedisRetryLimiter(t *testing.T, cfg RetryConfig) (*RedisRetryLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisRetryLimiter(rdb, "ag", cfg), mr
}

func testLockoutAtThreshold(t *testing.T, l retryLimiter, limit int) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < limit-1; i++ {
		locked, err := l.RecordFailure(ctx, "alice")
		if err != nil {
			t.Fatalf("RecordFailure %d failed: %v", i+1, err)
		}
		if locked {
			t.Fatalf("locked after %d failures, limit is %d", i+1, limit)
		}
	}

	locked, err := l.RecordFailure(ctx, "alice")
	if err != nil {
		t.Fatalf("threshold RecordFailure failed: %v", err)
	}
	if !locked {
		t.Fatalf("not locked after %d failures", limit)
	}

	locked, err = l.IsLocked(ctx, "alice")
	if err != nil || !locked {
		t.Fatalf("IsLocked = %v, %v after threshold", locked, err)
	}

	// Other accounts are unaffected.
	locked, err = l.IsLocked(ctx, "bob")
	if err != nil || locked {
		t.Fatalf("unrelated account locked: %v, %v", locked, err)
	}

	if err := l.RecordSuccess(ctx, "alice"); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}
	locked, err = l.IsLocked(ctx, "alice")
	if err != nil || locked {
		t.Fatalf("still locked after RecordSuccess: %v, %v", locked, err)
	}
}

func TestRedisRetryLimiter_LockoutAtThreshold(t *testing.T) {
	l, _ := newRedisRetryLimiter(t, RetryConfig{Limit: 3, Window: time.Minute})
	testLockoutAtThreshold(t, l, 3)
}

func TestMemoryRetryLimiter_LockoutAtThreshold(t *testing.T) {
	testLockoutAtThreshold(t, NewMemoryRetryLimiter(RetryConfig{Limit: 3, Window: time.Minute}), 3)
}

func TestRedisRetryLimiter_WindowExpiryUnlocks(t *testing.T) {
	l, mr := newRedisRetryLimiter(t, RetryConfig{Limit: 2, Window: 30 * time.Second})
	ctx := context.Background()

	l.RecordFailure(ctx, "alice")
	l.RecordFailure(ctx, "alice")

	locked, err := l.IsLocked(ctx, "alice")
	if err != nil || !locked {
		t.Fatalf("IsLocked = %v, %v", locked, err)
	}

	mr.FastForward(31 * time.Second)

	locked, err = l.IsLocked(ctx, "alice")
	if err != nil || locked {
		t.Fatalf("still locked after window expiry: %v, %v", locked, err)
	}
}

// Concurrent failures must not under-count: the counter is a single atomic
// INCR per attempt.
func TestRedisRetryLimiter_ConcurrentFailuresDoNotUnderCount(t *testing.T) {
	const workers = 16
	l, mr := newRedisRetryLimiter(t, RetryConfig{Limit: workers, Window: time.Minute})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.RecordFailure(ctx, "alice"); err != nil {
				t.Errorf("RecordFailure failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := mr.Get("ag:rty:alice")
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if got != "16" {
		t.Fatalf("counter = %s, want 16", got)
	}

	locked, err := l.IsLocked(ctx, "alice")
	if err != nil || !locked {
		t.Fatalf("IsLocked = %v, %v after %d concurrent failures", locked, err, workers)
	}
}

func TestMemoryRetryLimiter_ConcurrentFailuresDoNotUnderCount(t *testing.T) {
	const workers = 16
	l := NewMemoryRetryLimiter(RetryConfig{Limit: workers, Window: time.Minute})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RecordFailure(ctx, "alice")
		}()
	}
	wg.Wait()

	locked, err := l.IsLocked(ctx, "alice")
	if err != nil || !locked {
		t.Fatalf("IsLocked = %v, %v after %d concurrent failures", locked, err, workers)
	}
}

func TestRedisRetryLimiter_UnavailableBackend(t *testing.T) {
	l, mr := newRedisRetryLimiter(t, RetryConfig{Limit: 3, Window: time.Minute})
	ctx := context.Background()
	mr.Close()

	if _, err := l.RecordFailure(ctx, "alice"); !errors.Is(err, ErrRetryUnavailable) {
		t.Fatalf("RecordFailure error = %v, want ErrRetryUnavailable", err)
	}
	if _, err := l.IsLocked(ctx, "alice"); !errors.Is(err, ErrRetryUnavailable) {
		t.Fatalf("IsLocked error = %v, want ErrRetryUnavailable", err)
	}
}
