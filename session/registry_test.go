package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Registry is satisfied by both backends; tests run against each.
type Registry interface {
	Register(ctx context.Context, account, tokenID string) (string, error)
	Remove(ctx context.Context, account, tokenID string) error
	Contains(ctx context.Context, account, tokenID string) (bool, error)
	Count(ctx context.Context, account string) (int, error)
}

func newRedisRegistry(t *testing.T, cfg Config) Registry {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reg, err := NewRedisRegistry(rdb, cfg)
	if err != nil {
		t.Fatalf("NewRedisRegistry failed: %v", err)
	}
	return reg
}

func newMemoryRegistry(t *testing.T, cfg Config) Registry {
	t.Helper()

	reg, err := NewMemoryRegistry(cfg)
	if err != nil {
		t.Fatalf("NewMemoryRegistry failed: %v", err)
	}
	return reg
}

func eachRegistry(t *testing.T, cfg Config, run func(t *testing.T, reg Registry)) {
	t.Run("redis", func(t *testing.T) { run(t, newRedisRegistry(t, cfg)) })
	t.Run("memory", func(t *testing.T) { run(t, newMemoryRegistry(t, cfg)) })
}

func TestRegistry_EvictOldestAtCap(t *testing.T) {
	cfg := Config{MaxSessions: 2, EvictOldest: true, MaxLifetime: time.Hour}

	eachRegistry(t, cfg, func(t *testing.T, reg Registry) {
		ctx := context.Background()

		for _, id := range []string{"t1", "t2"} {
			evicted, err := reg.Register(ctx, "alice", id)
			if err != nil || evicted != "" {
				t.Fatalf("Register(%s) = %q, %v", id, evicted, err)
			}
		}

		evicted, err := reg.Register(ctx, "alice", "t3")
		if err != nil {
			t.Fatalf("Register(t3) failed: %v", err)
		}
		if evicted != "t1" {
			t.Fatalf("evicted %q, want t1 (earliest registered)", evicted)
		}

		for id, want := range map[string]bool{"t1": false, "t2": true, "t3": true} {
			got, err := reg.Contains(ctx, "alice", id)
			if err != nil {
				t.Fatalf("Contains(%s) failed: %v", id, err)
			}
			if got != want {
				t.Fatalf("Contains(%s) = %v, want %v", id, got, want)
			}
		}

		n, err := reg.Count(ctx, "alice")
		if err != nil || n != 2 {
			t.Fatalf("Count = %d, %v, want 2", n, err)
		}
	})
}

func TestRegistry_RejectNewAtCap(t *testing.T) {
	cfg := Config{MaxSessions: 1, EvictOldest: false, MaxLifetime: time.Hour}

	eachRegistry(t, cfg, func(t *testing.T, reg Registry) {
		ctx := context.Background()

		if _, err := reg.Register(ctx, "alice", "t1"); err != nil {
			t.Fatalf("Register(t1) failed: %v", err)
		}
		if _, err := reg.Register(ctx, "alice", "t2"); !errors.Is(err, ErrSessionLimit) {
			t.Fatalf("Register(t2) = %v, want ErrSessionLimit", err)
		}

		// The original session survives the rejected attempt.
		ok, err := reg.Contains(ctx, "alice", "t1")
		if err != nil || !ok {
			t.Fatalf("Contains(t1) = %v, %v", ok, err)
		}
	})
}

func TestRegistry_ReregisterIsNoOp(t *testing.T) {
	cfg := Config{MaxSessions: 1, EvictOldest: true, MaxLifetime: time.Hour}

	eachRegistry(t, cfg, func(t *testing.T, reg Registry) {
		ctx := context.Background()

		if _, err := reg.Register(ctx, "alice", "t1"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		evicted, err := reg.Register(ctx, "alice", "t1")
		if err != nil || evicted != "" {
			t.Fatalf("re-register = %q, %v, want no-op", evicted, err)
		}

		n, err := reg.Count(ctx, "alice")
		if err != nil || n != 1 {
			t.Fatalf("Count = %d, %v, want 1", n, err)
		}
	})
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	cfg := Config{MaxSessions: 2, EvictOldest: true, MaxLifetime: time.Hour}

	eachRegistry(t, cfg, func(t *testing.T, reg Registry) {
		ctx := context.Background()

		if _, err := reg.Register(ctx, "alice", "t1"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if err := reg.Remove(ctx, "alice", "t1"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if err := reg.Remove(ctx, "alice", "t1"); err != nil {
			t.Fatalf("second Remove failed: %v", err)
		}

		ok, err := reg.Contains(ctx, "alice", "t1")
		if err != nil || ok {
			t.Fatalf("Contains after Remove = %v, %v", ok, err)
		}
	})
}

func TestRegistry_AccountsAreIsolated(t *testing.T) {
	cfg := Config{MaxSessions: 1, EvictOldest: false, MaxLifetime: time.Hour}

	eachRegistry(t, cfg, func(t *testing.T, reg Registry) {
		ctx := context.Background()

		if _, err := reg.Register(ctx, "alice", "t1"); err != nil {
			t.Fatalf("Register(alice) failed: %v", err)
		}
		// Bob's cap is independent of alice's.
		if _, err := reg.Register(ctx, "bob", "t2"); err != nil {
			t.Fatalf("Register(bob) failed: %v", err)
		}
	})
}

// Concurrent registrations must never leave the set above the cap: cap
// check, eviction, and insertion are one atomic step per account.
func TestRegistry_ConcurrentRegistrationsHonorCap(t *testing.T) {
	const maxSessions = 3
	const workers = 24
	cfg := Config{MaxSessions: maxSessions, EvictOldest: true, MaxLifetime: time.Hour}

	eachRegistry(t, cfg, func(t *testing.T, reg Registry) {
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			id := fmt.Sprintf("tok-%02d", i)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := reg.Register(ctx, "alice", id); err != nil {
					t.Errorf("Register(%s) failed: %v", id, err)
				}
			}()
		}
		wg.Wait()

		n, err := reg.Count(ctx, "alice")
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != maxSessions {
			t.Fatalf("Count = %d, want exactly %d", n, maxSessions)
		}
	})
}

func TestMemoryRegistry_ExpiredMembersDoNotCountTowardCap(t *testing.T) {
	reg := newMemoryRegistry(t, Config{MaxSessions: 1, EvictOldest: false, MaxLifetime: 20 * time.Millisecond})
	ctx := context.Background()

	if _, err := reg.Register(ctx, "alice", "t1"); err != nil {
		t.Fatalf("Register(t1) failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	// t1's token lifetime has passed; t2 must not be rejected.
	if _, err := reg.Register(ctx, "alice", "t2"); err != nil {
		t.Fatalf("Register(t2) after expiry failed: %v", err)
	}
	ok, err := reg.Contains(ctx, "alice", "t1")
	if err != nil || ok {
		t.Fatalf("expired member still contained: %v, %v", ok, err)
	}
}
