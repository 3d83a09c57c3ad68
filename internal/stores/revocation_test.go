package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisRevocations(t *testing.T) (*RedisRevocations, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisRevocations(rdb, "ag"), mr
}

func TestRedisRevocations_RevokeAndLookup(t *testing.T) {
	store, _ := newRedisRevocations(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("unknown token id reported revoked")
	}

	if err := store.Revoke(ctx, "tok-1", time.Hour); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	// Idempotent re-revocation.
	if err := store.Revoke(ctx, "tok-1", time.Hour); err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}

	revoked, err = store.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("revoked token id not reported revoked")
	}
}

func TestRedisRevocations_EntryExpiresWithTokenLifetime(t *testing.T) {
	store, mr := newRedisRevocations(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "tok-ttl", 30*time.Second); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	mr.FastForward(31 * time.Second)

	revoked, err := store.IsRevoked(ctx, "tok-ttl")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("revocation entry outlived the token lifetime")
	}
}

func TestRedisRevocations_UnavailableBackend(t *testing.T) {
	store, mr := newRedisRevocations(t)
	ctx := context.Background()
	mr.Close()

	if err := store.Revoke(ctx, "tok-1", time.Hour); !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("Revoke error = %v, want ErrRevocationUnavailable", err)
	}
	if _, err := store.IsRevoked(ctx, "tok-1"); !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("IsRevoked error = %v, want ErrRevocationUnavailable", err)
	}
}

func TestMemoryRevocations(t *testing.T) {
	store := NewMemoryRevocations(time.Hour)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	if err != nil || revoked {
		t.Fatalf("fresh store: revoked=%v err=%v", revoked, err)
	}

	if err := store.Revoke(ctx, "tok-1", 10*time.Minute); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "tok-1")
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}

	// Empty ids are ignored on both paths.
	if err := store.Revoke(ctx, "", time.Minute); err != nil {
		t.Fatalf("Revoke(empty) failed: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "")
	if err != nil || revoked {
		t.Fatalf("empty id: revoked=%v err=%v", revoked, err)
	}
}
