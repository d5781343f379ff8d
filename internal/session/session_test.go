package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	if first, err := s.Revoke(ctx, "a", now.Add(time.Minute)); err != nil || !first {
		t.Fatalf("Revoke() = %v, %v, want true", first, err)
	}
	if again, err := s.Revoke(ctx, "a", now.Add(time.Minute)); err != nil || again {
		t.Fatalf("second Revoke() = %v, %v, want false", again, err)
	}
	if stale, err := s.Revoke(ctx, "stale", now.Add(-time.Minute)); err != nil || stale {
		t.Fatalf("Revoke(stale) = %v, %v, want false", stale, err)
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"a", true},
		{"stale", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		got, err := s.IsRevoked(ctx, tt.id)
		if err != nil {
			t.Fatalf("IsRevoked(%s) error: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("IsRevoked(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}

	now = now.Add(2 * time.Minute)
	if got, _ := s.IsRevoked(ctx, "a"); got {
		t.Error("IsRevoked(a) after expiry = true, want false")
	}
	if len(s.revoked) != 0 {
		t.Errorf("revoked entries = %d, want 0 after expiry", len(s.revoked))
	}
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if first, err := s.Revoke(ctx, "a", now.Add(time.Minute)); err != nil || !first {
		t.Fatalf("Revoke() = %v, %v, want true", first, err)
	}
	if again, err := s.Revoke(ctx, "a", now.Add(time.Minute)); err != nil || again {
		t.Fatalf("second Revoke() = %v, %v, want false", again, err)
	}
	if stale, err := s.Revoke(ctx, "stale", now.Add(-time.Minute)); err != nil || stale {
		t.Fatalf("Revoke(stale) = %v, %v, want false", stale, err)
	}

	if ttl := mr.TTL(redisKey("a")); ttl != time.Minute {
		t.Errorf("TTL(a) = %s, want 1m", ttl)
	}
	if mr.Exists(redisKey("stale")) {
		t.Error("expired token was written to redis")
	}

	if got, err := s.IsRevoked(ctx, "a"); err != nil || !got {
		t.Fatalf("IsRevoked(a) = %v, %v, want true", got, err)
	}
	if got, err := s.IsRevoked(ctx, "unknown"); err != nil || got {
		t.Fatalf("IsRevoked(unknown) = %v, %v, want false", got, err)
	}

	mr.FastForward(2 * time.Minute)
	if got, err := s.IsRevoked(ctx, "a"); err != nil || got {
		t.Fatalf("IsRevoked(a) after expiry = %v, %v, want false", got, err)
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	t.Parallel()
	if _, err := NewRedisStore(context.Background(), "http://localhost:6379"); err == nil {
		t.Fatal("NewRedisStore() accepted a non-redis URL")
	}
}
