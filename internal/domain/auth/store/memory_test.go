package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{TTL: time.Hour})
	t.Cleanup(func() { _ = s.Close(ctx) })

	info := TokenInfo{Token: "ap-abc123", Name: "ci-pipeline"}
	if err := s.Save(ctx, info); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, ok, err := s.Validate(ctx, "ap-abc123")
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !ok || got.Name != "ci-pipeline" {
		t.Fatalf("expected valid token, got ok=%v info=%+v", ok, got)
	}
	if got.ExpiresAt == nil {
		t.Fatal("ttl must be applied when expiry is unset")
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("unexpected list length: %d", len(list))
	}

	if err := s.Remove(ctx, "ap-abc123"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, ok, _ := s.Validate(ctx, "ap-abc123"); ok {
		t.Fatal("removed token must not validate")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{TTL: time.Hour})
	t.Cleanup(func() { _ = s.Close(ctx) })

	past := time.Now().Add(-time.Minute)
	if err := s.Save(ctx, TokenInfo{Token: "ap-expired", Name: "old", ExpiresAt: &past}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if _, ok, err := s.Validate(ctx, "ap-expired"); err != nil || ok {
		t.Fatalf("expired token must not validate: ok=%v err=%v", ok, err)
	}

	if err := s.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	list, _ := s.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expired token must be purged, list=%v", list)
	}
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, ok, err := s.Validate(ctx, "ap-missing")
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if ok {
		t.Fatal("unknown token must not validate")
	}
}

func TestMemoryStoreRequiresToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if err := s.Save(ctx, TokenInfo{Name: "no-token"}); err == nil {
		t.Fatal("empty token must be rejected")
	}
}
