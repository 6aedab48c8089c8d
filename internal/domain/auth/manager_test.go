package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"audiopaas-server-go/internal/domain/auth/store"
	platformtesting "audiopaas-server-go/internal/platform/testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		Store:    store.NewMemory(store.Config{TTL: time.Hour}),
		Logger:   platformtesting.SetupTestLogger(t),
		TokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestIssueAndValidate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	info, err := m.IssueToken(ctx, "ci-pipeline")
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if !strings.HasPrefix(info.Token, "ap-") {
		t.Errorf("token missing prefix: %s", info.Token)
	}
	if info.ExpiresAt == nil {
		t.Error("issued token must carry expiry")
	}

	got, ok, err := m.Validate(ctx, info.Token)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !ok || got.Name != "ci-pipeline" {
		t.Fatalf("expected valid token, got ok=%v info=%+v", ok, got)
	}
}

func TestValidateRejectsEmptyAndUnknown(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, ok, _ := m.Validate(ctx, ""); ok {
		t.Fatal("empty token must not validate")
	}
	if _, ok, _ := m.Validate(ctx, "ap-unknown"); ok {
		t.Fatal("unknown token must not validate")
	}
}

func TestRevoke(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	info, _ := m.IssueToken(ctx, "temp")
	if err := m.Revoke(ctx, info.Token); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if _, ok, _ := m.Validate(ctx, info.Token); ok {
		t.Fatal("revoked token must not validate")
	}
}

func TestManagerRequiresDependencies(t *testing.T) {
	if _, err := NewManager(Options{Logger: platformtesting.SetupTestLogger(t)}); err == nil {
		t.Fatal("missing store must be rejected")
	}
	if _, err := NewManager(Options{Store: store.NewMemory(store.Config{})}); err == nil {
		t.Fatal("missing logger must be rejected")
	}
}
