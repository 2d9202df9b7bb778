package authcore

import (
	"bytes"
	"context"
	"testing"
)

func TestBuildRequiresDependencies(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	secret := bytes.Repeat([]byte("k"), 32)
	hasher := newTestHasher(t)

	if _, err := New().WithSecret(secret).WithUserStore(&mockUserStore{}).WithPasswordHasher(hasher).Build(); err == nil {
		t.Fatal("expected error without redis client")
	}
	if _, err := New().WithSecret(secret).WithRedis(rdb).WithPasswordHasher(hasher).Build(); err == nil {
		t.Fatal("expected error without user store")
	}
	if _, err := New().WithSecret(secret).WithRedis(rdb).WithUserStore(&mockUserStore{}).Build(); err == nil {
		t.Fatal("expected error without password hasher")
	}
	if _, err := New().WithRedis(rdb).WithUserStore(&mockUserStore{}).WithPasswordHasher(hasher).Build(); err == nil {
		t.Fatal("expected error without signing secret")
	}
}

func TestBuildProducesWorkingEngine(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")

	engine, err := New().
		WithSecret(bytes.Repeat([]byte("k"), 32)).
		WithRedis(rdb).
		WithUserStore(users).
		WithPasswordHasher(hasher).
		WithEmailSender(&mockMailer{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := engine.Login(context.Background(), "alice@example.com", "secret-pass-1"); err != nil {
		t.Fatalf("built engine Login failed: %v", err)
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	b := New().
		WithSecret(bytes.Repeat([]byte("k"), 32)).
		WithRedis(rdb).
		WithUserStore(&mockUserStore{}).
		WithPasswordHasher(newTestHasher(t))

	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}
