package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterCreatesLocalAccount(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}

	engine := newTestEngine(t, rdb, users, hasher, nil)

	summary, err := engine.Register(ctx, RegisterInput{
		Email:    "Bob@Example.com",
		Password: "bobs-password",
		Name:     "Bob",
		Nickname: "bobby",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if summary.Email != "bob@example.com" {
		t.Fatalf("expected normalized email, got %q", summary.Email)
	}
	if summary.Provider != ProviderLocal {
		t.Fatalf("expected local provider, got %q", summary.Provider)
	}

	// The stored hash must verify, and the plaintext must not be stored.
	stored := users.users[summary.UserID]
	if stored.PasswordHash == "bobs-password" {
		t.Fatal("plaintext password must never be stored")
	}
	ok, err := hasher.Verify("bobs-password", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}

	if _, err := engine.Login(ctx, "bob@example.com", "bobs-password"); err != nil {
		t.Fatalf("fresh account must be able to log in, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")

	engine := newTestEngine(t, rdb, users, hasher, nil)

	_, err := engine.Register(ctx, RegisterInput{
		Email:    "alice@example.com",
		Password: "whatever-pass",
		Nickname: "other",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsDuplicateNickname(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")

	engine := newTestEngine(t, rdb, users, hasher, nil)

	_, err := engine.Register(ctx, RegisterInput{
		Email:    "bob@example.com",
		Password: "whatever-pass",
		Nickname: "alice",
	})
	if !errors.Is(err, ErrNicknameTaken) {
		t.Fatalf("expected ErrNicknameTaken, got %v", err)
	}
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, &mockUserStore{}, newTestHasher(t), nil)

	if _, err := engine.Register(ctx, RegisterInput{Email: "", Password: "p", Nickname: "n"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for blank email, got %v", err)
	}
	if _, err := engine.Register(ctx, RegisterInput{Email: "a@b.co", Password: "", Nickname: "n"}); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy for blank password, got %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")

	engine := newTestEngine(t, rdb, users, hasher, nil)

	free, err := engine.CheckEmailAvailable(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("CheckEmailAvailable failed: %v", err)
	}
	if free {
		t.Fatal("taken email reported as available")
	}

	free, err = engine.CheckEmailAvailable(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("CheckEmailAvailable failed: %v", err)
	}
	if !free {
		t.Fatal("free email reported as taken")
	}

	free, err = engine.CheckNicknameAvailable(ctx, "alice")
	if err != nil {
		t.Fatalf("CheckNicknameAvailable failed: %v", err)
	}
	if free {
		t.Fatal("taken nickname reported as available")
	}

	free, err = engine.CheckNicknameAvailable(ctx, "bobby")
	if err != nil {
		t.Fatalf("CheckNicknameAvailable failed: %v", err)
	}
	if !free {
		t.Fatal("free nickname reported as taken")
	}
}
