package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResetRequestIssuesTokenAndSendsMail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")
	mailer := &mockMailer{}

	engine := newTestEngine(t, rdb, users, hasher, mailer)

	result, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	// The requester supplied the address, so it comes back unmasked.
	// Only the verify response masks it.
	if result.Email != "alice@example.com" {
		t.Fatalf("expected plain email, got %q", result.Email)
	}
	if result.ExpiresIn != 1800 {
		t.Fatalf("expected expiresIn 1800, got %d", result.ExpiresIn)
	}

	if len(mailer.to) != 1 || mailer.to[0] != "alice@example.com" {
		t.Fatalf("expected one mail to the account owner, got %v", mailer.to)
	}
	link := mailer.urls[0]
	if !strings.HasPrefix(link, "https://clonenova.example/reset-password?token=") {
		t.Fatalf("unexpected reset link: %q", link)
	}

	token := strings.TrimPrefix(link, "https://clonenova.example/reset-password?token=")
	value, err := rdb.Get(ctx, "passwordReset:"+token).Result()
	if err != nil {
		t.Fatalf("reading reset key failed: %v", err)
	}
	if value != "1" {
		t.Fatalf("expected reset key to map to user id 1, got %q", value)
	}

	ttl := mr.TTL("passwordReset:" + token)
	if ttl <= 0 || ttl > 30*time.Minute {
		t.Fatalf("unexpected reset token TTL: %v", ttl)
	}
}

func TestResetRequestUnknownEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &mockUserStore{}, newTestHasher(t), &mockMailer{})

	_, err := engine.RequestPasswordReset(context.Background(), "ghost@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResetRequestSocialAccountRejected(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")
	u := users.users[1]
	u.Provider = "google"
	users.users[1] = u

	engine := newTestEngine(t, rdb, users, hasher, &mockMailer{})

	_, err := engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrSocialAccount) {
		t.Fatalf("expected ErrSocialAccount, got %v", err)
	}
}

func TestResetRequestRateLimited(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")

	engine := newTestEngine(t, rdb, users, hasher, &mockMailer{})

	for i := 0; i < 3; i++ {
		if _, err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	_, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if !errors.Is(err, ErrResetRateLimited) {
		t.Fatalf("expected ErrResetRateLimited on 4th request, got %v", err)
	}

	// A fresh window restores the budget.
	mr.FastForward(time.Hour + time.Second)
	if _, err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("expected request to succeed in new window, got %v", err)
	}
}

func TestResetRequestMailFailureSurfaces(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "secret-pass-1")
	mailer := &mockMailer{sendErr: errors.New("smtp down")}

	engine := newTestEngine(t, rdb, users, hasher, mailer)

	_, err := engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrMailDeliveryFailed) {
		t.Fatalf("expected ErrMailDeliveryFailed, got %v", err)
	}
}

func issueResetToken(t *testing.T, engine *Engine, mailer *mockMailer, email string) string {
	t.Helper()

	if _, err := engine.RequestPasswordReset(context.Background(), email); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	link := mailer.urls[len(mailer.urls)-1]
	idx := strings.Index(link, "token=")
	if idx < 0 {
		t.Fatalf("no token in link %q", link)
	}
	return link[idx+len("token="):]
}

func TestResetVerifyChangesPasswordAndRevokesSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "old-pass-123")
	mailer := &mockMailer{}

	engine := newTestEngine(t, rdb, users, hasher, mailer)

	if _, err := engine.Login(ctx, "alice@example.com", "old-pass-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token := issueResetToken(t, engine, mailer, "alice@example.com")

	result, err := engine.VerifyPasswordReset(ctx, token, "brand-new-pass")
	if err != nil {
		t.Fatalf("VerifyPasswordReset failed: %v", err)
	}
	if result.Email != "al**@example.com" {
		t.Fatalf("expected masked email, got %q", result.Email)
	}
	if result.ChangedAt.IsZero() {
		t.Fatal("expected changedAt timestamp")
	}

	if mr.Exists("refreshToken:1") {
		t.Fatal("expected refresh token to be revoked after reset")
	}
	if mr.Exists("passwordReset:" + token) {
		t.Fatal("expected reset token to be consumed")
	}

	if _, err := engine.Login(ctx, "alice@example.com", "old-pass-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must no longer work, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("new password must work, got %v", err)
	}
}

func TestResetVerifyTokenIsSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "old-pass-123")
	mailer := &mockMailer{}

	engine := newTestEngine(t, rdb, users, hasher, mailer)
	token := issueResetToken(t, engine, mailer, "alice@example.com")

	if _, err := engine.VerifyPasswordReset(ctx, token, "brand-new-pass"); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}
	if _, err := engine.VerifyPasswordReset(ctx, token, "another-new-pass"); !errors.Is(err, ErrResetExpired) {
		t.Fatalf("expected ErrResetExpired on second redemption, got %v", err)
	}
}

func TestResetVerifyExpiredToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "old-pass-123")
	mailer := &mockMailer{}

	engine := newTestEngine(t, rdb, users, hasher, mailer)
	token := issueResetToken(t, engine, mailer, "alice@example.com")

	mr.FastForward(31 * time.Minute)

	_, err := engine.VerifyPasswordReset(ctx, token, "brand-new-pass")
	if !errors.Is(err, ErrResetExpired) {
		t.Fatalf("expected ErrResetExpired after TTL, got %v", err)
	}
}

func TestResetVerifyRejectsPasswordReuse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	users := &mockUserStore{}
	seedUser(t, users, hasher, 1, "alice@example.com", "alice", "old-pass-123")
	mailer := &mockMailer{}

	engine := newTestEngine(t, rdb, users, hasher, mailer)
	token := issueResetToken(t, engine, mailer, "alice@example.com")

	_, err := engine.VerifyPasswordReset(ctx, token, "old-pass-123")
	if !errors.Is(err, ErrPasswordReuse) {
		t.Fatalf("expected ErrPasswordReuse, got %v", err)
	}
}

func TestResetVerifyRejectsEmptyPassword(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &mockUserStore{}, newTestHasher(t), &mockMailer{})

	_, err := engine.VerifyPasswordReset(context.Background(), "some-token", "")
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "al**@example.com"},
		{"ab@example.com", "a**@example.com"},
		{"a@example.com", "a**@example.com"},
		{"yo@b.co", "y**@b.co"},
		{"longlocalpart@domain.io", "lo**@domain.io"},
		{"noatsign", "no**"},
	}

	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
