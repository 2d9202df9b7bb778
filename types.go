package authcore

import (
	"context"
	"time"
)

const (
	// ProviderLocal is an exported constant or variable used by the authentication engine.
	ProviderLocal = "local"
)

// User is the account record returned by [UserStore]. It carries the
// credential hash, profile fields, and the soft-delete marker.
type User struct {
	ID           int64
	Email        string
	Name         string
	Nickname     string
	PasswordHash string
	Provider     string
	AvatarURL    string
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// Active reports whether the account may authenticate. Soft-deleted
// accounts keep their row but are treated as disabled.
func (u User) Active() bool {
	return u.DeletedAt == nil
}

// Local reports whether the account authenticates with a password managed
// by this engine, as opposed to a federated social provider.
func (u User) Local() bool {
	return u.Provider == "" || u.Provider == ProviderLocal
}

// UserStore is the primary interface that callers must implement to
// integrate authcore with their user database. Lookup methods return
// [ErrUserNotFound] (possibly wrapped) when no matching row exists.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, userID int64) (User, error)
	Create(ctx context.Context, input CreateUserInput) (User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
}

// CreateUserInput is the input for [UserStore.Create].
type CreateUserInput struct {
	Email        string
	Name         string
	Nickname     string
	PasswordHash string
	Provider     string
	AvatarURL    string
}

// PasswordHasher hashes and verifies login passwords. Implementations live
// in the password sub-package.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// EmailSender delivers the password reset link to the account owner.
// Implementations live in the mail sub-package.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// UserSummary is the profile subset included in [LoginResult]. It never
// carries the credential hash.
type UserSummary struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Nickname  string `json:"nickname"`
	Provider  string `json:"provider"`
	AvatarURL string `json:"avatar,omitempty"`
}

// LoginResult is returned by [Engine.Login]. ExpiresIn and
// RefreshExpiresIn are whole seconds.
type LoginResult struct {
	AccessToken      string      `json:"accessToken"`
	RefreshToken     string      `json:"refreshToken"`
	TokenType        string      `json:"tokenType"`
	ExpiresIn        int64       `json:"expiresIn"`
	RefreshExpiresIn int64       `json:"refreshExpiresIn"`
	User             UserSummary `json:"user"`
}

// RefreshResult is returned by [Engine.Refresh]. The refresh token is the
// one the caller presented; it is not rotated.
type RefreshResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// ResetRequest is returned by [Engine.RequestPasswordReset]. The caller
// already knows the address they asked about, so Email is unmasked here.
type ResetRequest struct {
	Email     string    `json:"email"`
	ExpiresIn int64     `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResetConfirmation is returned by [Engine.VerifyPasswordReset]. Email is
// masked before it leaves the engine.
type ResetConfirmation struct {
	Email     string    `json:"email"`
	ChangedAt time.Time `json:"changedAt"`
}

// RegisterInput is the input for [Engine.Register].
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Nickname string
}

// Principal identifies the caller of an authenticated request, decoded
// from a verified access token.
type Principal struct {
	UserID   int64
	Email    string
	Nickname string
}
