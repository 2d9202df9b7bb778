package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authcore "github.com/SideProjectSFY/cloneNova"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, nickname, password_hash, provider, avatar_url, created_at, deleted_at`

// UserStore implements [authcore.UserStore] on top of PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

var _ authcore.UserStore = (*UserStore)(nil)

// NewUserStore wraps an existing connection pool. The pool's lifecycle
// stays with the caller.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// FindByEmail returns the user with the given email, deleted or not.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (authcore.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	return scanUser(row)
}

// FindByID returns the user with the given id, deleted or not.
func (s *UserStore) FindByID(ctx context.Context, userID int64) (authcore.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)

	return scanUser(row)
}

// Create inserts a new user row and returns it with the generated id.
func (s *UserStore) Create(ctx context.Context, input authcore.CreateUserInput) (authcore.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, nickname, password_hash, provider, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING `+userColumns+`
	`,
		input.Email,
		input.Name,
		input.Nickname,
		input.PasswordHash,
		input.Provider,
		input.AvatarURL,
	)

	var u authcore.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Nickname,
		&u.PasswordHash,
		&u.Provider,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return authcore.User{}, mapped
		}
		return authcore.User{}, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return u, nil
}

// UpdatePasswordHash replaces the stored hash for one user.
func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2
		WHERE id = $1
	`, userID, newHash)
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

// EmailExists reports whether any user row carries the email.
func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return exists, nil
}

// NicknameExists reports whether any user row carries the nickname.
func (s *UserStore) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE nickname = $1)
	`, nickname).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (authcore.User, error) {
	var u authcore.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Nickname,
		&u.PasswordHash,
		&u.Provider,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	if err != nil {
		return authcore.User{}, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return u, nil
}

// mapUniqueViolation turns a 23505 on the email or nickname index into
// the matching engine sentinel so handlers can answer with 409. Any
// other error is returned unchanged.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return authcore.ErrEmailTaken
		case strings.Contains(pgErr.ConstraintName, "nickname"):
			return authcore.ErrNicknameTaken
		}
	}
	return err
}
