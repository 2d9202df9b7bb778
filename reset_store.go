package authcore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	passwordResetKeyPrefix     = "passwordReset:"
	passwordResetRateKeyPrefix = "passwordResetRateLimit:"
)

// resetStore manages single-use password reset tokens and the per-email
// request budget. Tokens are opaque random identifiers; the Redis value is
// the owning user id.
type resetStore struct {
	redis  *redis.Client
	config PasswordResetConfig
}

func newResetStore(redisClient *redis.Client, cfg PasswordResetConfig) *resetStore {
	return &resetStore{
		redis:  redisClient,
		config: cfg,
	}
}

func passwordResetKey(token string) string {
	return passwordResetKeyPrefix + token
}

func passwordResetRateKey(email string) string {
	return passwordResetRateKeyPrefix + email
}

// Issue creates a fresh reset token for the user and stores it with the
// configured TTL.
func (s *resetStore) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()

	value := strconv.FormatInt(userID, 10)
	if err := s.redis.Set(ctx, passwordResetKey(token), value, s.config.TokenTTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return token, nil
}

// Consume atomically reads and deletes the token mapping, so a reset token
// can be redeemed exactly once. Unknown or expired tokens return
// [ErrResetExpired].
func (s *resetStore) Consume(ctx context.Context, token string) (int64, error) {
	value, err := s.redis.GetDel(ctx, passwordResetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrResetExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, ErrResetExpired
	}

	return userID, nil
}

// RecordRequest counts a reset request against the email's fixed window
// and returns [ErrResetRateLimited] once the budget is exhausted. The
// window TTL starts at the first request and later requests do not extend
// it.
func (s *resetStore) RecordRequest(ctx context.Context, email string) error {
	key := passwordResetRateKey(email)

	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count == 1 {
		if err := s.redis.Expire(ctx, key, s.config.RequestWindow).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	if count > int64(s.config.MaxRequests) {
		return ErrResetRateLimited
	}

	return nil
}
