package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const loginAttemptsKeyPrefix = "loginAttempts:"

// attemptThrottle tracks consecutive failed logins per email using a Redis
// counter with fixed-window semantics. A store error is always surfaced to
// the caller; the throttle never fails open.
type attemptThrottle struct {
	redis  *redis.Client
	config ThrottleConfig
}

func newAttemptThrottle(redisClient *redis.Client, cfg ThrottleConfig) *attemptThrottle {
	return &attemptThrottle{
		redis:  redisClient,
		config: cfg,
	}
}

func loginAttemptsKey(email string) string {
	return loginAttemptsKeyPrefix + email
}

// Blocked reports whether the email has exhausted its failure budget for
// the current window. Missing keys count as zero failures.
func (t *attemptThrottle) Blocked(ctx context.Context, email string) (bool, error) {
	count, err := t.redis.Get(ctx, loginAttemptsKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return count >= int64(t.config.MaxLoginAttempts), nil
}

// RecordFailure increments the failure counter. The cooldown TTL is set
// only for the first failure in the window, so later failures cannot push
// the block forward.
func (t *attemptThrottle) RecordFailure(ctx context.Context, email string) error {
	key := loginAttemptsKey(email)

	count, err := t.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count == 1 {
		if err := t.redis.Expire(ctx, key, t.config.LoginCooldownDuration).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return nil
}

// Clear removes the failure counter. Called after a successful login.
func (t *attemptThrottle) Clear(ctx context.Context, email string) error {
	if err := t.redis.Del(ctx, loginAttemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
