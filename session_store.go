package authcore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshTokenKeyPrefix = "refreshToken:"

// sessionStore persists the single active refresh token per user. A new
// login overwrites the previous token, so older sessions lose refresh
// capability the moment a newer one is created.
type sessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func newSessionStore(redisClient *redis.Client, ttl time.Duration) *sessionStore {
	return &sessionStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

func refreshTokenKey(userID int64) string {
	return refreshTokenKeyPrefix + strconv.FormatInt(userID, 10)
}

// Put stores the refresh token under the user's key, replacing whatever
// token was there before.
func (s *sessionStore) Put(ctx context.Context, userID int64, token string) error {
	if err := s.redis.Set(ctx, refreshTokenKey(userID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the stored refresh token and whether one exists.
func (s *sessionStore) Get(ctx context.Context, userID int64) (string, bool, error) {
	token, err := s.redis.Get(ctx, refreshTokenKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, true, nil
}

// Delete removes the user's refresh token. Deleting an absent key is not
// an error.
func (s *sessionStore) Delete(ctx context.Context, userID int64) error {
	if err := s.redis.Del(ctx, refreshTokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
