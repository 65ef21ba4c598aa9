package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const loginFailuresKeyPrefix = "auth:failures:" // sorted set of failure timestamps per email

// LoginAttemptStore keeps failed login timestamps per account in a sorted set
type LoginAttemptStore struct {
	redis *redis.Client
}

// NewLoginAttemptStore creates a login attempt store
func NewLoginAttemptStore(redisClient *RedisClient) *LoginAttemptStore {
	return &LoginAttemptStore{redis: redisClient.GetClient()}
}

func loginFailuresKey(email string) string {
	return loginFailuresKeyPrefix + strings.ToLower(email)
}

// RecordFailure records a failed login at the given time. Entries older than
// window are trimmed and the key expires after window.
func (s *LoginAttemptStore) RecordFailure(ctx context.Context, email string, at time.Time, window time.Duration) error {
	key := loginFailuresKey(email)
	score := float64(at.UnixMilli())

	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: score, Member: uuid.NewString()})
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(at.Add(-window).UnixMilli(), 10))
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}

// CountFailures counts failures at or after since
func (s *LoginAttemptStore) CountFailures(ctx context.Context, email string, since time.Time) (int64, error) {
	count, err := s.redis.ZCount(ctx, loginFailuresKey(email), strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count login failures: %w", err)
	}
	return count, nil
}

// Reset clears an account's failures after a successful login
func (s *LoginAttemptStore) Reset(ctx context.Context, email string) error {
	return s.redis.Del(ctx, loginFailuresKey(email)).Err()
}
