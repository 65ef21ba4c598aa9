package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const alertKeyPrefix = "alert:"

// AlertStore deduplicates alerts across instances with SET NX and a TTL
type AlertStore struct {
	redis *redis.Client
}

// NewAlertStore creates an alert store
func NewAlertStore(redisClient *RedisClient) *AlertStore {
	return &AlertStore{redis: redisClient.GetClient()}
}

// Claim reports whether no alert with key was claimed within cooldown
func (s *AlertStore) Claim(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, alertKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim alert %s: %w", key, err)
	}
	return ok, nil
}
