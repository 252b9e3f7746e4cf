package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClaimStore - ключ идемпотентности доставки, общий для всех реплик
type RedisClaimStore struct {
	redisClient redis.Cmdable
	ttl         time.Duration
}

func NewRedisClaimStore(redisClient redis.Cmdable, ttl time.Duration) *RedisClaimStore {
	return &RedisClaimStore{redisClient: redisClient, ttl: ttl}
}

func claimKey(incidentID int64) string {
	return fmt.Sprintf("dispatch:incident:%d", incidentID)
}

// Claim атомарно захватывает инцидент (SET NX)
func (s *RedisClaimStore) Claim(ctx context.Context, incidentID int64) (bool, error) {
	ok, err := s.redisClient.SetNX(ctx, claimKey(incidentID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim incident dispatch: %w", err)
	}
	return ok, nil
}

// Release снимает захват, чтобы доставку можно было повторить
func (s *RedisClaimStore) Release(ctx context.Context, incidentID int64) error {
	if err := s.redisClient.Del(ctx, claimKey(incidentID)).Err(); err != nil {
		return fmt.Errorf("failed to release incident dispatch claim: %w", err)
	}
	return nil
}
