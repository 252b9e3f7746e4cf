// Package ingest - очередь входящих инцидентов в Redis и пул воркеров, который ее разбирает.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_dispatch/internal/models"
)

// QueueKey - список Redis, в который пайплайн детекции публикует инциденты
const QueueKey = "incident_events"

// Publisher - интерфейс для публикации инцидентов в очередь
type Publisher interface {
	Publish(ctx context.Context, incident models.Incident) error
}

// RedisPublisher - реализация Publisher поверх списка Redis
type RedisPublisher struct {
	redisClient redis.Cmdable
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client redis.Cmdable) *RedisPublisher {
	return &RedisPublisher{redisClient: client}
}

// Publish кладет инцидент в левую часть списка, воркеры забирают справа
func (p *RedisPublisher) Publish(ctx context.Context, incident models.Incident) error {
	payload, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident event: %w", err)
	}
	if err := p.redisClient.LPush(ctx, QueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish incident event to Redis: %w", err)
	}
	return nil
}
