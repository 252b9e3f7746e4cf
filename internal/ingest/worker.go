package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

// HandlerFunc обрабатывает один извлеченный из очереди инцидент
type HandlerFunc func(ctx context.Context, incident models.Incident) error

// Popper - часть клиента Redis, нужная воркеру
type Popper interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Worker - пул горутин, каждая блокирующе забирает записи из очереди
type Worker struct {
	redisClient Popper
	handler     HandlerFunc
	logger      *logrus.Logger
	workers     int
	pollTimeout time.Duration
	errorDelay  time.Duration

	wg sync.WaitGroup
}

// NewWorker создает пул из workers горутин
func NewWorker(redisClient Popper, handler HandlerFunc, logger *logrus.Logger, workers int, pollTimeout time.Duration) *Worker {
	if workers <= 0 {
		workers = 1
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Worker{
		redisClient: redisClient,
		handler:     handler,
		logger:      logger,
		workers:     workers,
		pollTimeout: pollTimeout,
		errorDelay:  time.Second,
	}
}

// Start запускает горутины пула, они завершаются при отмене ctx
func (w *Worker) Start(ctx context.Context) {
	w.logger.WithField("workers", w.workers).Info("Starting incident ingest workers...")
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func(n int) {
			defer w.wg.Done()
			w.run(ctx, n)
		}(i)
	}
}

// Wait ждет завершения всех горутин пула
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, n int) {
	log := w.logger.WithFields(logrus.Fields{"service": "ingest", "worker": n})
	for {
		if ctx.Err() != nil {
			log.Info("Stopping ingest worker.")
			return
		}

		// result[0] - ключ, result[1] - значение
		result, err := w.redisClient.BRPop(ctx, w.pollTimeout, QueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.WithError(err).Error("Failed to pop incident event from Redis")
			select {
			case <-ctx.Done():
			case <-time.After(w.errorDelay):
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		w.process(ctx, log, result[1])
	}
}

// process разбирает запись и передает ее обработчику ровно один раз
func (w *Worker) process(ctx context.Context, log *logrus.Entry, payload string) {
	incident, err := Decode(payload)
	if err != nil {
		log.WithError(err).Error("Failed to decode incident event, dropping")
		return
	}
	log = log.WithField("incident_id", incident.ID)
	log.Debug("Processing incident event...")
	if err := w.handler(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to handle incident event")
	}
}

// Decode разбирает запись очереди
func Decode(payload string) (models.Incident, error) {
	var incident models.Incident
	if err := json.Unmarshal([]byte(payload), &incident); err != nil {
		return models.Incident{}, fmt.Errorf("failed to unmarshal incident event: %w", err)
	}
	if incident.ID <= 0 {
		return models.Incident{}, fmt.Errorf("incident event has no id")
	}
	return incident, nil
}
