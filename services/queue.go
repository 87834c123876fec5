package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialposts/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	ACTIVITY_QUEUE      = "post_activity_queue"
	QUEUE_WORKER_COUNT  = 5
	QUEUE_POLL_TIMEOUT  = 5 * time.Second
	QUEUE_ERROR_BACKOFF = time.Second
)

// NewRedisClient подключается к Redis из конфигурации и проверяет соединение
func NewRedisClient(ctx context.Context, conf *config.ConfigSchema) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Redis.Host, conf.Redis.Port),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// ActivityQueue - очередь событий в Redis-списке. Publish кладет событие в хвост,
// воркеры забирают его через BLPOP и передают дальше
type ActivityQueue struct {
	client *redis.Client
	next   ActivityPublisher
	log    *zap.Logger
}

func NewActivityQueue(client *redis.Client, next ActivityPublisher, log *zap.Logger) *ActivityQueue {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivityQueue{client: client, next: next, log: log}
}

// Publish добавляет событие в очередь
func (q *ActivityQueue) Publish(ctx context.Context, event ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}
	if err := q.client.RPush(ctx, ACTIVITY_QUEUE, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue activity event: %w", err)
	}
	return nil
}

// StartWorkers запускает воркеры обработки очереди до отмены ctx
func (q *ActivityQueue) StartWorkers(ctx context.Context, count int) {
	if count <= 0 {
		count = QUEUE_WORKER_COUNT
	}
	for i := 0; i < count; i++ {
		go q.worker(ctx, i)
	}
}

func (q *ActivityQueue) worker(ctx context.Context, workerID int) {
	log := q.log.With(zap.Int("worker", workerID))
	log.Info("activity worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("activity worker stopping")
			return
		default:
		}

		if _, err := q.ProcessNext(ctx, QUEUE_POLL_TIMEOUT); err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Warn("activity worker error", zap.Error(err))
			time.Sleep(QUEUE_ERROR_BACKOFF)
		}
	}
}

// ProcessNext забирает одно событие и передает его дальше.
// Возвращает false, если за timeout очередь осталась пустой
func (q *ActivityQueue) ProcessNext(ctx context.Context, timeout time.Duration) (bool, error) {
	result, err := q.client.BLPop(ctx, timeout, ACTIVITY_QUEUE).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(result) < 2 {
		return false, nil
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		// битое сообщение не возвращаем в очередь
		q.log.Error("failed to unmarshal activity event", zap.Error(err))
		return true, nil
	}

	if err := q.next.Publish(ctx, event); err != nil {
		q.log.Warn("failed to deliver activity event",
			zap.String("event", event.Event),
			zap.Int64("owner_id", event.OwnerID),
			zap.Error(err))
	}
	return true, nil
}

// Length возвращает текущую длину очереди
func (q *ActivityQueue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, ACTIVITY_QUEUE).Result()
}
