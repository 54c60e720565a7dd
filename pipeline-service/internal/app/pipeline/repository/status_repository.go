package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// ErrSummaryNotFound - сводка последнего прогона отсутствует в Redis
var ErrSummaryNotFound = errors.New("run summary not found")

// statusRepository хранит сводку последнего прогона в Redis с TTL
type statusRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusRepository создает репозиторий статуса
func NewStatusRepository(client *redis.Client, ttl time.Duration) StatusRepository {
	return &statusRepository{client: client, ttl: ttl}
}

// SetLastRun сохраняет сводку последнего прогона
func (r *statusRepository) SetLastRun(ctx context.Context, summary *entity.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := r.client.Set(ctx, entity.RedisKeyLastRun, data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, "set")
		return fmt.Errorf("failed to set run summary in redis: %w", err)
	}

	return nil
}

// GetLastRun возвращает сводку последнего прогона
func (r *statusRepository) GetLastRun(ctx context.Context) (*entity.RunSummary, error) {
	data, err := r.client.Get(ctx, entity.RedisKeyLastRun).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSummaryNotFound
		}
		metrics.RecordRedisError(serviceName, "get")
		return nil, fmt.Errorf("failed to get run summary from redis: %w", err)
	}

	var summary entity.RunSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}

	return &summary, nil
}
