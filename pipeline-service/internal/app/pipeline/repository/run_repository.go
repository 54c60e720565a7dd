package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrRunNotFound - прогонов ещё не было
var ErrRunNotFound = errors.New("pipeline run not found")

const serviceName = "pipeline-service"

// Размер батча при сохранении очищенных строк
const cleanedRowsBatchSize = 1000

// runRepository реализует RunRepository поверх PostgreSQL через GORM
type runRepository struct {
	db *gorm.DB
}

// NewRunRepository создает репозиторий прогонов
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

// CreateRun сохраняет новую запись о прогоне
func (r *runRepository) CreateRun(ctx context.Context, run *entity.PipelineRun) error {
	start := time.Now()
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		metrics.RecordDbError(serviceName, "create_run")
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	metrics.DbQueryDuration.WithLabelValues(serviceName, "insert", "pipeline_runs").Observe(time.Since(start).Seconds())
	return nil
}

// UpdateRun обновляет запись о прогоне
func (r *runRepository) UpdateRun(ctx context.Context, run *entity.PipelineRun) error {
	start := time.Now()
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		metrics.RecordDbError(serviceName, "update_run")
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	metrics.DbQueryDuration.WithLabelValues(serviceName, "update", "pipeline_runs").Observe(time.Since(start).Seconds())
	return nil
}

// SaveCleanedRows сохраняет очищенные строки батчами
func (r *runRepository) SaveCleanedRows(ctx context.Context, rows []entity.CleanedOrderItem) error {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	if err := r.db.WithContext(ctx).CreateInBatches(rows, cleanedRowsBatchSize).Error; err != nil {
		metrics.RecordDbError(serviceName, "save_cleaned_rows")
		return fmt.Errorf("failed to save cleaned rows: %w", err)
	}
	metrics.DbQueryDuration.WithLabelValues(serviceName, "insert", "cleaned_order_items").Observe(time.Since(start).Seconds())
	return nil
}

// DeleteCleanedRows удаляет строки указанного прогона
func (r *runRepository) DeleteCleanedRows(ctx context.Context, runID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&entity.CleanedOrderItem{}).Error; err != nil {
		metrics.RecordDbError(serviceName, "delete_cleaned_rows")
		return fmt.Errorf("failed to delete cleaned rows: %w", err)
	}
	return nil
}

// LatestRun возвращает последний по времени старта прогон
func (r *runRepository) LatestRun(ctx context.Context) (*entity.PipelineRun, error) {
	var run entity.PipelineRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		metrics.RecordDbError(serviceName, "latest_run")
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}
