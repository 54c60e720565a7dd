package repository

import (
	"context"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pkg/frame"

	"github.com/google/uuid"
)

// DatasetRepository - загрузка сырых таблиц датасета
type DatasetRepository interface {
	// Load читает все девять таблиц плюс справочник категорий.
	// Отсутствие файла или обязательной колонки - фатальная ошибка.
	Load(ctx context.Context) (*entity.Dataset, error)
}

// RunRepository - персистентность прогонов в PostgreSQL
type RunRepository interface {
	// CreateRun сохраняет новую запись о прогоне
	CreateRun(ctx context.Context, run *entity.PipelineRun) error

	// UpdateRun обновляет запись о прогоне (статус, счётчики, ошибку)
	UpdateRun(ctx context.Context, run *entity.PipelineRun) error

	// SaveCleanedRows сохраняет очищенные строки батчами
	SaveCleanedRows(ctx context.Context, rows []entity.CleanedOrderItem) error

	// DeleteCleanedRows удаляет строки прогона (при повторном прогоне)
	DeleteCleanedRows(ctx context.Context, runID uuid.UUID) error

	// LatestRun возвращает последний по времени старта прогон
	LatestRun(ctx context.Context) (*entity.PipelineRun, error)
}

// StatusRepository - кеш сводки последнего прогона в Redis
type StatusRepository interface {
	// SetLastRun сохраняет сводку с TTL
	SetLastRun(ctx context.Context, summary *entity.RunSummary) error

	// GetLastRun возвращает сводку последнего прогона
	GetLastRun(ctx context.Context) (*entity.RunSummary, error)
}

// ArtifactExporter - экспорт очищенной таблицы во внешний артефакт
type ArtifactExporter interface {
	// ExportCleaned записывает таблицу в XLSX файл по указанному пути
	ExportCleaned(f *frame.Frame, path string) error
}
