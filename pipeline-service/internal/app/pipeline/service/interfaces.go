package service

import (
	"context"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
)

// MessagePublisher - отправка событий конвейера во внешнюю шину
type MessagePublisher interface {
	// PublishMessage отправляет сообщение с ключом партиционирования
	PublishMessage(ctx context.Context, key string, value []byte) error
}

// PipelineRunner - запуск полного прогона конвейера.
// Реализуется PipelineService, используется cron-планировщиком.
type PipelineRunner interface {
	Run(ctx context.Context) (*entity.PipelineRun, error)
}

// RunTrigger - внеплановый запуск прогона в фоне.
// Реализуется cron-планировщиком, используется HTTP handler'ом:
// ручной запуск проходит через тот же семафор, что и запуск по расписанию,
// поэтому одновременно выполняется не больше одного прогона.
type RunTrigger interface {
	// TriggerNow возвращает false, если прогон уже идёт
	TriggerNow(ctx context.Context) bool
}
