package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pipeline-service/internal/app/pipeline/repository"
	"satisfaction/pipeline-service/internal/app/pipeline/service"
	"satisfaction/pkg/logger"
)

// StatusHandler отдает статус последнего запуска и запускает пайплайн по требованию
type StatusHandler struct {
	statusRepo repository.StatusRepository
	runRepo    repository.RunRepository
	trigger    service.RunTrigger
}

// NewStatusHandler создает handler статуса пайплайна
func NewStatusHandler(statusRepo repository.StatusRepository, runRepo repository.RunRepository, trigger service.RunTrigger) *StatusHandler {
	return &StatusHandler{
		statusRepo: statusRepo,
		runRepo:    runRepo,
		trigger:    trigger,
	}
}

// LatestRun возвращает сводку последнего запуска: сначала из Redis кеша,
// при промахе - из базы
func (h *StatusHandler) LatestRun(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.Component("status_handler")

	summary, err := h.statusRepo.GetLastRun(ctx)
	if err == nil {
		c.JSON(http.StatusOK, summary)
		return
	}
	if !errors.Is(err, repository.ErrSummaryNotFound) {
		log.Warn().Err(err).Msg("Redis unavailable, falling back to database")
	}

	run, err := h.runRepo.LatestRun(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "pipeline has not been run yet"})
			return
		}
		log.Error().Err(err).Msg("Failed to load latest run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load latest run"})
		return
	}

	c.JSON(http.StatusOK, entity.RunSummary{
		RunID:          run.ID,
		Status:         run.Status,
		OrderItemRows:  run.OrderItemRows,
		CleanedRows:    run.CleanedRows,
		EncodedRows:    run.EncodedRows,
		EncodedColumns: run.EncodedColumns,
		Error:          run.Error,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	})
}

// TriggerRun запускает пайплайн в фоне через общий с планировщиком семафор
// и сразу отвечает 202. Запуск не привязан к контексту запроса: клиент не
// ждет завершения. Если прогон уже выполняется - 409, новый не стартует.
func (h *StatusHandler) TriggerRun(c *gin.Context) {
	log := logger.Component("status_handler")

	if !h.trigger.TriggerNow(context.Background()) {
		c.JSON(http.StatusConflict, gin.H{"error": "pipeline run already in progress"})
		return
	}

	log.Info().Msg("Pipeline run triggered via HTTP")
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
