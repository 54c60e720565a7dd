package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/config"
	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pipeline-service/internal/app/pipeline/repository"
	"satisfaction/pkg/frame"
	"satisfaction/pkg/logger"
	"satisfaction/pkg/metrics"

	"github.com/google/uuid"
)

const serviceName = "pipeline-service"

// PipelineService - оркестратор конвейера. Стадии выполняются строго
// последовательно, каждая материализует выход до начала следующей:
// load -> aggregate -> join -> derive -> clean -> encode -> export.
// Ошибки данных деградируют до null внутри стадий; ошибки схемы,
// дублей ключей и остаточных null фатальны для прогона.
type PipelineService struct {
	cfg      *config.Config
	datasets repository.DatasetRepository
	runs     repository.RunRepository
	status   repository.StatusRepository
	exporter repository.ArtifactExporter
	events   MessagePublisher

	aggregate *AggregationService
	join      *JoinService
	features  *FeatureService
	clean     *CleanService
	encode    *EncodeService
}

// NewPipelineService создает оркестратор с внедрением зависимостей
func NewPipelineService(
	cfg *config.Config,
	datasets repository.DatasetRepository,
	runs repository.RunRepository,
	status repository.StatusRepository,
	exporter repository.ArtifactExporter,
	events MessagePublisher,
) *PipelineService {
	return &PipelineService{
		cfg:       cfg,
		datasets:  datasets,
		runs:      runs,
		status:    status,
		exporter:  exporter,
		events:    events,
		aggregate: NewAggregationService(),
		join:      NewJoinService(),
		features:  NewFeatureService(),
		clean:     NewCleanService(),
		encode:    NewEncodeService(),
	}
}

// Run выполняет полный прогон конвейера и возвращает запись о нём.
// Запись сохраняется в БД в начале и обновляется по завершении;
// сводка уходит в Redis, событие - в Kafka.
func (s *PipelineService) Run(ctx context.Context) (*entity.PipelineRun, error) {
	log := logger.Component("pipeline_service")
	started := time.Now()

	run := &entity.PipelineRun{
		ID:        uuid.New(),
		Status:    entity.RunStatusRunning,
		StartedAt: started,
	}

	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	log.Info().Str("run_id", run.ID.String()).Msg("pipeline run started")

	encoded, cleaned, err := s.execute(ctx, run)
	finished := time.Now()
	run.FinishedAt = &finished

	if err != nil {
		run.Status = entity.RunStatusFailed
		run.Error = err.Error()
		log.Error().Err(err).Str("run_id", run.ID.String()).Msg("pipeline run failed")

		// Неудавшийся прогон не должен оставлять частично сохранённые
		// строки: экспорт в БД мог пройти до падения стадии кодирования
		if s.cfg.Export.PersistRows {
			if delErr := s.runs.DeleteCleanedRows(ctx, run.ID); delErr != nil {
				log.Warn().Err(delErr).Str("run_id", run.ID.String()).Msg("failed to delete rows of failed run")
			}
		}
	} else {
		run.Status = entity.RunStatusCompleted
		run.CleanedRows = cleaned.NumRows()
		run.EncodedRows = encoded.NumRows()
		run.EncodedColumns = encoded.NumCols()
	}

	if updateErr := s.runs.UpdateRun(ctx, run); updateErr != nil {
		log.Error().Err(updateErr).Msg("failed to persist run record")
	}

	s.publishSummary(ctx, run)
	metrics.RecordRun(serviceName, err == nil, started)

	if err != nil {
		return run, err
	}

	log.Info().
		Str("run_id", run.ID.String()).
		Int("cleaned_rows", run.CleanedRows).
		Int("encoded_rows", run.EncodedRows).
		Int("encoded_columns", run.EncodedColumns).
		Dur("duration", finished.Sub(started)).
		Msg("pipeline run completed")

	return run, nil
}

// execute выполняет стадии конвейера. Возвращает закодированную и
// очищенную таблицы; run обновляется счётчиками по ходу.
func (s *PipelineService) execute(ctx context.Context, run *entity.PipelineRun) (*frame.Frame, *frame.Frame, error) {
	// Стадия 1: загрузка сырых таблиц
	stageStart := time.Now()
	ds, err := s.datasets.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load stage: %w", err)
	}
	run.OrderItemRows = len(ds.OrderItems)
	metrics.ObserveStage(serviceName, metrics.StageLoad, len(ds.OrderItems), stageStart)

	// Стадия 2: агрегация платежей и дедупликация отзывов
	stageStart = time.Now()
	paymentSummaries := s.aggregate.AggregatePayments(ds.Payments)
	latestReviews := s.aggregate.LatestReviews(ds.Reviews)
	metrics.ObserveStage(serviceName, metrics.StageAggregate, len(paymentSummaries)+len(latestReviews), stageStart)

	// Стадия 3: консолидация left-join'ами
	stageStart = time.Now()
	consolidated, err := s.join.Consolidate(ds, paymentSummaries, latestReviews)
	if err != nil {
		return nil, nil, fmt.Errorf("join stage: %w", err)
	}
	run.ConsolidatedRows = len(consolidated)
	metrics.ObserveStage(serviceName, metrics.StageJoin, len(consolidated), stageStart)

	// Стадия 4: производные признаки
	stageStart = time.Now()
	derived := s.features.Derive(consolidated)
	metrics.ObserveStage(serviceName, metrics.StageDerive, len(derived), stageStart)

	// Стадия 5: материализация и очистка
	stageStart = time.Now()
	full, err := s.clean.BuildFrame(derived)
	if err != nil {
		return nil, nil, fmt.Errorf("clean stage: %w", err)
	}
	cleaned, err := s.clean.Clean(full)
	if err != nil {
		return nil, nil, fmt.Errorf("clean stage: %w", err)
	}
	metrics.ObserveStage(serviceName, metrics.StageClean, cleaned.NumRows(), stageStart)

	// Экспорт очищенной таблицы для внешней инспекции
	stageStart = time.Now()
	if err := s.exportCleaned(ctx, run.ID, cleaned); err != nil {
		return nil, nil, fmt.Errorf("export stage: %w", err)
	}
	metrics.ObserveStage(serviceName, metrics.StageExport, cleaned.NumRows(), stageStart)

	// Стадия 6: кодирование в полностью числовую таблицу
	stageStart = time.Now()
	encoded, err := s.encode.Encode(cleaned)
	if err != nil {
		return nil, nil, fmt.Errorf("encode stage: %w", err)
	}
	metrics.ObserveStage(serviceName, metrics.StageEncode, encoded.NumRows(), stageStart)

	return encoded, cleaned, nil
}

// exportCleaned записывает очищенную таблицу в XLSX и PostgreSQL
func (s *PipelineService) exportCleaned(ctx context.Context, runID uuid.UUID, cleaned *frame.Frame) error {
	err := s.exporter.ExportCleaned(cleaned, s.cfg.Export.XLSXPath)
	metrics.RecordArtifactExport(serviceName, "xlsx", err)
	if err != nil {
		return err
	}

	if !s.cfg.Export.PersistRows {
		return nil
	}

	rows, err := cleanedRowsFromFrame(runID, cleaned)
	if err != nil {
		return err
	}

	err = s.runs.SaveCleanedRows(ctx, rows)
	metrics.RecordArtifactExport(serviceName, "postgres", err)
	return err
}

// publishSummary сохраняет сводку в Redis и отправляет событие в Kafka.
// Ошибки здесь не фатальны: артефакты прогона уже сохранены.
func (s *PipelineService) publishSummary(ctx context.Context, run *entity.PipelineRun) {
	log := logger.Component("pipeline_service")

	summary := &entity.RunSummary{
		RunID:          run.ID,
		Status:         run.Status,
		OrderItemRows:  run.OrderItemRows,
		CleanedRows:    run.CleanedRows,
		EncodedRows:    run.EncodedRows,
		EncodedColumns: run.EncodedColumns,
		Error:          run.Error,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	}
	if err := s.status.SetLastRun(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("failed to cache run summary")
	}

	eventType := entity.EventTypePipelineCompleted
	if run.Status == entity.RunStatusFailed {
		eventType = entity.EventTypePipelineFailed
	}

	event := entity.PipelineEvent{
		EventType:   eventType,
		RunID:       run.ID,
		Status:      run.Status,
		CleanedRows: run.CleanedRows,
		EncodedRows: run.EncodedRows,
		Error:       run.Error,
		Timestamp:   time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal pipeline event")
		return
	}

	if err := s.events.PublishMessage(ctx, run.ID.String(), payload); err != nil {
		// Событие не критично: прогон уже зафиксирован в БД
		log.Warn().Err(err).Msg("failed to publish pipeline event")
	}
}

// cleanedRowsFromFrame переводит очищенную таблицу в персистентные строки
func cleanedRowsFromFrame(runID uuid.UUID, f *frame.Frame) ([]entity.CleanedOrderItem, error) {
	floatAt := func(name string, i int) (float64, error) {
		col, ok := f.Col(name)
		if !ok {
			return 0, fmt.Errorf("cleaned frame: column %q not found", name)
		}
		return col.Floats[i], nil
	}
	stringAt := func(name string, i int) (string, error) {
		col, ok := f.Col(name)
		if !ok {
			return "", fmt.Errorf("cleaned frame: column %q not found", name)
		}
		return col.Strings[i], nil
	}

	rows := make([]entity.CleanedOrderItem, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		row := entity.CleanedOrderItem{RunID: runID}

		var err error
		if row.OrderIDProductID, err = stringAt("order_id_product_id", i); err != nil {
			return nil, err
		}
		if row.SellerState, err = stringAt("seller_state", i); err != nil {
			return nil, err
		}
		if row.CustomerState, err = stringAt("customer_state", i); err != nil {
			return nil, err
		}
		if row.Category, err = stringAt("Category", i); err != nil {
			return nil, err
		}

		floats := []struct {
			name string
			dst  *float64
		}{
			{"price", &row.Price},
			{"freight_value", &row.FreightValue},
			{"product_payment_value", &row.ProductPaymentValue},
			{"freight_to_price_ratio", &row.FreightToPriceRatio},
			{"product_name_lenght", &row.ProductNameLength},
			{"product_description_lenght", &row.ProductDescriptionLength},
			{"product_photos_qty", &row.ProductPhotosQty},
			{"diff_approved_purchased", &row.DiffApprovedPurchased},
			{"diff_customerdelivered_estimated", &row.DiffCustomerDeliveredEstimated},
			{"diff_customerdelivered_deliveredcarrier", &row.DiffCustomerDeliveredDeliveredCarrier},
			{"diff_customerdelivered_purchase", &row.DiffCustomerDeliveredPurchase},
			{"diff_deliveredcarrier_purchase", &row.DiffDeliveredCarrierPurchase},
			{"diff_approved_purchased_wd", &row.DiffApprovedPurchasedWD},
			{"diff_customerdelivered_deliveredcarrier_wd", &row.DiffCustomerDeliveredDeliveredCarrierWD},
			{"diff_customerdelivered_purchase_wd", &row.DiffCustomerDeliveredPurchaseWD},
			{"diff_deliveredcarrier_purchase_wd", &row.DiffDeliveredCarrierPurchaseWD},
			{"payment_type_count", &row.PaymentTypeCount},
			{"review_score", &row.ReviewScore},
			{"diff_review_creation_answer_days", &row.DiffReviewCreationAnswerDays},
			{"total_purchase_count", &row.TotalPurchaseCount},
		}
		for _, fc := range floats {
			if *fc.dst, err = floatAt(fc.name, i); err != nil {
				return nil, err
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}
