package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/config"
	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pipeline-service/internal/app/pipeline/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fullDataset строит датасет, полностью проходящий очистку:
// два доставленных заказа одного клиента со всеми временными метками,
// платежами, отзывами и укрупнённой категорией
func fullDataset() *entity.Dataset {
	purchase := time.Date(2018, 3, 1, 10, 0, 0, 0, time.UTC)
	approved := purchase.Add(2 * time.Hour)
	carrier := purchase.AddDate(0, 0, 2)
	delivered := purchase.AddDate(0, 0, 7)
	estimated := purchase.AddDate(0, 0, 14)
	reviewCreated := delivered.AddDate(0, 0, 1)
	reviewAnswered := reviewCreated.AddDate(0, 0, 2)

	newOrder := func(orderID, customerID string) entity.Order {
		return entity.Order{
			OrderID:               orderID,
			CustomerID:            customerID,
			Status:                entity.OrderStatusDelivered,
			PurchaseTimestamp:     tptr(purchase),
			ApprovedAt:            tptr(approved),
			DeliveredCarrierDate:  tptr(carrier),
			DeliveredCustomerDate: tptr(delivered),
			EstimatedDeliveryDate: tptr(estimated),
		}
	}

	return &entity.Dataset{
		OrderItems: []entity.OrderItem{
			{OrderID: "o1", OrderItemID: fptr(1), ProductID: "p1", SellerID: "s1", Price: fptr(120), FreightValue: fptr(12)},
			{OrderID: "o2", OrderItemID: fptr(1), ProductID: "p1", SellerID: "s1", Price: fptr(80), FreightValue: fptr(8)},
		},
		Products: []entity.Product{
			{
				ProductID:         "p1",
				CategoryName:      sptr("informatica_acessorios"),
				NameLength:        fptr(42),
				DescriptionLength: fptr(300),
				PhotosQty:         fptr(3),
			},
		},
		Sellers: []entity.Seller{
			{SellerID: "s1", ZipCodePrefix: "01000", City: "sao paulo", State: "SP"},
		},
		Orders: []entity.Order{
			newOrder("o1", "c1"),
			newOrder("o2", "c2"),
		},
		Customers: []entity.Customer{
			{CustomerID: "c1", CustomerUniqueID: "u1", ZipCodePrefix: "02000", City: "sao paulo", State: "SP"},
			{CustomerID: "c2", CustomerUniqueID: "u1", ZipCodePrefix: "02000", City: "sao paulo", State: "SP"},
		},
		Payments: []entity.Payment{
			{OrderID: "o1", Sequential: fptr(1), Type: "credit_card", Installments: fptr(3), Value: fptr(132)},
			{OrderID: "o2", Sequential: fptr(1), Type: "boleto", Installments: fptr(1), Value: fptr(88)},
		},
		Reviews: []entity.Review{
			{ReviewID: "r1", OrderID: "o1", Score: fptr(5), CreationDate: tptr(reviewCreated), AnswerTimestamp: tptr(reviewAnswered)},
			{ReviewID: "r2", OrderID: "o2", Score: fptr(2), CreationDate: tptr(reviewCreated), AnswerTimestamp: tptr(reviewAnswered)},
		},
		Categories: []entity.CategoryRefinement{
			{CategoryName: "informatica_acessorios", English: sptr("computers_accessories"), Category: sptr("Electronics")},
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Export: config.ExportConfig{
			XLSXPath:    t.TempDir() + "/Final_database.xlsx",
			PersistRows: true,
		},
	}
}

// ===================== Run Tests =====================

func TestPipelineService_Run_Success(t *testing.T) {
	// Arrange
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(fullDataset(), nil)
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("SaveCleanedRows", mock.Anything, mock.Anything).Return(nil)
	status.On("SetLastRun", mock.Anything, mock.Anything).Return(nil)
	exporter.On("ExportCleaned", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	run, err := svc.Run(context.Background())

	// Assert
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.OrderItemRows)
	assert.Equal(t, 2, run.ConsolidatedRows)
	assert.Equal(t, 2, run.CleanedRows)
	assert.Equal(t, 2, run.EncodedRows)
	assert.NotNil(t, run.FinishedAt)
	assert.Empty(t, run.Error)

	datasets.AssertExpectations(t)
	runs.AssertExpectations(t)
	status.AssertExpectations(t)
	exporter.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestPipelineService_Run_PersistsCleanedRows(t *testing.T) {
	// Arrange
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(fullDataset(), nil)
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)

	var saved []entity.CleanedOrderItem
	runs.On("SaveCleanedRows", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]entity.CleanedOrderItem)
	}).Return(nil)

	status.On("SetLastRun", mock.Anything, mock.Anything).Return(nil)
	exporter.On("ExportCleaned", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	_, err := svc.Run(context.Background())

	// Assert - обе строки ушли в БД, у клиента две покупки
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "o1-p1", saved[0].OrderIDProductID)
	assert.Equal(t, float64(2), saved[0].TotalPurchaseCount)
	assert.Equal(t, "Electronics", saved[0].Category)
	assert.Equal(t, "SP", saved[0].SellerState)
}

func TestPipelineService_Run_SkipsPersistWhenDisabled(t *testing.T) {
	// Arrange
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(fullDataset(), nil)
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	status.On("SetLastRun", mock.Anything, mock.Anything).Return(nil)
	exporter.On("ExportCleaned", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cfg := testConfig(t)
	cfg.Export.PersistRows = false
	svc := NewPipelineService(cfg, datasets, runs, status, exporter, events)

	// Act
	_, err := svc.Run(context.Background())

	// Assert
	require.NoError(t, err)
	runs.AssertNotCalled(t, "SaveCleanedRows", mock.Anything, mock.Anything)
}

func TestPipelineService_Run_LoadFailure(t *testing.T) {
	// Arrange
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(nil, errors.New("missing file"))
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("DeleteCleanedRows", mock.Anything, mock.Anything).Return(nil)
	status.On("SetLastRun", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	run, err := svc.Run(context.Background())

	// Assert - прогон фиксируется как failed, событие всё равно уходит
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, entity.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "missing file")
	runs.AssertCalled(t, "UpdateRun", mock.Anything, mock.Anything)
	events.AssertCalled(t, "PublishMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineService_Run_CreateRunFailure(t *testing.T) {
	// Arrange - без записи о прогоне конвейер не стартует
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	runs.On("CreateRun", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	run, err := svc.Run(context.Background())

	// Assert
	require.Error(t, err)
	assert.Nil(t, run)
	datasets.AssertNotCalled(t, "Load", mock.Anything)
}

func TestPipelineService_Run_ExportFailureFailsRun(t *testing.T) {
	// Arrange
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(fullDataset(), nil)
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	status.On("SetLastRun", mock.Anything, mock.Anything).Return(nil)
	exporter.On("ExportCleaned", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	runs.On("DeleteCleanedRows", mock.Anything, mock.Anything).Return(nil)

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	run, err := svc.Run(context.Background())

	// Assert - частично сохранённые строки неудавшегося прогона удаляются
	require.Error(t, err)
	assert.Equal(t, entity.RunStatusFailed, run.Status)
	runs.AssertCalled(t, "DeleteCleanedRows", mock.Anything, run.ID)
}

func TestPipelineService_Run_KafkaFailureIsNotFatal(t *testing.T) {
	// Arrange - брокер недоступен, но артефакты уже сохранены
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(fullDataset(), nil)
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("SaveCleanedRows", mock.Anything, mock.Anything).Return(nil)
	status.On("SetLastRun", mock.Anything, mock.Anything).Return(nil)
	exporter.On("ExportCleaned", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	run, err := svc.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
}

func TestPipelineService_Run_RedisFailureIsNotFatal(t *testing.T) {
	// Arrange
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(fullDataset(), nil)
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("SaveCleanedRows", mock.Anything, mock.Anything).Return(nil)
	status.On("SetLastRun", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	exporter.On("ExportCleaned", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	run, err := svc.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
}

func TestPipelineService_Run_PublishesCompletedEvent(t *testing.T) {
	// Arrange
	datasets := new(mocks.MockDatasetRepository)
	runs := new(mocks.MockRunRepository)
	status := new(mocks.MockStatusRepository)
	exporter := new(mocks.MockArtifactExporter)
	events := new(mocks.MockMessagePublisher)

	datasets.On("Load", mock.Anything).Return(fullDataset(), nil)
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	runs.On("SaveCleanedRows", mock.Anything, mock.Anything).Return(nil)
	status.On("SetLastRun", mock.Anything, mock.Anything).Return(nil)
	exporter.On("ExportCleaned", mock.Anything, mock.Anything).Return(nil)

	var payload []byte
	events.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(2).([]byte)
	}).Return(nil)

	svc := NewPipelineService(testConfig(t), datasets, runs, status, exporter, events)

	// Act
	_, err := svc.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, string(payload), entity.EventTypePipelineCompleted)
}
