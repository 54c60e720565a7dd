package mocks

import (
	"context"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pkg/frame"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDatasetRepository мок для DatasetRepository
type MockDatasetRepository struct {
	mock.Mock
}

func (m *MockDatasetRepository) Load(ctx context.Context) (*entity.Dataset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Dataset), args.Error(1)
}

// MockRunRepository мок для RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) CreateRun(ctx context.Context, run *entity.PipelineRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateRun(ctx context.Context, run *entity.PipelineRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) SaveCleanedRows(ctx context.Context, rows []entity.CleanedOrderItem) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockRunRepository) DeleteCleanedRows(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockRunRepository) LatestRun(ctx context.Context) (*entity.PipelineRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PipelineRun), args.Error(1)
}

// MockStatusRepository мок для StatusRepository
type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) SetLastRun(ctx context.Context, summary *entity.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockStatusRepository) GetLastRun(ctx context.Context) (*entity.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RunSummary), args.Error(1)
}

// MockArtifactExporter мок для ArtifactExporter
type MockArtifactExporter struct {
	mock.Mock
}

func (m *MockArtifactExporter) ExportCleaned(f *frame.Frame, path string) error {
	args := m.Called(f, path)
	return args.Error(0)
}

// MockMessagePublisher мок для MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockPipelineRunner мок для PipelineRunner
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Run(ctx context.Context) (*entity.PipelineRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PipelineRun), args.Error(1)
}

// MockRunTrigger мок для RunTrigger
type MockRunTrigger struct {
	mock.Mock
}

func (m *MockRunTrigger) TriggerNow(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}
