package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Метрики конвейера
// =============================================================================

// PipelineRunsTotal - счётчик запусков конвейера по результату
// Labels: service, status (success/failed)
var PipelineRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Total number of pipeline runs",
	},
	[]string{"service", "status"},
)

// PipelineRunDuration - гистограмма длительности полного прогона
var PipelineRunDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "pipeline_run_duration_seconds",
		Help: "Duration of complete pipeline runs in seconds",
		// Батчевый прогон: от секунд до десятков минут
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	},
	[]string{"service"},
)

// PipelineStageDuration - длительность отдельных стадий конвейера
// Labels: service, stage (load/aggregate/join/derive/clean/encode/export)
var PipelineStageDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of individual pipeline stages in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
	},
	[]string{"service", "stage"},
)

// PipelineStageRows - количество строк на выходе каждой стадии
var PipelineStageRows = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pipeline_stage_rows",
		Help: "Number of rows produced by each pipeline stage",
	},
	[]string{"service", "stage"},
)

// ArtifactExportsTotal - счётчик экспортов артефактов
// Labels: service, format (xlsx/postgres), status
var ArtifactExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "artifact_exports_total",
		Help: "Total number of artifact exports",
	},
	[]string{"service", "format", "status"},
)

// =============================================================================
// HTTP метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// =============================================================================
// Database метрики
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	},
	[]string{"service", "operation", "table"},
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka метрики
// =============================================================================

// KafkaMessagesProduced - количество отправленных сообщений
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaProduceErrors - ошибки отправки в Kafka
var KafkaProduceErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_produce_errors_total",
		Help: "Total number of Kafka produce errors",
	},
	[]string{"service", "topic"},
)

// =============================================================================
// Redis метрики
// =============================================================================

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)
