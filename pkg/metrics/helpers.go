package metrics

import (
	"time"
)

// Stage - имя стадии конвейера для меток метрик
type Stage string

const (
	StageLoad      Stage = "load"
	StageAggregate Stage = "aggregate"
	StageJoin      Stage = "join"
	StageDerive    Stage = "derive"
	StageClean     Stage = "clean"
	StageEncode    Stage = "encode"
	StageExport    Stage = "export"
)

// ObserveStage записывает длительность стадии и количество строк на её выходе
func ObserveStage(service string, stage Stage, rows int, start time.Time) {
	PipelineStageDuration.WithLabelValues(service, string(stage)).Observe(time.Since(start).Seconds())
	PipelineStageRows.WithLabelValues(service, string(stage)).Set(float64(rows))
}

// RecordRun записывает результат полного прогона конвейера
func RecordRun(service string, success bool, start time.Time) {
	status := "success"
	if !success {
		status = "failed"
	}
	PipelineRunsTotal.WithLabelValues(service, status).Inc()
	PipelineRunDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// RecordArtifactExport записывает результат экспорта артефакта
func RecordArtifactExport(service, format string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	ArtifactExportsTotal.WithLabelValues(service, format, status).Inc()
}

// RecordDbError увеличивает счётчик ошибок БД
func RecordDbError(service, operation string) {
	DbErrors.WithLabelValues(service, operation).Inc()
}

// RecordKafkaProduced записывает успешную отправку сообщения
func RecordKafkaProduced(service, topic string) {
	KafkaMessagesProduced.WithLabelValues(service, topic).Inc()
}

// RecordKafkaError записывает ошибку отправки сообщения
func RecordKafkaError(service, topic string) {
	KafkaProduceErrors.WithLabelValues(service, topic).Inc()
}

// RecordRedisError увеличивает счётчик ошибок Redis
func RecordRedisError(service, operation string) {
	RedisErrors.WithLabelValues(service, operation).Inc()
}
