package processor

import (
	"context"
	"fmt"
	"time"

	"satisfaction/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "pipeline-service"

// KafkaProducer - обертка над Kafka writer для событий конвейера.
// Отправляет PIPELINE_COMPLETED / PIPELINE_FAILED в топик pipeline_events.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer создает producer событий конвейера.
// brokers - список брокеров в формате ["host:port"].
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// События редкие, батчевание почти не нужно
		BatchSize:    10,
		BatchTimeout: 1 * time.Second,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishMessage отправляет сообщение в Kafka.
// key - идентификатор прогона для партиционирования.
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		metrics.RecordKafkaError(serviceName, p.topic)
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	metrics.RecordKafkaProduced(serviceName, p.topic)
	return nil
}

// Close закрывает Kafka writer и освобождает ресурсы
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
