package repository

import (
	"context"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/pkg/kafka"
)

// KafkaEventPublisher emits run reports to a Kafka topic so downstream
// consumers can react to finished sweeps.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a publisher on an existing producer.
func NewKafkaEventPublisher(producer *kafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishRunReport publishes one run report keyed by its start time.
func (p *KafkaEventPublisher) PublishRunReport(ctx context.Context, report *models.RunReport) error {
	key := []byte(report.StartedAt.Format(time.RFC3339))
	return p.producer.Publish(ctx, p.topic, key, report)
}

// Close closes the underlying producer.
func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
