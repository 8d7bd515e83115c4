package repository

import (
	"context"
	"fmt"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/pkg/kafka"
	"HodlWatch/pkg/logger"
)

// KafkaUpdatePublisher emits one event per successful refresh cycle.
// Events are keyed by the cycle timestamp so compacted topics retain
// the latest standing per instant.
type KafkaUpdatePublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

func NewKafkaUpdatePublisher(brokers []string, topic string, log *logger.Logger) (*KafkaUpdatePublisher, error) {
	producer, err := kafka.NewProducer(kafka.WithBrokers(brokers))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return &KafkaUpdatePublisher{producer: producer, topic: topic, log: log}, nil
}

func (p *KafkaUpdatePublisher) PublishUpdate(ctx context.Context, result models.UpdateResult) error {
	key := []byte(result.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
	if err := p.producer.Publish(ctx, p.topic, key, result); err != nil {
		return fmt.Errorf("publish update: %w", err)
	}
	p.log.Debug("update event published",
		logger.String("topic", p.topic),
		logger.Float64("price", result.CurrentPrice))
	return nil
}

func (p *KafkaUpdatePublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops events. Used when eventing is disabled in config.
type NopPublisher struct{}

func (NopPublisher) PublishUpdate(context.Context, models.UpdateResult) error { return nil }
func (NopPublisher) Close() error                                             { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaUpdatePublisher)(nil)
	_ domrepo.EventPublisher = NopPublisher{}
)
