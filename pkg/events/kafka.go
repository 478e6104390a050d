package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/shopforge/shopforge/pkg/logger"
)

// KafkaConfig holds Kafka publisher settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher publishes events to a Kafka topic with an idempotent
// synchronous producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      logger.Logger
}

// NewKafkaPublisher creates a Kafka publisher.
func NewKafkaPublisher(cfg KafkaConfig, log logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
		log:      log,
	}, nil
}

// Publish sends one event, keyed so that events for the same product land on
// the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.Key),
		Value:     sarama.ByteEncoder(data),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send event %s: %w", event.Type, err)
	}

	if p.log != nil {
		p.log.Debug("event published",
			"type", event.Type,
			"key", event.Key,
			"partition", partition,
			"offset", offset,
		)
	}
	return nil
}

// Close shuts down the underlying producer.
func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

var _ Publisher = (*KafkaPublisher)(nil)
