package events

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// Publisher is the port the Command Bus publishes domain events through.
type Publisher interface {
	Publish(event *DomainEvent) error
	Close() error
}

// SaramaPublisher publishes DomainEvents to a Kafka topic via a sarama sync
// producer.
type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// ProducerConfig exposes the subset of sarama tuning callers need.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	RequiredAcks string // "none" | "local" | "all"
}

func ackLevel(s string) sarama.RequiredAcks {
	switch s {
	case "none":
		return sarama.NoResponse
	case "all":
		return sarama.WaitForAll
	default:
		return sarama.WaitForLocal
	}
}

// NewSaramaPublisher dials the given brokers and returns a ready publisher.
func NewSaramaPublisher(cfg ProducerConfig, log *logger.Logger) (*SaramaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = ackLevel(cfg.RequiredAcks)

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &SaramaPublisher{producer: producer, topic: cfg.Topic, log: log}, nil
}

func (p *SaramaPublisher) Publish(event *DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal domain event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.log.Debug("published event %s for aggregate %s (partition=%d offset=%d)",
		event.Type, event.AggregateID, partition, offset)
	return nil
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher discards every event; used in tests and for deployments
// without a broker configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(event *DomainEvent) error { return nil }
func (NoopPublisher) Close() error                     { return nil }
