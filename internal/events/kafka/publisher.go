package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"bank-ledger/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends ledger events to a Kafka topic, keyed by account or loan
// so events for one record stay ordered within a partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates an asynchronous publisher; delivery errors are
// reported through log.
func NewPublisher(brokers []string, topic string, log logrus.FieldLogger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Async:    true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.WithError(err).WithField("messages", len(messages)).Warn("kafka delivery failed")
				}
			},
		},
	}
}

// Publish writes event as JSON, keyed so events of one account stay ordered.
func (p *Publisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not encode %s event: %w", event.Kind, err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	})
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
