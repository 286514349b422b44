package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"cnpjd/internal/platform/kafka"
)

// MessagePublisher is the slice of the Kafka producer the sink needs.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

// KafkaStore appends events to a Kafka topic as JSON, keyed by subject so
// events for one CNPJ stay ordered within a partition.
type KafkaStore struct {
	producer MessagePublisher
	topic    string
}

func NewKafkaStore(producer MessagePublisher, topic string) *KafkaStore {
	return &KafkaStore{producer: producer, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: map[string]string{
			"action": string(event.Action),
		},
	}
	if event.RequestID != "" {
		msg.Headers["request_id"] = event.RequestID
	}
	return s.producer.Publish(ctx, s.topic, msg)
}
