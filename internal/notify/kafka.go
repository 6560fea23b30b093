package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives registration events when no topic is configured.
const DefaultTopic = "promoraffle.registrations"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes events as JSON, keyed by participant ID.
type KafkaNotifier struct {
	writer messageWriter
}

// NewKafkaNotifier creates a notifier writing to topic on brokers.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}}
}

// Notify publishes ev.
func (k *KafkaNotifier) Notify(ctx context.Context, ev RegistrationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding registration event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ParticipantID),
		Value: payload,
		Time:  ev.RegisteredAt,
	})
	if err != nil {
		return fmt.Errorf("publishing registration event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
