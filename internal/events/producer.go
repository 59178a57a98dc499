package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicUsers = "user_events"
	TopicJobs  = "job_events"

	writeTimeout = 5 * time.Second
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	EntityID   string    `json:"entity_id,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	w   messageWriter
	log *slog.Logger
}

func NewKafkaProducer(brokers []string, log *slog.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &KafkaProducer{w: w, log: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.w.WriteMessages(wctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.w.Close()
}

// Noop is used when no brokers are configured.
type Noop struct {
	Log *slog.Logger
}

func (n Noop) Publish(_ context.Context, topic, key string, _ any) error {
	if n.Log != nil {
		n.Log.Debug("event_dropped", "topic", topic, "key", key, "reason", "no brokers configured")
	}
	return nil
}

func (Noop) Close() error { return nil }

// Emit publishes and only logs a failure, so callers never fail a request
// because the broker is down.
func Emit(ctx context.Context, p Publisher, log *slog.Logger, topic string, ev Event) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, topic, ev.UserID, ev); err != nil {
		log.Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
