package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"markwave-backend/internal/config"
	"markwave-backend/internal/util"
)

// Event names emitted on the marketplace topic.
const (
	EventUserRegistered   = "user.registered"
	EventUserVerified     = "user.verified"
	EventPurchaseRecorded = "purchase.recorded"
)

// Envelope is the wire format for every published event.
type Envelope struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// Publisher emits domain events. Implementations must never make a caller
// fail because the broker is down.
type Publisher interface {
	Publish(ctx context.Context, event string, payload map[string]any)
	Close() error
}

// KafkaPublisher writes events to a single Kafka topic keyed by the
// subject's mobile number so per-user ordering holds within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaPublisher(cfg *config.Config) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				util.Error("failed to write kafka messages",
					util.ErrorField(err),
					util.Int("message_count", len(messages)))
			}
		},
	}

	util.Info("Kafka publisher initialized",
		util.Any("brokers", cfg.Kafka.Brokers),
		util.String("topic", cfg.Kafka.Topic))

	return &KafkaPublisher{writer: writer, topic: cfg.Kafka.Topic}
}

// Publish sends one event. Failures are logged and swallowed, the request
// that triggered the event has already succeeded.
func (p *KafkaPublisher) Publish(ctx context.Context, event string, payload map[string]any) {
	value, err := json.Marshal(Envelope{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		util.Error("failed to marshal event", util.String("event", event), util.ErrorField(err))
		return
	}

	key := ""
	if mobile, ok := payload["mobile"].(string); ok {
		key = mobile
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		util.Error("failed to publish event",
			util.String("event", event),
			util.ErrorField(err))
		return
	}

	util.Debug("event published", util.String("event", event))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used in tests and when no brokers are
// configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, map[string]any) {}
func (NoopPublisher) Close() error                                    { return nil }
