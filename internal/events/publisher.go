// Package events publishes task lifecycle events to Kafka. Publishing
// is fire-and-forget: delivery failures are logged and never surface
// into the request or pipeline that triggered them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Task lifecycle event types.
const (
	TypeTaskCreated   = "task.created"
	TypeTaskCompleted = "task.completed"
	TypeTaskFailed    = "task.failed"
	TypeTaskCancelled = "task.cancelled"
)

// TaskEvent is the payload published for each task lifecycle change.
type TaskEvent struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Config holds Kafka publisher settings.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the topic task events are published to.
	Topic string
	// BatchSize is the maximum number of messages per batch.
	BatchSize int
	// BatchTimeout is how long a partial batch waits before sending.
	BatchTimeout time.Duration
}

// KafkaPublisher writes task events to a Kafka topic, keyed by task ID
// so one task's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher. The underlying writer is
// asynchronous; write errors arrive through the completion callback.
func NewKafkaPublisher(cfg Config, logger zerolog.Logger) *KafkaPublisher {
	componentLogger := logger.With().Str("component", "events").Logger()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				componentLogger.Error().Err(err).Int("messages", len(messages)).Msg("task event delivery failed")
			}
		},
	}

	return &KafkaPublisher{writer: writer, logger: componentLogger}
}

// Publish enqueues a task event. Failures are logged, never returned.
func (p *KafkaPublisher) Publish(ctx context.Context, event TaskEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("task_id", event.TaskID).Msg("task event marshal failed")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TaskID),
		Value: value,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("task_id", event.TaskID).Str("type", event.Type).Msg("task event publish failed")
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards every event. Used when Kafka is disabled.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, TaskEvent) {}

// Close does nothing.
func (NopPublisher) Close() error { return nil }
