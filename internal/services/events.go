package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
)

//go:generate mockgen -source=events.go -destination=mock_events.go -package=services

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// KafkaReader defines a Kafka consumer group reader abstraction.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)         // Blocks until the next message arrives
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error // Marks messages as processed
	Close() error                                                    // Closes the Kafka reader
}

// EventPublisher publishes domain events. Publishing is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, userID uuid.UUID, entityID string, data map[string]string)
}

// KafkaEventPublisher publishes domain events as JSON messages keyed by user id.
// A nil publisher or one without a writer drops events.
type KafkaEventPublisher struct {
	writer KafkaWriter
	now    func() time.Time
}

// NewKafkaEventPublisher creates a publisher on top of writer.
func NewKafkaEventPublisher(writer KafkaWriter) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer, now: time.Now}
}

// Publish writes an event to Kafka. Failures are logged and never returned.
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType string, userID uuid.UUID, entityID string, data map[string]string) {
	if p == nil || p.writer == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "type", eventType)
		return
	}

	event := models.Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Timestamp: p.now().Unix(),
		UserID:    userID.String(),
		EntityID:  entityID,
		Data:      data,
	}

	value, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal event for Kafka", "event_id", event.EventID, "type", eventType, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish event to Kafka", "event_id", event.EventID, "type", eventType, "error", err)
	} else {
		logger.Log.Infow("Event published to Kafka", "event_id", event.EventID, "type", eventType, "entity_id", entityID)
	}
}

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, event models.Event) error

// ConsumeEvents reads events until ctx is cancelled. Undecodable messages and handler
// failures are logged and committed so a single bad message cannot stall the group.
func ConsumeEvents(ctx context.Context, reader KafkaReader, handle EventHandler) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Log.Errorw("Failed to fetch event from Kafka", "error", err)
			return err
		}

		var event models.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Log.Errorw("Failed to decode event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		} else if err := handle(ctx, event); err != nil {
			logger.Log.Errorw("Failed to handle event", "event_id", event.EventID, "type", event.Type, "error", err)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.Errorw("Failed to commit event offset", "offset", msg.Offset, "error", err)
			return err
		}
	}
}
