package publisher

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	jsoniter "github.com/json-iterator/go"
	"github.com/tillpoint/tillpoint/internal/config"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/pubsub"
	"github.com/tillpoint/tillpoint/internal/types"
)

// Event is a notification that a committed mutation happened
type Event struct {
	ID        string              `json:"id"`
	EventName string              `json:"event_name"`
	StoreID   string              `json:"store_id"`
	Timestamp time.Time           `json:"timestamp"`
	Payload   jsoniter.RawMessage `json:"payload"`
}

// NewEvent builds an event with a fresh id and an encoded payload
func NewEvent(eventName, storeID string, payload interface{}) (*Event, error) {
	body, err := jsoniter.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName: eventName,
		StoreID:   storeID,
		Timestamp: time.Now().UTC(),
		Payload:   body,
	}, nil
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
}

type eventPublisher struct {
	pubSub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewEventPublisher creates a publisher writing to the configured events topic
func NewEventPublisher(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) EventPublisher {
	return &eventPublisher{
		pubSub: pubSub,
		topic:  cfg.Events.Topic,
		logger: logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := jsoniter.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("store_id", event.StoreID)
	msg.Metadata.Set("event_name", event.EventName)

	p.logger.Debugw("publishing event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"store_id", event.StoreID,
		"topic", p.topic,
	)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to publish event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"store_id", event.StoreID,
		)
		return err
	}

	return nil
}
