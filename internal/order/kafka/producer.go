package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"bom-tracker/internal/logger"
	"bom-tracker/internal/models"
)

// Publisher is the slice of the shared Kafka producer this package needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

var eventTypes = []models.OrderEventType{
	models.OrderEventCreated,
	models.OrderEventBomAppended,
	models.OrderEventCompleted,
	models.OrderEventTerminated,
}

// Topic names the topic for one event type, e.g. bom.order.completed.
func Topic(prefix string, eventType models.OrderEventType) string {
	if prefix == "" {
		return string(eventType)
	}
	return prefix + "." + string(eventType)
}

// Topics lists every topic the order service writes to.
func Topics(prefix string) []string {
	topics := make([]string, 0, len(eventTypes))
	for _, t := range eventTypes {
		topics = append(topics, Topic(prefix, t))
	}
	return topics
}

type Producer struct {
	Publisher   Publisher
	TopicPrefix string
	Logger      *logger.Logger
}

func NewProducer(publisher Publisher, topicPrefix string, log *logger.Logger) *Producer {
	return &Producer{Publisher: publisher, TopicPrefix: topicPrefix, Logger: log}
}

// PublishOrderEvent streams the event keyed by order id.
func (p *Producer) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := Topic(p.TopicPrefix, event.Type)
	if err := p.Publisher.Publish(ctx, topic, strconv.FormatInt(event.OrderID, 10), msgBytes); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("order %d", event.OrderID))
	return nil
}

// NopProducer is used when Kafka is disabled.
type NopProducer struct{}

func (NopProducer) PublishOrderEvent(context.Context, models.OrderEvent) error { return nil }
