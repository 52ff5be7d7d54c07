package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"bom-tracker/internal/logger"
	"bom-tracker/internal/models"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// NewConsumer creates a group consumer over the given topics
func NewConsumer(brokers, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, log: log}
}

// Start blocks, handing every decodable order event to handler until ctx is
// cancelled.
func (c *Consumer) Start(ctx context.Context, handler func(models.OrderEvent)) error {
	c.log.Info("KAFKA", "consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("reader closed: %w", err)
			}
			c.log.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		event, err := DecodeOrderEvent(msg.Value)
		if err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("Skipping message at %s/%d: %v", msg.Topic, msg.Offset, err))
			continue
		}

		c.log.LogKafka("RECEIVE", msg.Topic, fmt.Sprintf("order %d %s", event.OrderID, event.Type))
		handler(event)
	}
}

func DecodeOrderEvent(value []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return event, fmt.Errorf("decode order event: %w", err)
	}
	if event.Type == "" || event.OrderID == 0 {
		return event, errors.New("decode order event: missing type or order id")
	}
	return event, nil
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
