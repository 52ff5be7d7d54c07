// Command order-events tails the order event topics and prints one JSON line
// per event, for audit trails and debugging.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bom-tracker/internal/config"
	"bom-tracker/internal/kafka"
	"bom-tracker/internal/logger"
	"bom-tracker/internal/models"
	orderkafka "bom-tracker/internal/order/kafka"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("CONFIG", "KAFKA_BROKERS not set")
	}

	topics := orderkafka.Topics(cfg.Kafka.TopicPrefix)
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	log.Info("APP", fmt.Sprintf("Tailing %v on %v", topics, cfg.Kafka.Brokers))
	err := consumer.Start(ctx, func(event models.OrderEvent) {
		if err := enc.Encode(event); err != nil {
			log.Error("APP", fmt.Sprintf("write event: %v", err))
		}
	})
	if err != nil {
		log.Error("KAFKA", err.Error())
		os.Exit(1)
	}
	log.Info("APP", "Consumer stopped")
}
