package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"ms-pos/internal/config"
	"ms-pos/internal/kafka"
	"ms-pos/internal/logger"
)

// The kitchen display tails the ticket topics and renders them for the
// stations. It is a pure subscriber: all state changes go through the
// POS core API.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	appLogger := logger.NewLogger()
	defer appLogger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topics := []string{
		kafka.TopicKitchenTicketCreated,
		kafka.TopicTicketStatusChanged,
		kafka.TopicOrderVoided,
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID+"-display")
		defer consumer.Close()

		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			consumer.Start(ctx, func(topic string, key, value []byte) {
				appLogger.LogKafka("RECEIVE", topic, string(value))
			})
		}(topic)
	}

	log.Println("🖥️ Kitchen display consuming ticket events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("📦 Shutdown signal received.")
	cancel()
	wg.Wait()
}
