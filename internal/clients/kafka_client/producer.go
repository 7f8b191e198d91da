package kafka_client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

type Producer struct {
	producer *kafka.Producer
	done     chan struct{}
}

func NewProducer(cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.Broker,
		"security.protocol":   "PLAINTEXT", // Force PLAINTEXT
		"api.version.request": "true",      // Ensure correct API version request
		"enable.idempotence":  true,
		"acks":                "all",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	producer := &Producer{producer: p, done: make(chan struct{})}
	go producer.watchDeliveries()

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return producer, nil
}

// watchDeliveries drains delivery reports until the producer is closed.
func (p *Producer) watchDeliveries() {
	defer close(p.done)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				slog.Warn("[KafkaClient] Delivery failed",
					slog.String("topic", *ev.TopicPartition.Topic),
					slog.String("error", ev.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Warn("[KafkaClient] Producer error",
				slog.String("error", ev.Error()))
		}
	}
}

// Produce enqueues one message, retrying while the local queue is full.
func (p *Producer) Produce(topic string, key, value []byte) error {
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}

	var err error
	for i := 0; i < MAX_RETRIES; i++ {
		err = p.producer.Produce(msg, nil)
		if err == nil {
			return nil
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(RETRY_DELAY)
	}
	return fmt.Errorf("[KafkaClient] failed to produce message after %d attempts: %w", MAX_RETRIES, err)
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Shutting down Kafka producer...")
	if remaining := p.producer.Flush(int(FLUSH_TIMEOUT.Milliseconds())); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	<-p.done
	slog.Info("[KafkaClient] Kafka producer shut down")
}
