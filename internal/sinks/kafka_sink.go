package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spacesedan/sentilens/internal/clients/kafka_client"
	"github.com/spacesedan/sentilens/internal/models"
)

type MessageProducer interface {
	Produce(topic string, key, value []byte) error
}

// KafkaSink emits one JSON message per analysis, keyed by analysis id.
type KafkaSink struct {
	producer MessageProducer
	topic    string
}

func NewKafkaSink(producer MessageProducer, topic string) *KafkaSink {
	if topic == "" {
		topic = kafka_client.KAFKA_TOPIC_SENTIMENT_RESULTS
	}
	return &KafkaSink{producer: producer, topic: topic}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Publish(ctx context.Context, record models.AnalysisRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("[KafkaSink] failed to marshal analysis: %w", err)
	}

	if err := k.producer.Produce(k.topic, []byte(record.AnalysisID), value); err != nil {
		return err
	}

	slog.Debug("[KafkaSink] Published analysis",
		slog.String("topic", k.topic),
		slog.String("analysis_id", record.AnalysisID))
	return nil
}
