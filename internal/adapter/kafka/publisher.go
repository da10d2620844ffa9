// Package kafka publishes pipeline run events to a Kafka topic for downstream
// schedulers and monitors.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/zsbahtiar/hotspot-etl/internal/config"
	"github.com/zsbahtiar/hotspot-etl/internal/pipeline"
)

// Publisher produces one message per completed pipeline run.
// It implements pipeline.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the run-events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishRun serializes and publishes one run summary, keyed by batch ID so
// replays of a run land in the same partition.
func (p *Publisher) PublishRun(ctx context.Context, summary pipeline.RunSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	p.logger.Debug("run event published", "batch_id", summary.BatchID, "status", summary.Status)
	return nil
}

// serializeToMessage marshals a run summary into a Kafka message.
func serializeToMessage(summary pipeline.RunSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.BatchID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(summary.Status)},
			{Key: "finished_at", Value: []byte(summary.FinishedAt.Format(time.RFC3339))},
		},
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
