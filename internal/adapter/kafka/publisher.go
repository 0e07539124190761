package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/heat-emissions/internal/config"
	"github.com/couchcryptid/heat-emissions/internal/domain"
)

const eventTypeDatasetLoaded = "dataset_loaded"

// Publisher produces dataset load notifications to a Kafka topic.
// It implements pipeline.Notifier.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured notification topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Notify publishes one load summary.
func (p *Publisher) Notify(ctx context.Context, summary domain.LoadSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish load notification: %w", err)
	}
	p.logger.Debug("load notification published", "topic", p.writer.Topic, "rows", summary.Rows)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a LoadSummary into a Kafka message keyed by load time.
func serializeToMessage(summary domain.LoadSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize load summary: %w", err)
	}
	loadedAt := summary.LoadedAt.UTC().Format(time.RFC3339)
	return kafkago.Message{
		Key:   []byte(loadedAt),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventTypeDatasetLoaded)},
			{Key: "loaded_at", Value: []byte(loadedAt)},
		},
	}, nil
}
