package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/incident-report-service/internal/config"
	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// Writer publishes aggregated locations to a Kafka topic.
// It implements reportset.SnapshotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot writes one message per aggregated location, keyed by
// location so each key lands on a single partition, in a single
// WriteMessages call.
func (w *Writer) PublishSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Locations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Locations))
	for i := range snap.Locations {
		msg, err := serializeToMessage(snap.Locations[i], snap.ComputedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.logger.Debug("snapshot published", "locations", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AggregatedLocation into a Kafka message.
func serializeToMessage(loc domain.AggregatedLocation, computedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(loc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize aggregated location: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(loc.LocationKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "intensity", Value: []byte(loc.OverallIntensity)},
			{Key: "computed_at", Value: []byte(computedAt.Format(time.RFC3339))},
		},
	}, nil
}
