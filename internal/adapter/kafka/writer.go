package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/config"
	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes Weather-Sales rows to the sink topic.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Publish serializes rows and writes them in a single WriteMessages call.
// Messages are keyed by city and date so one city-day always lands on the
// same partition.
func (w *Writer) Publish(ctx context.Context, rows []domain.WeatherSalesRow) error {
	if len(rows) == 0 {
		return nil
	}
	exportedAt := domain.Now()
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i], exportedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish weather-sales rows: %w", err)
	}
	w.metrics.RowsExported.Add(float64(len(msgs)))
	w.logger.Info("weather-sales rows published", "topic", w.writer.Topic, "rows", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey identifies one city-day.
func messageKey(row domain.WeatherSalesRow) string {
	return row.City + "|" + row.Date.String()
}

// serializeToMessage marshals a WeatherSalesRow into a Kafka message.
func serializeToMessage(row domain.WeatherSalesRow, exportedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather-sales row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(row)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "city", Value: []byte(row.City)},
			{Key: "date", Value: []byte(row.Date.String())},
			{Key: "exported_at", Value: []byte(exportedAt.Format(time.RFC3339))},
		},
	}, nil
}
