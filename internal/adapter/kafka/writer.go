package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/config"
	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces detection results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 250 * time.Millisecond,
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes detection results to the sink topic
// in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.DetectionResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DetectionResult into a Kafka message keyed by
// request id. Results without a request id get a random key.
func serializeToMessage(result domain.DetectionResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize detection result: %w", err)
	}

	key := result.RequestID
	if key == "" {
		key = uuid.NewString()
	}

	ids := make([]string, len(result.Patterns))
	for i, p := range result.Patterns {
		ids[i] = string(p.ID)
	}

	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Time:  result.DetectedAt,
		Headers: []kafkago.Header{
			{Key: "pattern_count", Value: []byte(strconv.Itoa(len(result.Patterns)))},
			{Key: "patterns", Value: []byte(strings.Join(ids, ","))},
			{Key: "detected_at", Value: []byte(result.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
