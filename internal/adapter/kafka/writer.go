package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes final substation records to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes records in a single WriteMessages call.
// Records for the same commune share a partition.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.FinalRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Info("records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FinalRecord into a Kafka message.
func serializeToMessage(rec domain.FinalRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize substation record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.CommuneCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "code_departement", Value: []byte(rec.DepartmentCode)},
			{Key: "image_count", Value: []byte(strconv.Itoa(rec.ImageCount()))},
		},
	}, nil
}
