package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/valetops/traffic-engine/internal/config"
	"github.com/valetops/traffic-engine/internal/ticker"
)

// Writer produces tick reports to a Kafka topic.
// It implements ticker.Publisher.
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
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one tick report and writes it to the sink topic.
func (w *Writer) Publish(ctx context.Context, report ticker.Report) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a tick report into a Kafka message. The key is
// the evaluation timestamp so a compacted topic retains the latest report.
func serializeToMessage(report ticker.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize tick report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.At.UTC().Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "global_max", Value: []byte(strconv.FormatFloat(report.GlobalMax, 'f', -1, 64))},
			{Key: "event_count", Value: []byte(strconv.Itoa(len(report.Scores)))},
		},
	}, nil
}
