package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/footprint-extrusion/internal/config"
	"github.com/couchcryptid/footprint-extrusion/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes reconstructed solids to a Kafka topic.
// It implements pipeline.SolidLoader.
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

// LoadSolids serializes every solid of a run and publishes them in a single
// WriteMessages call.
func (w *Writer) LoadSolids(ctx context.Context, runID string, solids []domain.Solid) error {
	if len(solids) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(solids))
	for i := range solids {
		msg, err := serializeToMessage(runID, solids[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write solids: %w", err)
	}
	w.logger.Debug("solids published", "run_id", runID, "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey identifies a solid by its feature id, or by its position in the
// run when the feature had none, plus the polygon index.
func messageKey(s domain.Solid) string {
	feature := s.FeatureID
	if feature == "" {
		feature = "#" + strconv.Itoa(s.FeatureIndex)
	}
	return feature + "-" + strconv.Itoa(s.PolygonIndex)
}

// serializeToMessage marshals a Solid into a Kafka message.
func serializeToMessage(runID string, s domain.Solid) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize solid: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(s)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "faces", Value: []byte(strconv.Itoa(len(s.Brep.Faces)))},
		},
	}, nil
}
