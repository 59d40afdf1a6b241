package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climate-sim-service/internal/config"
	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

// Event types carried in the event_type header.
const (
	EventSimulationCompleted = "simulation.completed"
	EventSimulationFailed    = "simulation.failed"
)

// Writer publishes simulation lifecycle events to a Kafka topic.
// It implements domain.SimulationPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaEventTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSimulation writes one event for a simulation in a terminal state,
// keyed by simulation id so events for a job stay on one partition.
func (w *Writer) PublishSimulation(ctx context.Context, s domain.Simulation) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish simulation %s: %w", s.ID, err)
	}
	w.logger.Debug("simulation event published", "simulation_id", s.ID, "status", s.Status)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a terminal Simulation into a Kafka message.
func serializeToMessage(s domain.Simulation) (kafkago.Message, error) {
	var eventType string
	switch s.Status {
	case domain.StatusCompleted:
		eventType = EventSimulationCompleted
	case domain.StatusFailed:
		eventType = EventSimulationFailed
	default:
		return kafkago.Message{}, fmt.Errorf("simulation %s is %s, not terminal", s.ID, s.Status)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize simulation: %w", err)
	}

	occurredAt := domain.Now()
	if s.CompletedAt != nil {
		occurredAt = *s.CompletedAt
	}

	return kafkago.Message{
		Key:   []byte(s.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "occurred_at", Value: []byte(occurredAt.Format(time.RFC3339))},
		},
	}, nil
}
