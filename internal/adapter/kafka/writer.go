package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// Writer produces event messages to a Kafka topic.
// It implements feed.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the events in a single
// WriteMessages call. Keying by event id keeps every version of one
// event on the same partition, so consumers see its updates in order.
func (w *Writer) PublishBatch(ctx context.Context, events []domain.SummaryEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
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

// feedEvent is the wire shape published to Kafka. It carries the stable
// summary fields only, not the free-form GeoJSON property bag.
type feedEvent struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Updated   time.Time `json:"updated"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Depth     float64   `json:"depth"`
	Magnitude *float64  `json:"magnitude"`
	Location  string    `json:"location,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// serializeToMessage marshals a summary event into a Kafka message.
func serializeToMessage(event domain.SummaryEvent) (kafkago.Message, error) {
	data, err := json.Marshal(feedEvent{
		ID:        event.ID,
		Time:      event.Time,
		Updated:   event.Updated,
		Latitude:  event.Latitude,
		Longitude: event.Longitude,
		Depth:     event.Depth,
		Magnitude: event.Magnitude,
		Location:  event.Location,
		URL:       event.URL,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_time", Value: []byte(event.Time.Format(time.RFC3339))},
			{Key: "updated", Value: []byte(event.Updated.Format(time.RFC3339))},
		},
	}, nil
}
