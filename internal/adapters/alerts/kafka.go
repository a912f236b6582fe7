// Package alerts publishes hotspot alerts to Kafka.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/okian/firewatch/internal/domain/model"
)

// ErrNoBrokers is returned when no broker address is configured.
var ErrNoBrokers = errors.New("alerts: no kafka brokers configured")

// Alert is the message body of a hotspot alert.
type Alert struct {
	ID          string             `json:"id"`
	Cell        string             `json:"cell"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
	Probability float64            `json:"probability"`
	Category    string             `json:"category"`
	Status      string             `json:"status"`
	Models      map[string]float64 `json:"models"`
	AssessedAt  time.Time          `json:"assessed_at"`
}

// NewAlert builds the alert for an assessment.
func NewAlert(a model.Assessment) Alert {
	return Alert{
		ID:          a.ID,
		Cell:        a.Cell,
		Latitude:    a.Reading.Latitude,
		Longitude:   a.Reading.Longitude,
		Probability: a.Result.Ensemble,
		Category:    string(a.Result.Category),
		Status:      a.Result.HotspotStatus(),
		Models:      a.Result.Models,
		AssessedAt:  a.AssessedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher produces hotspot alerts to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a producer for topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}, nil
}

// Publish serialises and sends the alert for a. Messages are keyed by cell so
// that alerts for one cell stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, a model.Assessment) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert %s: %w", a.ID, err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an assessment's alert into a Kafka message.
func serializeToMessage(a model.Assessment) (kafkago.Message, error) {
	data, err := json.Marshal(NewAlert(a))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.Cell),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_category", Value: []byte(a.Result.Category)},
			{Key: "assessed_at", Value: []byte(a.AssessedAt.Format(time.RFC3339))},
		},
	}, nil
}
