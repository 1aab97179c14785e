// Package events connects the booking core to Kafka: committed changes go out
// on the events topic and refund requests travel through the refunds topic.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"cabbooking/internal/service"
)

const writeTimeout = 2 * time.Second

// MessageWriter is the subset of kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter creates a kafka writer for topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
}

// Publisher publishes booking and payment events keyed by booking ID.
type Publisher struct {
	writer MessageWriter
}

// Ensure Publisher implements service.EventPublisher.
var _ service.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new Publisher.
func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

func (p *Publisher) Publish(ctx context.Context, ev service.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
