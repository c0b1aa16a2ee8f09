package events

import (
	"context"
	"encoding/json"
	"fmt"
	"freight-tariff-service/internal/domain"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the sink uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes tracking events as JSON, keyed by shipment id so all
// events of one shipment land on the same partition in order.
type KafkaSink struct {
	writer Writer
}

func NewKafkaSink(broker, topic string) *KafkaSink {
	return NewKafkaSinkWithWriter(&kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
}

// NewKafkaSinkWithWriter allows injecting a test writer.
func NewKafkaSinkWithWriter(w Writer) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Publish(ctx context.Context, ev domain.TrackingEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka sink: marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.ShipmentID.String()),
		Value: b,
		Time:  ev.OccurredAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka sink: write: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
