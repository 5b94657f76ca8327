// Package kafka publishes JSON analytics records with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vamsi-1234/portfolio-engine/pkg/config"
	"github.com/vamsi-1234/portfolio-engine/pkg/resilience"
)

const (
	contentTypeHeader = "content-type"
	producerHeader    = "producer"
	producerName      = "portfolio-engine"
)

// Event is one record. Key picks the partition; Value is encoded as JSON.
// A zero Time is stamped at encode time.
type Event struct {
	Key   string
	Value any
	Time  time.Time
}

// Producer writes batches of events to one topic. Writes go through a
// circuit breaker so an unreachable broker fails fast.
type Producer struct {
	writer  *kafka.Writer
	breaker *resilience.Breaker
	logger  *slog.Logger
}

// NewProducer connects lazily on the first write.
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{
		writer:  w,
		breaker: resilience.NewBreaker("kafka-"+cfg.Topic, resilience.BreakerConfig{}),
		logger:  slog.Default().With("component", "kafka-producer", "topic", cfg.Topic),
	}
}

// PublishBatch writes events in one call.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	messages, err := Encode(events, time.Now())
	if err != nil {
		return err
	}
	err = p.breaker.Do(func() error {
		return p.writer.WriteMessages(ctx, messages...)
	})
	if err != nil {
		p.logger.Warn("publish failed", "count", len(messages), "breaker", p.breaker.State(), "error", err)
		return fmt.Errorf("publishing %d events: %w", len(messages), err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

// Encode builds the wire messages. now stamps events without a Time.
func Encode(events []Event, now time.Time) ([]kafka.Message, error) {
	messages := make([]kafka.Message, len(events))
	for i, e := range events {
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding event %d (key %q): %w", i, e.Key, err)
		}
		ts := e.Time
		if ts.IsZero() {
			ts = now
		}
		messages[i] = kafka.Message{
			Key:   []byte(e.Key),
			Value: value,
			Time:  ts,
			Headers: []kafka.Header{
				{Key: contentTypeHeader, Value: []byte("application/json")},
				{Key: producerHeader, Value: []byte(producerName)},
			},
		}
	}
	return messages, nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}
