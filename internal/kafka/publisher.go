package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/segmentio/kafka-go"
)

// Publisher writes envelopes to the shared events topic. Production services
// own their outbox relays; this writer exists for the dev publish command and
// integration tests.
type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// Publish writes one envelope, keyed by workspace so events of one workspace
// stay on one partition.
func (p *Publisher) Publish(ctx context.Context, env model.Envelope, workspaceID string) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(workspaceID),
		Value: value,
	})
}

func (p *Publisher) Close() error { return p.w.Close() }
