// Package kafka publishes audit events to a Kafka topic, keyed by model
// identifier so events for one model stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "secureupdate/pkg/platform/audit"
)

// Producer is the subset of the Kafka producer used by the store.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Store implements audit.Store on top of a Kafka producer.
type Store struct {
	producer Producer
}

func New(producer Producer) *Store {
	return &Store{producer: producer}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	key := event.ModelID
	if key == "" {
		key = event.Action
	}
	if err := s.producer.Produce(ctx, []byte(key), payload); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
