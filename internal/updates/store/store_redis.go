package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"secureupdate/internal/updates/models"
	"secureupdate/pkg/platform/sentinel"
)

const (
	updateKeyPrefix  = RegionUpdates + ":"
	contractStateKey = RegionContract + ":state"
)

// Redis persists the registry as JSON values in Redis. Records never expire.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed registry.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Put(ctx context.Context, modelID string, u *models.Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	if err := s.client.Set(ctx, updateKeyPrefix+modelID, payload, 0).Err(); err != nil {
		return fmt.Errorf("put update: %w", err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, modelID string) (*models.Update, error) {
	payload, err := s.client.Get(ctx, updateKeyPrefix+modelID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get update: %w", err)
	}
	var u models.Update
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}
	return &u, nil
}

// SaveState writes contract state with SETNX so only the first call wins.
func (s *Redis) SaveState(ctx context.Context, state *models.ContractState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode contract state: %w", err)
	}
	ok, err := s.client.SetNX(ctx, contractStateKey, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("save contract state: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Redis) LoadState(ctx context.Context) (*models.ContractState, error) {
	payload, err := s.client.Get(ctx, contractStateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contract state: %w", err)
	}
	var state models.ContractState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode contract state: %w", err)
	}
	return &state, nil
}
