package store

import (
	"context"
	"sync"

	"secureupdate/internal/updates/models"
	"secureupdate/pkg/platform/sentinel"
)

// InMemory keeps the registry in process memory.
type InMemory struct {
	mu      sync.RWMutex
	updates map[string]models.Update
	state   *models.ContractState
}

func NewInMemory() *InMemory {
	return &InMemory{updates: make(map[string]models.Update)}
}

// Put stores u under modelID, replacing any previous record.
func (s *InMemory) Put(_ context.Context, modelID string, u *models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[modelID] = *u
	return nil
}

// Get returns a copy of the record stored under modelID.
func (s *InMemory) Get(_ context.Context, modelID string) (*models.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.updates[modelID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *InMemory) SaveState(_ context.Context, state *models.ContractState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		return sentinel.ErrConflict
	}
	cp := *state
	s.state = &cp
	return nil
}

func (s *InMemory) LoadState(_ context.Context) (*models.ContractState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.state
	return &cp, nil
}
