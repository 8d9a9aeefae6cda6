package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/ecomflow/order-system/orders-service/saga"
	"github.com/ecomflow/order-system/shared/models"
)

var _ saga.Store = (*MemorySagaStore)(nil)

// MemorySagaStore keeps saga state in process memory. It mirrors the
// concurrency contract of the Postgres store (unique correlation id on
// create, version check on update) and backs tests and local mode.
type MemorySagaStore struct {
	mux    sync.RWMutex
	states map[models.ID]saga.State
}

// NewMemorySagaStore creates a new in-memory saga store
func NewMemorySagaStore() *MemorySagaStore {
	return &MemorySagaStore{
		states: make(map[models.ID]saga.State),
	}
}

// Find returns the state for a correlation id
func (s *MemorySagaStore) Find(_ context.Context, correlationID models.ID) (*saga.State, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	state, ok := s.states[correlationID]
	if !ok {
		return nil, saga.ErrStateNotFound
	}

	clone := state
	return &clone, nil
}

// Create inserts a new state, rejecting duplicates
func (s *MemorySagaStore) Create(_ context.Context, state *saga.State) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.states[state.CorrelationID]; ok {
		return saga.ErrStateExists
	}

	s.states[state.CorrelationID] = *state
	return nil
}

// Update applies a read-modify-write with a version check
func (s *MemorySagaStore) Update(_ context.Context, state *saga.State) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.states[state.CorrelationID]
	if !ok {
		return saga.ErrStateNotFound
	}

	if stored.Version != state.Version {
		return saga.ErrStateConflict
	}

	state.Version++
	s.states[state.CorrelationID] = *state
	return nil
}

// FindStale returns non-terminal sagas whose last transition is older than
// the given instant
func (s *MemorySagaStore) FindStale(_ context.Context, olderThan time.Time) ([]*saga.State, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	var stale []*saga.State
	for _, state := range s.states {
		if state.Step.IsTerminal() || !state.UpdatedAt.Before(olderThan) {
			continue
		}
		clone := state
		stale = append(stale, &clone)
	}

	return stale, nil
}
