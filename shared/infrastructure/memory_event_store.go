package infrastructure

import (
	"context"
	"sync"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
)

// MemoryEventStore is an in-memory append-only event log for local
// mode and tests.
type MemoryEventStore struct {
	mu   sync.RWMutex
	log  []*events.Event
	seen map[models.ID]struct{}
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{seen: make(map[models.ID]struct{})}
}

func (s *MemoryEventStore) Append(ctx context.Context, evts ...*events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range evts {
		if _, ok := s.seen[event.ID]; ok {
			continue
		}
		s.seen[event.ID] = struct{}{}

		clone := *event
		s.log = append(s.log, &clone)
	}
	return nil
}

func (s *MemoryEventStore) ByCorrelationID(ctx context.Context, correlationID models.ID) ([]*events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*events.Event
	for _, event := range s.log {
		if event.CorrelationID == correlationID {
			clone := *event
			result = append(result, &clone)
		}
	}
	return result, nil
}
