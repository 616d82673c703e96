package planstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// MemoryStore is an in-memory PlanStore and EventStore used by tests and the
// memory storage backend.
type MemoryStore struct {
	mu     sync.RWMutex
	byKey  map[model.PlanKey]*model.DispatchPlan
	byID   map[string]*model.DispatchPlan
	events []model.PlanEvent
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[model.PlanKey]*model.DispatchPlan),
		byID:  make(map[string]*model.DispatchPlan),
	}
}

// GetByKey returns a copy of the plan stored under key.
func (s *MemoryStore) GetByKey(ctx context.Context, key model.PlanKey) (*model.DispatchPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePlan(p), nil
}

// GetByID returns a copy of the plan with the given id.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*model.DispatchPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePlan(p), nil
}

// Upsert fully replaces any plan stored under the same key.
func (s *MemoryStore) Upsert(ctx context.Context, plan *model.DispatchPlan) error {
	cp := clonePlan(plan)
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byKey[cp.Key]; ok && old.ID != cp.ID {
		delete(s.byID, old.ID)
	}
	s.byKey[cp.Key] = cp
	s.byID[cp.ID] = cp
	return nil
}

// Append records an event.
func (s *MemoryStore) Append(ctx context.Context, ev model.PlanEvent) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// ListByPlan returns the events for a plan in append order.
func (s *MemoryStore) ListByPlan(ctx context.Context, planID string) ([]model.PlanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PlanEvent
	for _, ev := range s.events {
		if ev.PlanID == planID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Close implements the store interfaces.
func (s *MemoryStore) Close() error { return nil }

// clonePlan deep-copies through JSON so callers never alias stored state.
func clonePlan(p *model.DispatchPlan) *model.DispatchPlan {
	b, err := json.Marshal(p)
	if err != nil {
		cp := *p
		return &cp
	}
	var cp model.DispatchPlan
	if err := json.Unmarshal(b, &cp); err != nil {
		cp = *p
	}
	return &cp
}
