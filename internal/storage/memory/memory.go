// Package memory is an in-process storage.Repository used by tests and by
// the "memory" data backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"tripplan/internal/core"
	"tripplan/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	plans    map[string]core.Plan
	spots    map[string]core.Spot
	expenses map[string]core.Expense
}

var _ storage.Repository = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		plans:    make(map[string]core.Plan),
		spots:    make(map[string]core.Spot),
		expenses: make(map[string]core.Expense),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreatePlan(_ context.Context, p core.Plan) (core.Plan, error) {
	if err := p.Validate(); err != nil {
		return core.Plan{}, err
	}
	p = storage.PreparePlan(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = clonePlan(p)
	return p, nil
}

func (s *Store) ListPlans(_ context.Context, ownerID string) ([]core.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.Plan{}
	for _, p := range s.plans {
		if p.OwnerID == ownerID {
			out = append(out, clonePlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetPlan(_ context.Context, id, ownerID string) (core.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok || p.OwnerID != ownerID {
		return core.Plan{}, core.ErrNotFound
	}
	return clonePlan(p), nil
}

func (s *Store) GetPublicPlan(_ context.Context, id string) (core.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok || !p.Public {
		return core.Plan{}, core.ErrNotFound
	}
	return clonePlan(p), nil
}

func (s *Store) SetPlanPublic(_ context.Context, id, ownerID string, public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok || p.OwnerID != ownerID {
		return core.ErrNotFound
	}
	p.Public = public
	s.plans[id] = p
	return nil
}

func (s *Store) DeletePlan(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok || p.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.plans, id)
	for sid, sp := range s.spots {
		if sp.PlanID == id {
			delete(s.spots, sid)
		}
	}
	for eid, e := range s.expenses {
		if e.PlanID == id {
			delete(s.expenses, eid)
		}
	}
	return nil
}

// owns must be called with s.mu held.
func (s *Store) owns(planID, ownerID string) bool {
	p, ok := s.plans[planID]
	return ok && p.OwnerID == ownerID
}

func (s *Store) CreateSpot(_ context.Context, ownerID string, sp core.Spot) (core.Spot, error) {
	if err := sp.Validate(); err != nil {
		return core.Spot{}, err
	}
	sp = storage.PrepareSpot(sp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owns(sp.PlanID, ownerID) {
		return core.Spot{}, core.ErrNotFound
	}
	s.spots[sp.ID] = sp
	return sp, nil
}

func (s *Store) ListSpots(_ context.Context, planID, ownerID string) ([]core.Spot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.owns(planID, ownerID) {
		return []core.Spot{}, nil
	}
	return s.spotsOf(planID), nil
}

func (s *Store) ListPublicSpots(_ context.Context, planID string) ([]core.Spot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.plans[planID]; !ok || !p.Public {
		return []core.Spot{}, nil
	}
	return s.spotsOf(planID), nil
}

func (s *Store) spotsOf(planID string) []core.Spot {
	out := []core.Spot{}
	for _, sp := range s.spots {
		if sp.PlanID == planID {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) DeleteSpot(_ context.Context, id, planID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spots[id]
	if !ok || sp.PlanID != planID || !s.owns(planID, ownerID) {
		return core.ErrNotFound
	}
	delete(s.spots, id)
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e = storage.PrepareExpense(e)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owns(e.PlanID, e.OwnerID) {
		return core.Expense{}, core.ErrNotFound
	}
	s.expenses[e.ID] = cloneExpense(e)
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, planID, ownerID string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.PlanID == planID && e.OwnerID == ownerID {
			out = append(out, cloneExpense(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return expenseBefore(out[i], out[j]) })
	return out, nil
}

// expenseBefore orders by occurred_at desc with undated rows last, then created_at desc.
func expenseBefore(a, b core.Expense) bool {
	switch {
	case a.OccurredAt != nil && b.OccurredAt == nil:
		return true
	case a.OccurredAt == nil && b.OccurredAt != nil:
		return false
	case a.OccurredAt != nil && !a.OccurredAt.Equal(*b.OccurredAt):
		return a.OccurredAt.After(*b.OccurredAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (s *Store) GetExpense(_ context.Context, id, planID, ownerID string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok || e.PlanID != planID || e.OwnerID != ownerID {
		return core.Expense{}, core.ErrNotFound
	}
	return cloneExpense(e), nil
}

func (s *Store) DeleteExpense(_ context.Context, id, planID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.PlanID != planID || e.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func clonePlan(p core.Plan) core.Plan {
	if p.Budget != nil {
		b := *p.Budget
		p.Budget = &b
	}
	if p.NumPeople != nil {
		n := *p.NumPeople
		p.NumPeople = &n
	}
	return p
}

func cloneExpense(e core.Expense) core.Expense {
	if e.OccurredAt != nil {
		t := *e.OccurredAt
		e.OccurredAt = &t
	}
	return e
}
