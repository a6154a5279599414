package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripplan/internal/core"
)

// PlanRepository persists plans. Every call except the public reads is scoped
// to the owner; rows owned by someone else behave as if they did not exist.
type PlanRepository interface {
	CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error)
	// ListPlans returns the owner's plans, newest first.
	ListPlans(ctx context.Context, ownerID string) ([]core.Plan, error)
	GetPlan(ctx context.Context, id, ownerID string) (core.Plan, error)
	// SetPlanPublic toggles read-only sharing. Content stays immutable.
	SetPlanPublic(ctx context.Context, id, ownerID string, public bool) error
	// DeletePlan removes the plan together with its spots and expenses.
	DeletePlan(ctx context.Context, id, ownerID string) error
	// GetPublicPlan returns a plan only if it has been shared.
	GetPublicPlan(ctx context.Context, id string) (core.Plan, error)
}

// SpotRepository persists spots. Ownership is inherited from the parent plan.
type SpotRepository interface {
	CreateSpot(ctx context.Context, ownerID string, s core.Spot) (core.Spot, error)
	// ListSpots returns the plan's spots, newest first.
	ListSpots(ctx context.Context, planID, ownerID string) ([]core.Spot, error)
	ListPublicSpots(ctx context.Context, planID string) ([]core.Spot, error)
	DeleteSpot(ctx context.Context, id, planID, ownerID string) error
}

// ExpenseRepository persists expenses. Expenses are never updated.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	// ListExpenses returns the plan's expenses ordered by occurred_at desc
	// (undated last), then created_at desc.
	ListExpenses(ctx context.Context, planID, ownerID string) ([]core.Expense, error)
	GetExpense(ctx context.Context, id, planID, ownerID string) (core.Expense, error)
	DeleteExpense(ctx context.Context, id, planID, ownerID string) error
}

// Repository is the full persistence surface used by the services.
type Repository interface {
	PlanRepository
	SpotRepository
	ExpenseRepository
	Ping(ctx context.Context) error
	Close() error
}

// NewID returns a fresh row identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the creation timestamp used for new rows, truncated to
// microseconds so every backend round-trips it unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// PrepareSpot fills defaults and identity fields before insert.
func PrepareSpot(s core.Spot) core.Spot {
	s.ID = NewID()
	s.CreatedAt = Now()
	if strings.TrimSpace(s.Name) == "" {
		s.Name = core.DefaultSpotName
	}
	return s
}

// PreparePlan fills identity fields before insert.
func PreparePlan(p core.Plan) core.Plan {
	p.ID = NewID()
	p.CreatedAt = Now()
	return p
}

// PrepareExpense fills identity fields before insert.
func PrepareExpense(e core.Expense) core.Expense {
	e.ID = NewID()
	e.CreatedAt = Now()
	if e.OccurredAt != nil {
		t := e.OccurredAt.UTC().Truncate(time.Microsecond)
		e.OccurredAt = &t
	}
	return e
}
