// Package events carries domain change notifications from the services to
// whoever observes them: an in-process subscriber, or a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripplan/internal/core"
)

// Type names a domain change. It doubles as the AMQP routing key.
type Type string

const (
	PlanDeleted    Type = "plan.deleted"
	ExpenseCreated Type = "expense.created"
	ExpenseDeleted Type = "expense.deleted"
)

// Types returns every event type in a stable order.
func Types() []Type {
	return []Type{PlanDeleted, ExpenseCreated, ExpenseDeleted}
}

// Event is a notification about one row. Expense is set for expense events
// so consumers never need to read it back from storage.
type Event struct {
	ID        string        `json:"id"`
	Type      Type          `json:"type"`
	OwnerID   string        `json:"user_id"`
	PlanID    string        `json:"plan_id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func New(t Type, ownerID, planID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		OwnerID:   ownerID,
		PlanID:    planID,
		Timestamp: time.Now().UTC(),
	}
}

// NewExpenseEvent builds an expense.created or expense.deleted event.
func NewExpenseEvent(t Type, e core.Expense) Event {
	ev := New(t, e.OwnerID, e.PlanID)
	ev.Expense = &e
	return ev
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes and checks an event received from the wire.
func FromJSON(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (e Event) Validate() error {
	switch e.Type {
	case PlanDeleted:
	case ExpenseCreated, ExpenseDeleted:
		if e.Expense == nil {
			return fmt.Errorf("%w: %s event without expense", core.ErrInvalidInput, e.Type)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", core.ErrInvalidInput, e.Type)
	}
	if e.PlanID == "" {
		return fmt.Errorf("%w: event without plan id", core.ErrInvalidInput)
	}
	return nil
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler processes one event.
type Handler func(ctx context.Context, ev Event) error

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

// Multi publishes to each publisher in turn and returns the first error.
func Multi(publishers ...Publisher) Publisher {
	return multi(publishers)
}

type multi []Publisher

func (m multi) Publish(ctx context.Context, ev Event) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
