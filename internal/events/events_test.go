package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/core"
)

func TestEventJSON(t *testing.T) {
	ev := NewExpenseEvent(ExpenseCreated, core.Expense{ID: "e1", PlanID: "p1", OwnerID: "alice", Amount: 12.5})

	data, err := ev.ToJSON()
	require.NoError(t, err)

	got, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ExpenseCreated, got.Type)
	assert.Equal(t, "alice", got.OwnerID)
	require.NotNil(t, got.Expense)
	assert.Equal(t, 12.5, got.Expense.Amount)
	assert.True(t, ev.Timestamp.Equal(got.Timestamp))
}

func TestFromJSONRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"plan.created","plan_id":"p1"}`},
		{"expense event without expense", `{"type":"expense.created","plan_id":"p1"}`},
		{"missing plan", `{"type":"plan.deleted"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestBroadcasterFiltersByType(t *testing.T) {
	b := NewBroadcaster(4)
	all, cancelAll := b.Subscribe()
	defer cancelAll()
	plans, cancelPlans := b.Subscribe(PlanDeleted)
	defer cancelPlans()

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, New(PlanDeleted, "alice", "p1")))
	require.NoError(t, b.Publish(ctx, NewExpenseEvent(ExpenseDeleted, core.Expense{PlanID: "p1"})))

	assert.Equal(t, PlanDeleted, (<-all).Type)
	assert.Equal(t, ExpenseDeleted, (<-all).Type)
	assert.Equal(t, PlanDeleted, (<-plans).Type)
	select {
	case ev := <-plans:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func TestBroadcasterNeverBlocks(t *testing.T) {
	b := NewBroadcaster(1)
	_, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Publish(context.Background(), New(PlanDeleted, "alice", "p1")))
	}
	assert.Equal(t, int64(2), b.Dropped())
}

func TestBroadcasterCancelAndClose(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	other, _ := b.Subscribe()
	b.Close()
	_, ok = <-other
	assert.False(t, ok)

	late, _ := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
	assert.NoError(t, b.Publish(context.Background(), New(PlanDeleted, "alice", "p1")))
}

func TestRun(t *testing.T) {
	ch := make(chan Event, 2)
	ch <- New(PlanDeleted, "alice", "p1")
	ch <- New(PlanDeleted, "alice", "p2")
	close(ch)

	var handled []string
	var failed []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(context.Background(), ch, func(_ context.Context, ev Event) error {
			handled = append(handled, ev.PlanID)
			if ev.PlanID == "p1" {
				return errors.New("boom")
			}
			return nil
		}, func(ev Event, _ error) { failed = append(failed, ev.PlanID) })
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}
	assert.Equal(t, []string{"p1", "p2"}, handled)
	assert.Equal(t, []string{"p1"}, failed)
}

type recording struct{ got []Type }

func (r *recording) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev.Type)
	return nil
}

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("down") }

func TestMulti(t *testing.T) {
	a, c := &recording{}, &recording{}
	err := Multi(a, failing{}, c).Publish(context.Background(), New(PlanDeleted, "alice", "p1"))
	assert.EqualError(t, err, "down")
	assert.Equal(t, []Type{PlanDeleted}, a.got)
	assert.Equal(t, []Type{PlanDeleted}, c.got)
	assert.NoError(t, Discard.Publish(context.Background(), Event{}))
}
