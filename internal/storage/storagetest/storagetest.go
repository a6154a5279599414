// Package storagetest holds the behavior every storage.Repository must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/core"
	"tripplan/internal/storage"
)

// Factory returns an empty repository. Cleanup is registered on t.
type Factory func(t *testing.T) storage.Repository

// Run exercises a repository implementation against the shared contract.
func Run(t *testing.T, newRepo Factory) {
	t.Run("plans are owner scoped", func(t *testing.T) { testPlanOwnership(t, newRepo(t)) })
	t.Run("plans list newest first", func(t *testing.T) { testPlanOrder(t, newRepo(t)) })
	t.Run("plan optional fields round trip", func(t *testing.T) { testPlanFields(t, newRepo(t)) })
	t.Run("invalid plan rejected", func(t *testing.T) { testPlanValidation(t, newRepo(t)) })
	t.Run("sharing toggles public reads", func(t *testing.T) { testSharing(t, newRepo(t)) })
	t.Run("spots inherit plan ownership", func(t *testing.T) { testSpots(t, newRepo(t)) })
	t.Run("expenses ordered by occurrence", func(t *testing.T) { testExpenseOrder(t, newRepo(t)) })
	t.Run("expenses are owner scoped", func(t *testing.T) { testExpenseOwnership(t, newRepo(t)) })
	t.Run("deleting a plan cascades", func(t *testing.T) { testCascade(t, newRepo(t)) })
}

func plan(owner, title string) core.Plan {
	return core.Plan{OwnerID: owner, Title: title, Content: "Day 1: arrive"}
}

func testPlanOwnership(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	p, err := repo.CreatePlan(ctx, plan("alice", "Kyoto"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.GetPlan(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = repo.GetPlan(ctx, p.ID, "bob")
	assert.ErrorIs(t, err, core.ErrNotFound)

	bobs, err := repo.ListPlans(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobs)

	assert.ErrorIs(t, repo.DeletePlan(ctx, p.ID, "bob"), core.ErrNotFound)
	require.NoError(t, repo.DeletePlan(ctx, p.ID, "alice"))
	assert.ErrorIs(t, repo.DeletePlan(ctx, p.ID, "alice"), core.ErrNotFound)
}

func testPlanOrder(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		p, err := repo.CreatePlan(ctx, plan("alice", title))
		require.NoError(t, err)
		ids = append(ids, p.ID)
		time.Sleep(2 * time.Millisecond)
	}

	plans, err := repo.ListPlans(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{plans[0].ID, plans[1].ID, plans[2].ID})
}

func testPlanFields(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	budget := 5000.5
	people := 2

	in := plan("alice", "Chengdu")
	in.Destination = "Chengdu"
	in.StartDate = "2026-05-01"
	in.EndDate = "2026-05-04"
	in.Budget = &budget
	in.NumPeople = &people
	in.Preferences = "food"

	p, err := repo.CreatePlan(ctx, in)
	require.NoError(t, err)

	got, err := repo.GetPlan(ctx, p.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.Budget)
	require.NotNil(t, got.NumPeople)
	assert.Equal(t, budget, *got.Budget)
	assert.Equal(t, people, *got.NumPeople)
	assert.Equal(t, "2026-05-01 ~ 2026-05-04", got.DateRange())
	assert.Equal(t, "food", got.Preferences)

	bare, err := repo.CreatePlan(ctx, plan("alice", "bare"))
	require.NoError(t, err)
	got, err = repo.GetPlan(ctx, bare.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Budget)
	assert.Nil(t, got.NumPeople)
}

func testPlanValidation(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	_, err := repo.CreatePlan(ctx, plan("", "x"))
	assert.ErrorIs(t, err, core.ErrNoOwner)

	_, err = repo.CreatePlan(ctx, core.Plan{OwnerID: "alice", Title: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	plans, err := repo.ListPlans(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func testSharing(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	p, err := repo.CreatePlan(ctx, plan("alice", "Lhasa"))
	require.NoError(t, err)
	_, err = repo.CreateSpot(ctx, "alice", core.Spot{PlanID: p.ID, Name: "Potala", Latitude: 29.6578, Longitude: 91.1169})
	require.NoError(t, err)

	_, err = repo.GetPublicPlan(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	spots, err := repo.ListPublicSpots(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, spots)

	assert.ErrorIs(t, repo.SetPlanPublic(ctx, p.ID, "bob", true), core.ErrNotFound)
	require.NoError(t, repo.SetPlanPublic(ctx, p.ID, "alice", true))

	shared, err := repo.GetPublicPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, shared.Public)
	assert.Equal(t, p.Content, shared.Content)

	spots, err = repo.ListPublicSpots(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, spots, 1)

	require.NoError(t, repo.SetPlanPublic(ctx, p.ID, "alice", false))
	_, err = repo.GetPublicPlan(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testSpots(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	p, err := repo.CreatePlan(ctx, plan("alice", "Beijing"))
	require.NoError(t, err)

	_, err = repo.CreateSpot(ctx, "bob", core.Spot{PlanID: p.ID, Latitude: 39.9, Longitude: 116.4})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.CreateSpot(ctx, "alice", core.Spot{PlanID: p.ID, Latitude: 91, Longitude: 116.4})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	first, err := repo.CreateSpot(ctx, "alice", core.Spot{PlanID: p.ID, Latitude: 39.9163, Longitude: 116.3972})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultSpotName, first.Name)
	time.Sleep(2 * time.Millisecond)
	second, err := repo.CreateSpot(ctx, "alice", core.Spot{PlanID: p.ID, Name: "Temple of Heaven", Latitude: 39.8822, Longitude: 116.4066})
	require.NoError(t, err)

	spots, err := repo.ListSpots(ctx, p.ID, "alice")
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.Equal(t, second.ID, spots[0].ID)
	assert.Equal(t, first, spots[1])

	spots, err = repo.ListSpots(ctx, p.ID, "bob")
	require.NoError(t, err)
	assert.Empty(t, spots)

	assert.ErrorIs(t, repo.DeleteSpot(ctx, first.ID, p.ID, "bob"), core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteSpot(ctx, first.ID, "other-plan", "alice"), core.ErrNotFound)
	require.NoError(t, repo.DeleteSpot(ctx, first.ID, p.ID, "alice"))

	spots, err = repo.ListSpots(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, spots, 1)
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testExpenseOrder(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	p, err := repo.CreatePlan(ctx, plan("alice", "Xi'an"))
	require.NoError(t, err)

	add := func(note string, occurred *time.Time) core.Expense {
		t.Helper()
		e, err := repo.CreateExpense(ctx, core.Expense{
			PlanID: p.ID, OwnerID: "alice", Amount: 10, Category: core.CategoryFood, Note: note, OccurredAt: occurred,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
		return e
	}

	add("undated-old", nil)
	add("early", at("2026-05-01T08:00:00Z"))
	add("undated-new", nil)
	add("late", at("2026-05-03T19:30:00Z"))
	add("middle", at("2026-05-02T12:00:00+08:00"))

	expenses, err := repo.ListExpenses(ctx, p.ID, "alice")
	require.NoError(t, err)

	var notes []string
	for _, e := range expenses {
		notes = append(notes, e.Note)
	}
	assert.Equal(t, []string{"late", "middle", "early", "undated-new", "undated-old"}, notes)
	require.NotNil(t, expenses[1].OccurredAt)
	assert.True(t, expenses[1].OccurredAt.Equal(*at("2026-05-02T04:00:00Z")))
}

func testExpenseOwnership(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	p, err := repo.CreatePlan(ctx, plan("alice", "Harbin"))
	require.NoError(t, err)

	_, err = repo.CreateExpense(ctx, core.Expense{PlanID: p.ID, OwnerID: "bob", Amount: 5})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.CreateExpense(ctx, core.Expense{PlanID: p.ID, OwnerID: "alice", Amount: 0})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	e, err := repo.CreateExpense(ctx, core.Expense{
		PlanID: p.ID, OwnerID: "alice", Amount: 88.8, Category: core.CategoryTickets, Currency: "CNY", Note: "museum",
	})
	require.NoError(t, err)

	got, err := repo.GetExpense(ctx, e.ID, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = repo.GetExpense(ctx, e.ID, p.ID, "bob")
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := repo.ListExpenses(ctx, p.ID, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, repo.DeleteExpense(ctx, e.ID, p.ID, "bob"), core.ErrNotFound)
	require.NoError(t, repo.DeleteExpense(ctx, e.ID, p.ID, "alice"))
	assert.ErrorIs(t, repo.DeleteExpense(ctx, e.ID, p.ID, "alice"), core.ErrNotFound)
}

func testCascade(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	p, err := repo.CreatePlan(ctx, plan("alice", "Guilin"))
	require.NoError(t, err)
	_, err = repo.CreateSpot(ctx, "alice", core.Spot{PlanID: p.ID, Latitude: 25.27, Longitude: 110.29})
	require.NoError(t, err)
	e, err := repo.CreateExpense(ctx, core.Expense{PlanID: p.ID, OwnerID: "alice", Amount: 120})
	require.NoError(t, err)

	require.NoError(t, repo.DeletePlan(ctx, p.ID, "alice"))

	spots, err := repo.ListSpots(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, spots)
	expenses, err := repo.ListExpenses(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, expenses)
	_, err = repo.GetExpense(ctx, e.ID, p.ID, "alice")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
