package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"tripplan/internal/breakdown"
	"tripplan/internal/core"
	"tripplan/internal/events"
	"tripplan/internal/log"
	"tripplan/internal/storage"
)

// SavePlanInput is a generated itinerary the user chose to keep, together
// with the trip parameters it was generated from.
type SavePlanInput struct {
	Title   string           `json:"title"`
	Content string           `json:"content"`
	Trip    core.TripRequest `json:"trip"`
}

// PlanDetail is everything the plan page shows at once.
type PlanDetail struct {
	Plan      core.Plan         `json:"plan"`
	Spots     []core.Spot       `json:"spots"`
	Expenses  []core.Expense    `json:"expenses"`
	Breakdown breakdown.Summary `json:"breakdown"`
}

// SharedPlan is the read-only view of a public plan.
type SharedPlan struct {
	Plan  core.Plan   `json:"plan"`
	Spots []core.Spot `json:"spots"`
}

type PlanService struct {
	repo storage.Repository
	deps Deps
}

func NewPlanService(repo storage.Repository, deps Deps) *PlanService {
	return &PlanService{repo: repo, deps: deps.withDefaults(log.ComponentPlan)}
}

// Save stores a new plan for the current user. A blank title falls back to
// the destination.
func (s *PlanService) Save(ctx context.Context, in SavePlanInput) (core.Plan, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return core.Plan{}, err
	}

	if err := in.Trip.ValidateNumbers(); err != nil {
		return core.Plan{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSpace(in.Trip.Destination)
	}
	p := core.Plan{
		OwnerID:     owner,
		Title:       title,
		Content:     in.Content,
		Destination: strings.TrimSpace(in.Trip.Destination),
		StartDate:   in.Trip.StartDate,
		EndDate:     in.Trip.EndDate,
		Preferences: strings.TrimSpace(in.Trip.Preferences),
	}
	if in.Trip.Budget > 0 {
		b := in.Trip.Budget
		p.Budget = &b
	}
	if in.Trip.NumPeople > 0 {
		n := in.Trip.NumPeople
		p.NumPeople = &n
	}

	saved, err := s.repo.CreatePlan(ctx, p)
	if err != nil {
		return core.Plan{}, fmt.Errorf("save plan: %w", err)
	}
	s.deps.Logger.InfoContext(ctx, "Plan saved",
		log.FieldPlanID, saved.ID,
		log.FieldUserID, owner,
		log.FieldOperation, log.OpCreate)
	return saved, nil
}

func (s *PlanService) List(ctx context.Context) ([]core.Plan, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPlans(ctx, owner)
}

func (s *PlanService) Get(ctx context.Context, id string) (core.Plan, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return core.Plan{}, err
	}
	return s.repo.GetPlan(ctx, id, owner)
}

// Detail loads the plan, its spots and its expenses concurrently.
func (s *PlanService) Detail(ctx context.Context, id string) (PlanDetail, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return PlanDetail{}, err
	}

	var d PlanDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.GetPlan(gctx, id, owner)
		d.Plan = p
		return err
	})
	g.Go(func() error {
		spots, err := s.repo.ListSpots(gctx, id, owner)
		d.Spots = spots
		return err
	})
	g.Go(func() error {
		expenses, err := s.repo.ListExpenses(gctx, id, owner)
		d.Expenses = expenses
		return err
	})
	if err := g.Wait(); err != nil {
		return PlanDetail{}, err
	}

	d.Breakdown = breakdown.Summarize(d.Expenses)
	return d, nil
}

// Delete removes the plan with its spots and expenses.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	owner, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePlan(ctx, id, owner); err != nil {
		return err
	}
	s.deps.Logger.InfoContext(ctx, "Plan deleted",
		log.FieldPlanID, id,
		log.FieldUserID, owner,
		log.FieldOperation, log.OpDelete)
	s.deps.publish(ctx, events.New(events.PlanDeleted, owner, id))
	return nil
}

// Share turns public read access on or off.
func (s *PlanService) Share(ctx context.Context, id string, public bool) error {
	owner, err := currentUser(ctx)
	if err != nil {
		return err
	}
	return s.repo.SetPlanPublic(ctx, id, owner, public)
}

// Shared returns a public plan and its spots. It needs no session.
func (s *PlanService) Shared(ctx context.Context, id string) (SharedPlan, error) {
	p, err := s.repo.GetPublicPlan(ctx, id)
	if err != nil {
		return SharedPlan{}, err
	}
	spots, err := s.repo.ListPublicSpots(ctx, id)
	if err != nil {
		return SharedPlan{}, err
	}
	return SharedPlan{Plan: p, Spots: spots}, nil
}
