package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tripplan/internal/breakdown"
	"tripplan/internal/core"
	"tripplan/internal/events"
	"tripplan/internal/log"
	"tripplan/internal/proxy"
	"tripplan/internal/storage"
)

// ExpenseInput is an expense as the user typed it. Amount accepts a dot or a
// comma as decimal separator; OccurredAt is YYYY-MM-DD or RFC 3339, or blank.
type ExpenseInput struct {
	Amount     string `json:"amount"`
	Category   string `json:"category"`
	Currency   string `json:"currency"`
	Note       string `json:"note"`
	OccurredAt string `json:"occurred_at"`
}

// Analyzer asks the LLM about a plan's spending. *proxy.Service satisfies it.
type Analyzer interface {
	AnalyzeBudget(ctx context.Context, creds proxy.Credentials, in proxy.AnalysisInput) (proxy.Result, error)
}

type ExpenseService struct {
	repo     storage.Repository
	analyzer Analyzer
	deps     Deps
	logger   *log.StructuredLogger
}

func NewExpenseService(repo storage.Repository, analyzer Analyzer, deps Deps) *ExpenseService {
	deps = deps.withDefaults(log.ComponentExpense)
	return &ExpenseService{
		repo:     repo,
		analyzer: analyzer,
		deps:     deps,
		logger:   log.NewStructuredLogger(deps.Logger),
	}
}

// ParseExpense validates raw input into an expense without persisting it.
func ParseExpense(in ExpenseInput) (core.Expense, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		Amount:   amount,
		Category: strings.TrimSpace(in.Category),
		Currency: strings.ToUpper(strings.TrimSpace(in.Currency)),
		Note:     strings.TrimSpace(in.Note),
	}
	if v := strings.TrimSpace(in.OccurredAt); v != "" {
		t, err := parseOccurredAt(v)
		if err != nil {
			return core.Expense{}, err
		}
		e.OccurredAt = &t
	}
	return e, nil
}

func parseOccurredAt(v string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, &core.ValidationError{Field: "occurred_at", Reason: "must be YYYY-MM-DD or RFC 3339"}
}

// Add records an expense against one of the current user's plans.
func (s *ExpenseService) Add(ctx context.Context, planID string, in ExpenseInput) (core.Expense, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	e, err := ParseExpense(in)
	if err != nil {
		return core.Expense{}, err
	}
	e.PlanID = planID
	e.OwnerID = owner

	saved, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.LogExpenseCreated(ctx, planID, saved.ID, saved.Amount, saved.Category, saved.Currency)
	s.deps.Metrics.ExpenseCreated()
	s.deps.publish(ctx, events.NewExpenseEvent(events.ExpenseCreated, saved))
	return saved, nil
}

// List returns the plan's expenses, most recent occurrence first. The plan
// must belong to the caller.
func (s *ExpenseService) List(ctx context.Context, planID string) ([]core.Expense, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPlan(ctx, planID, owner); err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, planID, owner)
}

func (s *ExpenseService) Delete(ctx context.Context, planID, expenseID string) error {
	owner, err := currentUser(ctx)
	if err != nil {
		return err
	}
	e, err := s.repo.GetExpense(ctx, expenseID, planID, owner)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, expenseID, planID, owner); err != nil {
		return err
	}
	s.deps.Logger.InfoContext(ctx, "Expense deleted",
		log.FieldPlanID, planID,
		log.FieldExpenseID, expenseID,
		log.FieldOperation, log.OpDelete)
	s.deps.publish(ctx, events.NewExpenseEvent(events.ExpenseDeleted, e))
	return nil
}

// Breakdown aggregates the plan's expenses. The plan must belong to the caller.
func (s *ExpenseService) Breakdown(ctx context.Context, planID string) (breakdown.Summary, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return breakdown.Summary{}, err
	}
	if _, err := s.repo.GetPlan(ctx, planID, owner); err != nil {
		return breakdown.Summary{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, planID, owner)
	if err != nil {
		return breakdown.Summary{}, err
	}
	return breakdown.Summarize(expenses), nil
}

// Analyze sends the plan and its expenses to the LLM for advice.
func (s *ExpenseService) Analyze(ctx context.Context, creds proxy.Credentials, planID string) (proxy.Result, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return proxy.Result{}, err
	}
	p, err := s.repo.GetPlan(ctx, planID, owner)
	if err != nil {
		return proxy.Result{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, planID, owner)
	if err != nil {
		return proxy.Result{}, fmt.Errorf("load expenses: %w", err)
	}
	return s.analyzer.AnalyzeBudget(ctx, creds, proxy.AnalysisInput{Plan: p, Expenses: expenses})
}
