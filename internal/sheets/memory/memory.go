// Package memory is an in-process sheets.Mirror, used when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tripplan/internal/core"
	"tripplan/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Expense
	seq  int
}

var _ sheets.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if e.ID == "" {
		return "", fmt.Errorf("expense has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", s.seq), nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.rows {
		if e.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ListExpenses(_ context.Context, planID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.rows {
		if e.PlanID == planID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports how many rows are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
