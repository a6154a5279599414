package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tripplan/internal/services"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Expenses.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// handleAddExpense accepts JSON or form data. Amounts are validated before
// anything is stored.
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.svc.Expenses.Add(r.Context(), chi.URLParam(r, "id"), services.ExpenseInput{
		Amount:     p.Get("amount"),
		Category:   p.Get("category"),
		Currency:   p.Get("currency"),
		Note:       p.Get("note"),
		OccurredAt: p.Get("occurred_at"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Expenses.Delete(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "expenseID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
