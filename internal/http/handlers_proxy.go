package http

import (
	"net/http"
	"strings"

	"tripplan/internal/core"
	"tripplan/internal/proxy"
)

func (s *Server) handleGenerateItinerary(w http.ResponseWriter, r *http.Request) {
	var req core.TripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Proxy.GenerateItinerary(r.Context(), proxy.CredentialsFromRequest(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEstimateBudget(w http.ResponseWriter, r *http.Request) {
	var req core.TripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Proxy.EstimateBudget(r.Context(), proxy.CredentialsFromRequest(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// analyzeRequest names a saved plan, or carries a plan and its expenses inline.
type analyzeRequest struct {
	PlanID   string         `json:"plan_id"`
	Plan     *core.Plan     `json:"plan"`
	Expenses []core.Expense `json:"expenses"`
}

func (s *Server) handleAnalyzeBudget(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	creds := proxy.CredentialsFromRequest(r)

	var (
		res proxy.Result
		err error
	)
	switch {
	case strings.TrimSpace(req.PlanID) != "":
		res, err = s.svc.Expenses.Analyze(r.Context(), creds, strings.TrimSpace(req.PlanID))
	case req.Plan != nil:
		res, err = s.svc.Proxy.AnalyzeBudget(r.Context(), creds, proxy.AnalysisInput{Plan: *req.Plan, Expenses: req.Expenses})
	default:
		err = &core.ValidationError{Field: "plan", Reason: "plan_id or plan is required"}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.Proxy.Geocode(r.Context(), proxy.CredentialsFromRequest(r), q.Get("address"), q.Get("city"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
