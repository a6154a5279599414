package http

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tripplan/internal/breakdown"
	"tripplan/internal/export"
	"tripplan/internal/log"
	"tripplan/internal/services"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.svc.Plans.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var in services.SavePlanInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Plans.Save(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handlePlanDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Plans.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Plans.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type shareRequest struct {
	Public bool `json:"public"`
}

func (s *Server) handleSharePlan(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.svc.Plans.Share(r.Context(), id, req.Public); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "public": req.Public})
}

func (s *Server) handleSharedPlan(w http.ResponseWriter, r *http.Request) {
	sp, err := s.svc.Plans.Shared(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

type breakdownResponse struct {
	breakdown.Summary
	MixedCurrency bool            `json:"mixed_currency"`
	Chart         breakdown.Chart `json:"chart"`
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Expenses.Breakdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdownResponse{
		Summary:       sum,
		MixedCurrency: sum.MixedCurrency(),
		Chart:         breakdown.NewChart(sum),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Plans.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	doc := export.Document{Plan: d.Plan, Spots: d.Spots, Expenses: d.Expenses}
	if err := export.Write(&buf, format, doc); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Plan exported",
		log.FieldPlanID, d.Plan.ID,
		log.FieldFormat, string(format))

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename(d.Plan, format)})
	NewResponse().
		Header("Content-Disposition", disposition).
		Body(buf.Bytes(), format.ContentType()).
		Write(w)
}
