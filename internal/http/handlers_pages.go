package http

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tripplan/internal/auth"
	"tripplan/internal/breakdown"
	"tripplan/internal/core"
	"tripplan/internal/log"
)

const (
	chartSize        = 240.0
	chartInnerRadius = 70.0
)

type plansPage struct {
	SignedIn bool
	Plans    []core.Plan
}

type chartSlice struct {
	breakdown.Slice
	Path string
}

type chartPage struct {
	Plan          core.Plan
	Total         string
	Currencies    []string
	MixedCurrency bool
	Size          float64
	Slices        []chartSlice
	Legend        []breakdown.Slice
}

func (s *Server) handlePlansPage(w http.ResponseWriter, r *http.Request) {
	data := plansPage{}
	if auth.UserID(r.Context()) != "" {
		plans, err := s.svc.Plans.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		data.SignedIn = true
		data.Plans = plans
	}
	s.render(w, r, "plans.html", data)
}

func (s *Server) handleChartPage(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Plans.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	chart := breakdown.NewChart(d.Breakdown)
	data := chartPage{
		Plan:          d.Plan,
		Total:         d.Breakdown.Total.StringFixed(2),
		Currencies:    d.Breakdown.Currencies,
		MixedCurrency: d.Breakdown.MixedCurrency(),
		Size:          chartSize,
		Legend:        chart.Legend,
	}
	for _, sl := range chart.Slices {
		data.Slices = append(data.Slices, chartSlice{Slice: sl, Path: breakdown.DonutPath(sl, chartSize, chartInnerRadius)})
	}
	s.render(w, r, "chart.html", data)
}

// render executes into a buffer first so a template failure never sends a partial page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err, "template", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	NewResponse().Body(buf.Bytes(), "text/html; charset=utf-8").Write(w)
}
