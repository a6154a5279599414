// Package http serves the JSON API, the proxy endpoints and the server-rendered pages.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tripplan/internal/auth"
	"tripplan/internal/log"
	"tripplan/internal/metrics"
	"tripplan/internal/middleware/ratelimit"
	"tripplan/internal/middleware/security"
	"tripplan/internal/middleware/trace"
	"tripplan/internal/proxy"
	"tripplan/internal/services"
	appweb "tripplan/web"
)

// Services are the application operations the handlers call.
type Services struct {
	Plans    *services.PlanService
	Spots    *services.SpotService
	Expenses *services.ExpenseService
	Proxy    *proxy.Service
}

type Config struct {
	Addr               string
	RateLimitPerMinute int
	Verifier           *auth.Verifier
	Logger             *log.Logger
	Metrics            *metrics.Metrics
	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	svc       Services
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	logger    *log.Logger
	metrics   *metrics.Metrics
	ready     func(ctx context.Context) error

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format(time.DateOnly) },
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:      svc,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector: security.NewDetector(),
		logger:   logger,
		metrics:  cfg.Metrics,
		ready:    cfg.Ready,
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg.Verifier),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(verifier *auth.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.observe)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Get("/", s.handlePlansPage)
		r.Get("/api/speech", handleSpeech)
		r.Get("/api/share/{id}", s.handleSharedPlan)

		// Proxy calls spend upstream quota, so they are rate limited per client.
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
				ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
			}))
			r.Post("/api/plan", s.handleGenerateItinerary)
			r.Post("/api/budget", s.handleEstimateBudget)
			r.Post("/api/budget/analyze", s.handleAnalyzeBudget)
			r.Get("/api/geocode", s.handleGeocode)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Get("/plans/{id}/chart", s.handleChartPage)

			r.Route("/api/plans", func(r chi.Router) {
				r.Get("/", s.handleListPlans)
				r.Post("/", s.handleSavePlan)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handlePlanDetail)
					r.Delete("/", s.handleDeletePlan)
					r.Put("/share", s.handleSharePlan)
					r.Get("/export", s.handleExport)
					r.Get("/breakdown", s.handleBreakdown)

					r.Get("/spots", s.handleListSpots)
					r.Post("/spots", s.handleAddSpot)
					r.Post("/spots/click", s.handleMapClick)
					r.Delete("/spots/{spotID}", s.handleDeleteSpot)

					r.Get("/expenses", s.handleListExpenses)
					r.Post("/expenses", s.handleAddExpense)
					r.Delete("/expenses/{expenseID}", s.handleDeleteExpense)
				})
			})
		})
	})

	return r
}

// observe records one counter sample per request, labeled with the route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(route, r.Method, status)
	})
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func handleSpeech(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "speech service not enabled"})
}
