// Package proxy shapes outbound calls to the LLM and geocoding services: it
// resolves credentials, renders prompts or query parameters, and maps each
// upstream answer into a uniform local result.
//
// Every action is a single round trip with two terminal states, a result or
// an error. Nothing is retried or cached.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripplan/internal/core"
	"tripplan/internal/geocode"
	"tripplan/internal/llm"
	"tripplan/internal/log"
	"tripplan/internal/metrics"
)

// DefaultModel is used when neither the request nor the process names a model.
const DefaultModel = "qwen-plus"

// Actions, also used as metric and log labels.
const (
	ActionItinerary = "itinerary"
	ActionBudget    = "budget"
	ActionAnalysis  = "analysis"
	ActionGeocode   = "geocode"
)

// Sampling temperatures per action.
const (
	TemperatureItinerary = 0.7
	TemperatureBudget    = 0.3
	TemperatureAnalysis  = 0.4
)

// Fallback texts returned when an upstream success lacks the expected field.
const (
	FallbackItinerary = "Sorry, no itinerary could be generated. Please retry later or check the API key and model name."
	FallbackBudget    = "Sorry, no budget estimate could be generated."
	FallbackAnalysis  = "Sorry, no analysis could be generated."
	FallbackGeocode   = "No location found for this address."
)

// Result is the outcome of an LLM action. Fallback is true when Text is one of
// the fixed fallback messages.
type Result struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Fallback bool   `json:"fallback"`
}

// GeocodeResult is the outcome of a geocoding action. When Found is false,
// Message holds the fallback text and Location is zero.
type GeocodeResult struct {
	Found            bool            `json:"found"`
	Location         core.Coordinate `json:"location"`
	FormattedAddress string          `json:"formatted_address,omitempty"`
	Message          string          `json:"message,omitempty"`
}

// Service holds the process-wide defaults and the upstream clients.
type Service struct {
	llm      llm.Completer
	geocoder geocode.Geocoder
	defaults Credentials
	logger   *log.StructuredLogger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = log.NewStructuredLogger(l.WithComponent(log.ComponentProxy)) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a proxy service. defaults are the process-wide credentials and model.
func New(completer llm.Completer, geocoder geocode.Geocoder, defaults Credentials, opts ...Option) *Service {
	s := &Service{
		llm:      completer,
		geocoder: geocoder,
		defaults: defaults,
		logger:   log.NewStructuredLogger(log.Discard()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateItinerary asks the LLM for a day-by-day plan.
func (s *Service) GenerateItinerary(ctx context.Context, creds Credentials, req core.TripRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	prompt, err := ItineraryPrompt(req)
	if err != nil {
		return Result{}, fmt.Errorf("render itinerary prompt: %w", err)
	}
	return s.complete(ctx, ActionItinerary, creds, prompt, TemperatureItinerary, FallbackItinerary)
}

// EstimateBudget asks the LLM for a cost breakdown of a trip.
func (s *Service) EstimateBudget(ctx context.Context, creds Credentials, req core.TripRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	prompt, err := BudgetPrompt(req)
	if err != nil {
		return Result{}, fmt.Errorf("render budget prompt: %w", err)
	}
	return s.complete(ctx, ActionBudget, creds, prompt, TemperatureBudget, FallbackBudget)
}

// AnalyzeBudget asks the LLM to compare a plan with its recorded expenses.
func (s *Service) AnalyzeBudget(ctx context.Context, creds Credentials, in AnalysisInput) (Result, error) {
	if strings.TrimSpace(in.Plan.Title) == "" {
		return Result{}, &core.ValidationError{Field: "plan.title", Reason: "must not be empty"}
	}
	prompt, err := AnalysisPrompt(in)
	if err != nil {
		return Result{}, fmt.Errorf("render analysis prompt: %w", err)
	}
	return s.complete(ctx, ActionAnalysis, creds, prompt, TemperatureAnalysis, FallbackAnalysis)
}

func (s *Service) complete(ctx context.Context, action string, creds Credentials, prompt string, temperature float64, fallback string) (Result, error) {
	key, err := Resolve(creds.LLMKey, s.defaults.LLMKey)
	if err != nil {
		s.metrics.ObserveProxy(action, metrics.OutcomeMissingCredential, 0)
		return Result{}, fmt.Errorf("%s: %w", action, err)
	}
	model := resolveModel(creds.LLMModel, s.defaults.LLMModel)

	start := time.Now()
	out, err := s.llm.Complete(ctx, llm.Request{APIKey: key, Model: model, Prompt: prompt, Temperature: temperature})
	elapsed := time.Since(start)
	s.logger.LogProxyCall(ctx, action, model, elapsed.Milliseconds(), err)
	if err != nil {
		s.metrics.ObserveProxy(action, outcome(err), elapsed)
		return Result{}, fmt.Errorf("%s: %w", action, err)
	}

	if !out.Found {
		s.metrics.ObserveProxy(action, metrics.OutcomeFallback, elapsed)
		return Result{Text: fallback, Model: model, Fallback: true}, nil
	}
	s.metrics.ObserveProxy(action, metrics.OutcomeOK, elapsed)
	return Result{Text: out.Content, Model: model}, nil
}

// Geocode resolves an address, optionally scoped to a city, to the first
// candidate's coordinate.
func (s *Service) Geocode(ctx context.Context, creds Credentials, address, city string) (GeocodeResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return GeocodeResult{}, &core.ValidationError{Field: "address", Reason: "must not be empty"}
	}
	key, err := Resolve(creds.GeocodeKey, s.defaults.GeocodeKey)
	if err != nil {
		s.metrics.ObserveProxy(ActionGeocode, metrics.OutcomeMissingCredential, 0)
		return GeocodeResult{}, fmt.Errorf("%s: %w", ActionGeocode, err)
	}

	start := time.Now()
	resp, err := s.geocoder.Geocode(ctx, key, address, strings.TrimSpace(city))
	elapsed := time.Since(start)
	s.logger.LogProxyCall(ctx, ActionGeocode, "", elapsed.Milliseconds(), err)
	if err != nil {
		s.metrics.ObserveProxy(ActionGeocode, outcome(err), elapsed)
		return GeocodeResult{}, fmt.Errorf("%s: %w", ActionGeocode, err)
	}

	if len(resp.Geocodes) == 0 {
		s.metrics.ObserveProxy(ActionGeocode, metrics.OutcomeFallback, elapsed)
		return GeocodeResult{Message: FallbackGeocode}, nil
	}
	first := resp.Geocodes[0]
	loc, err := geocode.ParseLocation(first.Location)
	if err != nil {
		s.metrics.ObserveProxy(ActionGeocode, metrics.OutcomeFallback, elapsed)
		return GeocodeResult{Message: FallbackGeocode}, nil
	}
	s.metrics.ObserveProxy(ActionGeocode, metrics.OutcomeOK, elapsed)
	return GeocodeResult{Found: true, Location: loc, FormattedAddress: first.FormattedAddress}, nil
}

func outcome(err error) string {
	var ue *core.UpstreamError
	if errors.As(err, &ue) {
		return metrics.OutcomeUpstreamError
	}
	return metrics.OutcomeError
}
