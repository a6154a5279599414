package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/core"
	"tripplan/internal/geocode"
	"tripplan/internal/llm"
)

type fakeLLM struct {
	hits     atomic.Int32
	lastAuth string
	lastBody map[string]any
	status   int
	reply    string
}

func (f *fakeLLM) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.lastAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		f.lastBody = map[string]any{}
		_ = json.Unmarshal(body, &f.lastBody)
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		_, _ = io.WriteString(w, f.reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLLMService(t *testing.T, f *fakeLLM, defaults Credentials) *Service {
	srv := f.server(t)
	return New(llm.NewClient(srv.URL, time.Second), nil, defaults)
}

var trip = core.TripRequest{Destination: "Hangzhou", StartDate: "2026-05-01", EndDate: "2026-05-03", Budget: 3000, NumPeople: 2}

func TestCredentialResolution(t *testing.T) {
	okReply := `{"choices":[{"message":{"content":"plan"}}]}`

	t.Run("request header beats environment default", func(t *testing.T) {
		f := &fakeLLM{reply: okReply}
		s := newLLMService(t, f, Credentials{LLMKey: "B"})

		_, err := s.GenerateItinerary(context.Background(), Credentials{LLMKey: "A"}, trip)
		require.NoError(t, err)
		assert.Equal(t, "Bearer A", f.lastAuth)
	})

	t.Run("environment default when no header", func(t *testing.T) {
		f := &fakeLLM{reply: okReply}
		s := newLLMService(t, f, Credentials{LLMKey: "B"})

		_, err := s.GenerateItinerary(context.Background(), Credentials{}, trip)
		require.NoError(t, err)
		assert.Equal(t, "Bearer B", f.lastAuth)
	})

	t.Run("neither fails before any network call", func(t *testing.T) {
		f := &fakeLLM{reply: okReply}
		s := newLLMService(t, f, Credentials{})

		_, err := s.GenerateItinerary(context.Background(), Credentials{}, trip)
		assert.ErrorIs(t, err, core.ErrMissingCredential)
		_, err = s.EstimateBudget(context.Background(), Credentials{LLMKey: "  "}, trip)
		assert.ErrorIs(t, err, core.ErrMissingCredential)
		_, err = s.AnalyzeBudget(context.Background(), Credentials{}, AnalysisInput{Plan: core.Plan{Title: "t"}})
		assert.ErrorIs(t, err, core.ErrMissingCredential)
		assert.Equal(t, int32(0), f.hits.Load())
	})
}

func TestModelResolution(t *testing.T) {
	okReply := `{"choices":[{"message":{"content":"x"}}]}`
	tests := []struct {
		name    string
		header  string
		process string
		want    string
	}{
		{"header wins", "qwen-max", "qwen-turbo", "qwen-max"},
		{"process default", "", "qwen-turbo", "qwen-turbo"},
		{"built-in default", "", "", DefaultModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeLLM{reply: okReply}
			s := newLLMService(t, f, Credentials{LLMKey: "k", LLMModel: tt.process})

			res, err := s.EstimateBudget(context.Background(), Credentials{LLMModel: tt.header}, trip)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.lastBody["model"])
			assert.Equal(t, tt.want, res.Model)
		})
	}
}

func TestTemperatures(t *testing.T) {
	okReply := `{"choices":[{"message":{"content":"x"}}]}`
	f := &fakeLLM{reply: okReply}
	s := newLLMService(t, f, Credentials{LLMKey: "k"})
	ctx := context.Background()

	_, err := s.GenerateItinerary(ctx, Credentials{}, trip)
	require.NoError(t, err)
	assert.Equal(t, TemperatureItinerary, f.lastBody["temperature"])

	_, err = s.EstimateBudget(ctx, Credentials{}, trip)
	require.NoError(t, err)
	assert.Equal(t, TemperatureBudget, f.lastBody["temperature"])

	_, err = s.AnalyzeBudget(ctx, Credentials{}, AnalysisInput{Plan: core.Plan{Title: "t"}})
	require.NoError(t, err)
	assert.Equal(t, TemperatureAnalysis, f.lastBody["temperature"])

	msgs, ok := f.lastBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestUpstreamFailureIsVerbatim(t *testing.T) {
	f := &fakeLLM{status: http.StatusTooManyRequests, reply: `{"code":"Throttling"}`}
	s := newLLMService(t, f, Credentials{LLMKey: "k"})

	_, err := s.GenerateItinerary(context.Background(), Credentials{}, trip)

	var ue *core.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusTooManyRequests, ue.Status)
	assert.Equal(t, `{"code":"Throttling"}`, ue.Body)
	assert.Equal(t, int32(1), f.hits.Load(), "no retry")
}

func TestFallbackWhenContentMissing(t *testing.T) {
	f := &fakeLLM{reply: `{"choices":[]}`}
	s := newLLMService(t, f, Credentials{LLMKey: "k"})
	ctx := context.Background()

	res, err := s.GenerateItinerary(ctx, Credentials{}, trip)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackItinerary, res.Text)

	res, err = s.EstimateBudget(ctx, Credentials{}, trip)
	require.NoError(t, err)
	assert.Equal(t, FallbackBudget, res.Text)

	res, err = s.AnalyzeBudget(ctx, Credentials{}, AnalysisInput{Plan: core.Plan{Title: "t"}})
	require.NoError(t, err)
	assert.Equal(t, FallbackAnalysis, res.Text)
}

func TestInvalidInputMakesNoCall(t *testing.T) {
	f := &fakeLLM{reply: `{}`}
	s := newLLMService(t, f, Credentials{LLMKey: "k"})

	_, err := s.GenerateItinerary(context.Background(), Credentials{}, core.TripRequest{Destination: "Rome", Budget: -1})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = s.AnalyzeBudget(context.Background(), Credentials{}, AnalysisInput{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, int32(0), f.hits.Load())
}

type geoServer struct {
	hits    atomic.Int32
	lastKey string
	reply   string
}

func (g *geoServer) service(t *testing.T, defaults Credentials) *Service {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.hits.Add(1)
		g.lastKey = r.URL.Query().Get("key")
		_, _ = io.WriteString(w, g.reply)
	}))
	t.Cleanup(srv.Close)
	return New(nil, geocode.NewClient(srv.URL, time.Second), defaults)
}

func TestGeocode(t *testing.T) {
	ok := `{"status":"1","geocodes":[{"formatted_address":"West Lake","location":"120.141,30.259"},{"location":"1,1"}]}`

	t.Run("first candidate", func(t *testing.T) {
		g := &geoServer{reply: ok}
		s := g.service(t, Credentials{GeocodeKey: "env"})

		res, err := s.Geocode(context.Background(), Credentials{GeocodeKey: "hdr"}, "West Lake", "Hangzhou")
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, core.Coordinate{Lng: 120.141, Lat: 30.259}, res.Location)
		assert.Equal(t, "hdr", g.lastKey)
	})

	t.Run("no candidates yields fallback", func(t *testing.T) {
		g := &geoServer{reply: `{"status":"0","info":"INVALID_USER_KEY","geocodes":[]}`}
		s := g.service(t, Credentials{GeocodeKey: "env"})

		res, err := s.Geocode(context.Background(), Credentials{}, "nowhere", "")
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Equal(t, FallbackGeocode, res.Message)
		assert.Equal(t, "env", g.lastKey)
	})

	t.Run("unparseable location yields fallback", func(t *testing.T) {
		g := &geoServer{reply: `{"status":"1","geocodes":[{"location":""}]}`}
		s := g.service(t, Credentials{GeocodeKey: "env"})

		res, err := s.Geocode(context.Background(), Credentials{}, "x", "")
		require.NoError(t, err)
		assert.False(t, res.Found)
	})

	t.Run("missing key makes no call", func(t *testing.T) {
		g := &geoServer{reply: ok}
		s := g.service(t, Credentials{})

		_, err := s.Geocode(context.Background(), Credentials{}, "West Lake", "")
		assert.ErrorIs(t, err, core.ErrMissingCredential)
		assert.Equal(t, int32(0), g.hits.Load())
	})

	t.Run("blank address rejected", func(t *testing.T) {
		g := &geoServer{reply: ok}
		s := g.service(t, Credentials{GeocodeKey: "k"})

		_, err := s.Geocode(context.Background(), Credentials{}, "  ", "")
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.Equal(t, int32(0), g.hits.Load())
	})
}

func TestCredentialsFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderLLMKey, " a ")
	r.Header.Set(HeaderLLMModel, "qwen-max")
	r.Header.Set(HeaderAMapKey, "amap")

	c := CredentialsFromRequest(r)
	assert.Equal(t, Credentials{LLMKey: "a", LLMModel: "qwen-max", GeocodeKey: "amap"}, c)

	r.Header.Set(HeaderGeocodeKey, "geo")
	assert.Equal(t, "geo", CredentialsFromRequest(r).GeocodeKey)
}

func TestResolve(t *testing.T) {
	v, err := Resolve("A", "B")
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	v, err = Resolve("", "B")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	_, err = Resolve(" ", "")
	assert.ErrorIs(t, err, core.ErrMissingCredential)
}

func TestPrompts(t *testing.T) {
	t.Run("itinerary omits absent fields", func(t *testing.T) {
		p, err := ItineraryPrompt(core.TripRequest{Destination: "Chengdu"})
		require.NoError(t, err)
		assert.Contains(t, p, "Destination: Chengdu")
		assert.NotContains(t, p, "Dates:")
		assert.NotContains(t, p, "Budget:")
		assert.NotContains(t, p, "Travelers:")
		assert.NotContains(t, p, "Preferences:")
	})

	t.Run("itinerary with every field", func(t *testing.T) {
		p, err := ItineraryPrompt(core.TripRequest{
			Destination: "Chengdu", StartDate: "2026-04-01", EndDate: "2026-04-04",
			Budget: 4500.5, NumPeople: 3, Preferences: "pandas, hotpot",
		})
		require.NoError(t, err)
		assert.Contains(t, p, "Dates: 2026-04-01 ~ 2026-04-04")
		assert.Contains(t, p, "Budget: about 4500.5 CNY")
		assert.Contains(t, p, "Travelers: 3")
		assert.Contains(t, p, "Preferences: pandas, hotpot")
	})

	t.Run("analysis lines", func(t *testing.T) {
		when := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
		budget := 5000.0
		p, err := AnalysisPrompt(AnalysisInput{
			Plan: core.Plan{Title: "Sichuan", Budget: &budget, StartDate: "2026-04-01"},
			Expenses: []core.Expense{
				{Amount: 120, Category: "Food", Currency: "CNY", OccurredAt: &when, Note: "hotpot"},
				{Amount: 35.5},
			},
		})
		require.NoError(t, err)
		assert.Contains(t, p, "Trip: Sichuan")
		assert.Contains(t, p, "Target budget: 5000")
		assert.Contains(t, p, "Dates: 2026-04-01")
		assert.Contains(t, p, "- 120 CNY | Food | 2026-04-02 | hotpot")
		assert.Contains(t, p, "- 35.5 CNY | Other |  | ")
		assert.NotContains(t, p, "Travelers:")
	})

	t.Run("analysis without expenses", func(t *testing.T) {
		p, err := AnalysisPrompt(AnalysisInput{Plan: core.Plan{Title: "x"}})
		require.NoError(t, err)
		assert.True(t, strings.Contains(p, "- no expenses recorded yet"))
	})
}
