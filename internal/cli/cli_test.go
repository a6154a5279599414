package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/breakdown"
	"tripplan/internal/config"
	"tripplan/internal/core"
	"tripplan/internal/services"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATA_BACKEND", "memory")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.DataBackend)

	t.Setenv("JWT_SECRET", "")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestNewLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "warn"

	l := NewLogger(cfg, false)
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))

	l = NewLogger(cfg, true)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestRenderReport(t *testing.T) {
	budget := 3000.0
	d := services.PlanDetail{
		Plan: core.Plan{Title: "Hangzhou weekend", Destination: "Hangzhou", StartDate: "2025-04-01", EndDate: "2025-04-03", Budget: &budget},
		Spots: []core.Spot{
			{Name: "West Lake", Latitude: 30.2741, Longitude: 120.1551},
		},
		Breakdown: breakdown.Summary{
			Total: decimal.NewFromInt(200),
			Buckets: []breakdown.Bucket{
				{Category: "Transport", Total: decimal.NewFromInt(100), Count: 1},
				{Category: "Food", Total: decimal.NewFromInt(100), Count: 2},
			},
			Currencies: []string{"CNY", "EUR"},
		},
	}

	out := RenderReport(d)
	for _, want := range []string{"Hangzhou weekend", "West Lake", "30.27410", "Transport", "50.0%", "200.00", "CNY, EUR"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderReport_NoExpenses(t *testing.T) {
	out := RenderReport(services.PlanDetail{Plan: core.Plan{Title: "Empty"}})
	assert.Contains(t, out, "No expenses recorded.")
}
