package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"tripplan/internal/core"
)

func sampleDoc() Document {
	budget := 8000.0
	people := 2
	day := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	return Document{
		Plan: core.Plan{
			ID:          "p1",
			OwnerID:     "alice",
			Title:       "Tokyo spring",
			Content:     "Day 1: Asakusa",
			Destination: "Tokyo",
			StartDate:   "2025-05-01",
			EndDate:     "2025-05-05",
			Budget:      &budget,
			NumPeople:   &people,
			Preferences: "food",
		},
		Spots: []core.Spot{
			{ID: "s1", PlanID: "p1", Name: "Senso-ji", Description: "temple", Latitude: 35.7147651, Longitude: 139.7966553},
		},
		Expenses: []core.Expense{
			{ID: "e1", PlanID: "p1", Amount: 30, Category: "Food", Currency: "JPY", OccurredAt: &day},
			{ID: "e2", PlanID: "p1", Amount: 10, Category: "", Currency: "JPY"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", Markdown},
		{"markdown", Markdown},
		{"JSON", JSON},
		{"yml", YAML},
		{"xlsx", XLSX},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	_, err := ParseFormat("pdf")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("ParseFormat(pdf) error = %v, want ErrInvalidInput", err)
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Markdown, sampleDoc()))

	want := strings.Join([]string{
		"# Tokyo spring",
		"**Dates**: 2025-05-01 ~ 2025-05-05",
		"**Destination**: Tokyo",
		"**Budget**: 8000",
		"**People**: 2",
		"**Preferences**: food",
		"",
		"## Itinerary",
		"Day 1: Asakusa",
		"",
		"## Map spots",
		"- Senso-ji (35.71477, 139.79666): temple",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestMarkdown_OmitsAbsentFields(t *testing.T) {
	var buf bytes.Buffer
	doc := Document{Plan: core.Plan{Title: "Bare", Content: "x"}}
	require.NoError(t, Write(&buf, Markdown, doc))

	assert.Equal(t, "# Bare\n\n## Itinerary\nx\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, sampleDoc()))

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Contains(t, got, "plan")
	assert.Contains(t, got, "spots")
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, YAML, sampleDoc()))

	var got struct {
		Plan  core.Plan   `yaml:"plan"`
		Spots []core.Spot `yaml:"spots"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Tokyo spring", got.Plan.Title)
	require.Len(t, got.Spots, 1)
	assert.Equal(t, "Senso-ji", got.Spots[0].Name)
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, sampleDoc()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Plan", "Spots", "Expenses", "Breakdown"}, f.GetSheetList())

	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Category", "Amount", "Currency", "Note"}, rows[0])
	assert.Equal(t, "2025-05-02", rows[1][0])
	assert.Equal(t, "Other", rows[2][1])

	rows, err = f.GetRows("Breakdown")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Food", "30", "1", "75.0%"}, rows[1])
	assert.Equal(t, []string{"Other", "10", "1", "25.0%"}, rows[2])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Tokyo_ spring.json", Filename(core.Plan{Title: "Tokyo/ spring"}, JSON))
	assert.Equal(t, "travel-plan.md", Filename(core.Plan{}, Markdown))
}
