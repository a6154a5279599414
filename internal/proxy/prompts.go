package proxy

import (
	"strconv"
	"strings"
	"text/template"

	"tripplan/internal/breakdown"
	"tripplan/internal/core"
)

var promptFuncs = template.FuncMap{
	"num": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
	"orDefault": func(def, v string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	},
	"category": breakdown.CategoryLabel,
	"date": func(e core.Expense) string {
		if e.OccurredAt == nil {
			return ""
		}
		return e.OccurredAt.Format("2006-01-02")
	},
	"dates": tripDates,
}

var itineraryTmpl = template.Must(template.New("itinerary").Funcs(promptFuncs).Parse(
	`You are a travel planning expert. Produce a detailed day-by-day itinerary for this trip.
Destination: {{.Destination}}
{{- with dates .}}
Dates: {{.}}{{end}}
{{- if gt .Budget 0.0}}
Budget: about {{num .Budget}} CNY{{end}}
{{- if gt .NumPeople 0}}
Travelers: {{.NumPeople}}{{end}}
{{- with .Preferences}}
Preferences: {{.}}{{end}}
Include: the daily schedule, transport options, lodging suggestions, a list of sights and restaurants with addresses and short descriptions, and practical notes.`))

var budgetTmpl = template.Must(template.New("budget").Funcs(promptFuncs).Parse(
	`Estimate the cost of this trip, broken down into transport, lodging, food, tickets and other. Give a budget range and ways to save.
Destination: {{.Destination}}
{{- with dates .}}
Dates: {{.}}{{end}}
{{- if gt .NumPeople 0}}
Travelers: {{.NumPeople}}{{end}}
{{- if gt .Budget 0.0}}
Expected budget: {{num .Budget}} CNY{{end}}
{{- with .Preferences}}
Preferences: {{.}}{{end}}`))

var analysisTmpl = template.Must(template.New("analysis").Funcs(promptFuncs).Parse(
	`You are a travel budget advisor. Analyze the trip below against what was actually spent.
Trip: {{.Plan.Title}}
{{- with .Plan.Destination}}
Destination: {{.}}{{end}}
{{- with .Plan.DateRange}}
Dates: {{.}}{{end}}
{{- with .Plan.Budget}}
Target budget: {{num .}}{{end}}
{{- with .Plan.NumPeople}}
Travelers: {{.}}{{end}}
{{- with .Plan.Preferences}}
Preferences: {{.}}{{end}}

Expenses (most recent first):
{{- range .Expenses}}
- {{num .Amount}} {{orDefault "CNY" .Currency}} | {{category .Category}} | {{date .}} | {{.Note}}
{{- else}}
- no expenses recorded yet
{{- end}}

Please cover:
1) the share of each category and any overspending risk; 2) the gap to the target budget; 3) savings ideas ranked by impact; 4) how to allocate spending over the remaining days.`))

func tripDates(r core.TripRequest) string {
	return core.Plan{StartDate: r.StartDate, EndDate: r.EndDate}.DateRange()
}

// AnalysisInput is the plan and its expenses, newest first.
type AnalysisInput struct {
	Plan     core.Plan
	Expenses []core.Expense
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ItineraryPrompt renders the itinerary generation prompt.
func ItineraryPrompt(r core.TripRequest) (string, error) { return render(itineraryTmpl, r) }

// BudgetPrompt renders the budget estimation prompt.
func BudgetPrompt(r core.TripRequest) (string, error) { return render(budgetTmpl, r) }

// AnalysisPrompt renders the budget analysis prompt.
func AnalysisPrompt(in AnalysisInput) (string, error) { return render(analysisTmpl, in) }
