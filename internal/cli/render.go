package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"tripplan/internal/breakdown"
	"tripplan/internal/services"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorWarn   = lipgloss.Color("#DA702C")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
)

// RenderTitle renders s in a rounded box.
func RenderTitle(s string) string {
	return titleStyle.Render(s)
}

// RenderTable renders a bordered table. Columns after the first are right aligned.
func RenderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col > 0 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		}).
		String()
}

// RenderReport is the terminal view of a plan: its header, spots, and the
// spending breakdown with percentage labels.
func RenderReport(d services.PlanDetail) string {
	var b strings.Builder
	p := d.Plan

	b.WriteString(RenderTitle(p.Title))
	b.WriteString("\n")
	if dr := p.DateRange(); dr != "" {
		fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render("Dates:"), dr)
	}
	if p.Destination != "" {
		fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render("Destination:"), p.Destination)
	}
	if p.Budget != nil {
		fmt.Fprintf(&b, "%s %.2f\n", mutedStyle.Render("Budget:"), *p.Budget)
	}

	if len(d.Spots) > 0 {
		rows := make([][]string, 0, len(d.Spots))
		for _, s := range d.Spots {
			rows = append(rows, []string{s.Name, fmt.Sprintf("%.5f", s.Latitude), fmt.Sprintf("%.5f", s.Longitude)})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"Spot", "Lat", "Lng"}, rows))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderBreakdown(d.Breakdown))
	return b.String()
}

func renderBreakdown(s breakdown.Summary) string {
	if len(s.Buckets) == 0 {
		return mutedStyle.Render("No expenses recorded.") + "\n"
	}

	labels := breakdown.PercentLabels(s)
	rows := make([][]string, 0, len(s.Buckets)+1)
	for i, bk := range s.Buckets {
		rows = append(rows, []string{bk.Category, fmt.Sprint(bk.Count), bk.Total.StringFixed(2), labels[i] + "%"})
	}
	rows = append(rows, []string{"Total", "", s.Total.StringFixed(2), "100.0%"})

	var b strings.Builder
	b.WriteString(RenderTable([]string{"Category", "Count", "Amount", "Share"}, rows))
	b.WriteString("\n")
	if s.MixedCurrency() {
		fmt.Fprintf(&b, "%s\n", warnStyle.Render("Totals mix currencies: "+strings.Join(s.Currencies, ", ")))
	}
	return b.String()
}
