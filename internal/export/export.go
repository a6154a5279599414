// Package export renders a saved plan for download.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tripplan/internal/core"
)

type Format string

const (
	Markdown Format = "md"
	JSON     Format = "json"
	YAML     Format = "yaml"
	XLSX     Format = "xlsx"
)

// Formats lists the supported formats in the order they are offered.
func Formats() []Format { return []Format{Markdown, JSON, YAML, XLSX} }

// ParseFormat accepts a format name or common alias; blank means Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return Markdown, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", &core.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q", s)}
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Document is what gets exported. Expenses are only used by XLSX.
type Document struct {
	Plan     core.Plan      `json:"plan" yaml:"plan"`
	Spots    []core.Spot    `json:"spots" yaml:"spots"`
	Expenses []core.Expense `json:"-" yaml:"-"`
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc Document) error {
	if doc.Spots == nil {
		doc.Spots = []core.Spot{}
	}
	switch f {
	case Markdown:
		return writeMarkdown(w, doc)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case XLSX:
		return writeXLSX(w, doc)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

var unsafeFilename = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// Filename is the download name for doc in format f.
func Filename(p core.Plan, f Format) string {
	name := strings.TrimSpace(unsafeFilename.ReplaceAllString(p.Title, "_"))
	if name == "" {
		name = "travel-plan"
	}
	return name + "." + string(f)
}

func writeMarkdown(w io.Writer, doc Document) error {
	p := doc.Plan
	lines := []string{"# " + p.Title}
	if dr := p.DateRange(); dr != "" {
		lines = append(lines, "**Dates**: "+dr)
	}
	if p.Destination != "" {
		lines = append(lines, "**Destination**: "+p.Destination)
	}
	if p.Budget != nil {
		lines = append(lines, "**Budget**: "+strconv.FormatFloat(*p.Budget, 'f', -1, 64))
	}
	if p.NumPeople != nil {
		lines = append(lines, "**People**: "+strconv.Itoa(*p.NumPeople))
	}
	if p.Preferences != "" {
		lines = append(lines, "**Preferences**: "+p.Preferences)
	}
	lines = append(lines, "", "## Itinerary", p.Content)

	if len(doc.Spots) > 0 {
		lines = append(lines, "", "## Map spots")
		for _, s := range doc.Spots {
			line := fmt.Sprintf("- %s (%.5f, %.5f)", s.Name, s.Latitude, s.Longitude)
			if s.Description != "" {
				line += ": " + s.Description
			}
			lines = append(lines, line)
		}
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
