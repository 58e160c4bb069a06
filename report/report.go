// Package report renders scan results as JSON, Markdown or HTML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/pattern"
)

// Finding is one surviving pattern match.
type Finding struct {
	Page    int       `json:"page"`
	Text    string    `json:"text"`
	Pattern string    `json:"pattern"`
	Rect    geom.Rect `json:"-"`
}

func (f Finding) MarshalJSON() ([]byte, error) {
	type alias Finding
	return json.Marshal(struct {
		alias
		Rect [4]float64 `json:"rect"`
	}{alias(f), [4]float64{f.Rect.X0, f.Rect.Y0, f.Rect.X1, f.Rect.Y1}})
}

// Report summarises one scanned document.
type Report struct {
	Document string    `json:"document"`
	Pages    int       `json:"pages"`
	Findings []Finding `json:"findings"`
	Regions  int       `json:"regions"`
	Vetoed   int       `json:"vetoed"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Findings turns spans into findings, naming each by the pattern that
// produced it. Spans are expected in page order.
func Findings(spans []pattern.Span, patterns []pattern.Pattern) []Finding {
	out := make([]Finding, 0, len(spans))
	for _, s := range spans {
		name := fmt.Sprintf("#%d", s.Pattern)
		if s.Pattern >= 0 && s.Pattern < len(patterns) {
			name = patterns[s.Pattern].String()
		}
		out = append(out, Finding{Page: s.Page, Text: s.Text, Pattern: name, Rect: s.Rect})
	}
	return out
}

// WarningStrings flattens errors for display.
func WarningStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func (r *Report) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Markdown writes the report as a Markdown document with one table row per
// finding. Pages are numbered from 1.
func (r *Report) Markdown(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Redaction scan: %s\n\n", cell(r.Document))
	fmt.Fprintf(&b, "%d findings on %d pages, %d regions after resolving (%d protected).\n\n",
		len(r.Findings), r.Pages, r.Regions, r.Vetoed)
	if len(r.Findings) > 0 {
		b.WriteString("| Page | Text | Pattern | Rect |\n")
		b.WriteString("|-----:|------|---------|------|\n")
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "| %d | %s | %s | %.1f, %.1f, %.1f, %.1f |\n",
				f.Page+1, cell(f.Text), cell(f.Pattern), f.Rect.X0, f.Rect.Y0, f.Rect.X1, f.Rect.Y1)
		}
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", cell(w))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML renders the Markdown form through goldmark.
func (r *Report) HTML(w io.Writer) error {
	var src bytes.Buffer
	if err := r.Markdown(&src); err != nil {
		return err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	return md.Convert(src.Bytes(), w)
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;")

func cell(s string) string { return cellEscaper.Replace(s) }
