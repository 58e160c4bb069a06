package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/wudi/pdfredact/engine"
)

var (
	colorOK     = lipgloss.Color("#2CD7C7")
	colorFailed = lipgloss.Color("#E74C3C")
	colorBorder = lipgloss.Color("#16858E")
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderSummary draws one row per document plus the totals. Colour is used
// only when w is a terminal.
func renderSummary(w io.Writer, outcomes []engine.Outcome) {
	colored := isTerminal(w)
	style := func(c lipgloss.Color) lipgloss.Style {
		if !colored {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(c)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(style(colorBorder)).
		Headers("DOCUMENT", "STATUS", "REGIONS", "WARNINGS", "TIME")
	for _, o := range outcomes {
		status := style(colorOK).Render("ok")
		if o.Err != nil {
			status = style(colorFailed).Render("failed: " + o.Err.Error())
		}
		t.Row(filepath.Base(o.Input), status,
			fmt.Sprint(o.Regions), fmt.Sprint(o.Warnings), o.Duration.Round(time.Millisecond).String())
	}
	t.StyleFunc(func(_, _ int) lipgloss.Style {
		return lipgloss.NewStyle().Padding(0, 1)
	})
	fmt.Fprintln(w, t.String())

	failed := engine.Failed(outcomes)
	fmt.Fprintf(w, "%d ok, %d failed\n", len(outcomes)-failed, failed)
}
