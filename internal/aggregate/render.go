package aggregate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	labelWidth = 24
	valueWidth = 18
)

// RenderJSON writes b as indented JSON.
func RenderJSON(w io.Writer, b Benchmark) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// RenderTable writes b as two aligned tables followed by the phase timings. When
// styled is false no ANSI styling is emitted.
func RenderTable(w io.Writer, b Benchmark, styled bool) error {
	p := message.NewPrinter(language.English)

	header := lipgloss.NewStyle()
	label := lipgloss.NewStyle().Width(labelWidth)
	value := lipgloss.NewStyle().Width(valueWidth).Align(lipgloss.Right)
	if styled {
		header = header.Bold(true).Foreground(lipgloss.Color("39"))
	}

	var out strings.Builder
	row := func(k, v string) {
		out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label.Render(k), value.Render(v)))
		out.WriteString("\n")
	}
	rule := strings.Repeat("─", labelWidth+valueWidth)

	out.WriteString(header.Render("TOTAL SALES BY CATEGORY"))
	out.WriteString("\n" + rule + "\n")
	for _, c := range b.Report.TotalByCategory {
		row(c.Category, p.Sprintf("%d", c.Total))
	}

	out.WriteString("\n")
	out.WriteString(header.Render("AVERAGE SALES BY REGION"))
	out.WriteString("\n" + rule + "\n")
	for _, r := range b.Report.AverageByRegion {
		row(r.Region, p.Sprintf("%.2f", r.Average))
	}

	out.WriteString("\n")
	out.WriteString(header.Render("BENCHMARK (" + b.Engine + ")"))
	out.WriteString("\n" + rule + "\n")
	row("Rows", p.Sprintf("%d", b.Rows))
	row("Files", p.Sprintf("%d", b.Files))
	row("Read", b.ReadTime.Round(time.Millisecond).String())
	row("Process", b.ProcessTime.Round(time.Millisecond).String())
	row("Total", b.Total().Round(time.Millisecond).String())

	_, err := fmt.Fprint(w, out.String())
	return err
}
