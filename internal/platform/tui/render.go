package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/scattershot/internal/scattershot"
	"github.com/vovakirdan/scattershot/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	bestStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusStyles = map[string]lipgloss.Style{
		storage.StatusRunning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		storage.StatusFinished: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		storage.StatusCanceled: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		storage.StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// newTable creates a table with the shared header and selection styles.
func newTable(columns []table.Column, height int) table.Model {
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// renderStats renders the counters of a progress snapshot as label/value lines.
func renderStats(p scattershot.Progress) string {
	rate := 0.0
	if secs := p.Elapsed.Seconds(); secs > 0 {
		rate = float64(p.Iterations) / secs
	}

	best := "none"
	if p.HasBest {
		best = bestStyle.Render(fmt.Sprintf("%.6f", p.BestFitness)) +
			valueStyle.Render(fmt.Sprintf(" at frame %d", p.BestFrame))
	}

	lines := []struct{ label, value string }{
		{"iterations", formatBudget(p.Iterations, p.Budget)},
		{"rate", fmt.Sprintf("%.0f/s", rate)},
		{"frontier", fmt.Sprintf("%d", p.Frontier)},
		{"accepted", fmt.Sprintf("%d", p.Accepted)},
		{"replaced", fmt.Sprintf("%d", p.Replaced)},
		{"invalid", fmt.Sprintf("%d", p.Invalid)},
		{"elapsed", p.Elapsed.Round(time.Second).String()},
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(labelStyle.Render(l.label))
		b.WriteString(valueStyle.Render(l.value))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("best"))
	b.WriteString(best)
	return b.String()
}

func formatBudget(n, budget int64) string {
	if budget <= 0 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d / %d", n, budget)
}

// fraction returns how much of the budget is spent, in [0, 1].
func fraction(p scattershot.Progress) float64 {
	if p.Budget <= 0 {
		return 0
	}
	return math.Min(1, float64(p.Iterations)/float64(p.Budget))
}

func formatFitness(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "-"
	}
	return fmt.Sprintf("%.6f", f)
}

// centerText pads text to center it within width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
