package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/scattershot/internal/storage"
)

// Runs browser layout constants
const (
	minWidthForDetail = 100 // Minimum width to show the detail pane beside the table
	detailWidth       = 36
	maxRuns           = 100
)

// RunsModel is the Bubble Tea model for the run history browser.
type RunsModel struct {
	store      *storage.Store
	runs       []storage.Run
	best       *storage.Discovery // best discovery of the selected run
	loadErr    error
	table      table.Model
	help       help.Model
	keys       RunsKeyMap
	width      int
	height     int
	showDetail bool
	quitting   bool
}

// NewRunsModel creates a run browser over store.
func NewRunsModel(store *storage.Store, width, height int) RunsModel {
	m := RunsModel{
		store:      store,
		help:       help.New(),
		keys:       DefaultRunsKeyMap(),
		width:      width,
		height:     height,
		showDetail: width >= minWidthForDetail,
	}
	m.table = m.createTable()

	if store != nil {
		m.runs, m.loadErr = store.RecentRuns(maxRuns)
	}
	m.updateTableRows()
	m.loadSelected()
	return m
}

// createTable creates a new table with appropriate columns.
func (m *RunsModel) createTable() table.Model {
	return newTable([]table.Column{
		{Title: "Run", Width: 8},
		{Title: "Sim", Width: 10},
		{Title: "Status", Width: 9},
		{Title: "Iterations", Width: 11},
		{Title: "Frontier", Width: 9},
		{Title: "Started", Width: 13},
	}, m.height-8)
}

// updateTableRows updates the table with the loaded runs.
func (m *RunsModel) updateTableRows() {
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		rows[i] = table.Row{
			shortID(r.ID),
			r.SimID,
			r.Status,
			fmt.Sprintf("%d", r.Iterations),
			fmt.Sprintf("%d", r.Frontier),
			r.StartedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// loadSelected loads the best discovery of the selected run.
func (m *RunsModel) loadSelected() {
	m.best = nil
	if m.store == nil || len(m.runs) == 0 {
		return
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.runs) {
		return
	}
	best, err := m.store.BestDiscovery(m.runs[i].ID)
	if err == nil {
		m.best = best
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Init initializes the browser.
func (m RunsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the browser.
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			m.loadSelected()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showDetail = m.width >= minWidthForDetail
		cursor := m.table.Cursor()
		m.table = m.createTable()
		m.updateTableRows()
		m.table.SetCursor(cursor)
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browser.
func (m RunsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.MarginBottom(1).Render(centerText("SEARCH RUNS", m.width)))
	b.WriteString("\n\n")

	content := m.renderTableContent()
	if m.showDetail && len(m.runs) > 0 {
		detail := boxStyle.Width(detailWidth).Render(m.renderDetail())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxStyle.Render(content), "  ", detail))
	} else {
		b.WriteString(boxStyle.Render(content))
		if len(m.runs) > 0 {
			b.WriteString("\n")
			b.WriteString(m.renderDetail())
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// renderTableContent renders the table or an empty message.
func (m RunsModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)
	switch {
	case m.loadErr != nil:
		return emptyStyle.Render("Could not load runs:\n" + m.loadErr.Error())
	case len(m.runs) == 0:
		return emptyStyle.Render("No runs recorded yet.\nStart one with `scattershot search`.")
	}
	return m.table.View()
}

// renderDetail renders the selected run and its best discovery.
func (m RunsModel) renderDetail() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.runs) {
		return ""
	}
	r := m.runs[i]

	status, ok := statusStyles[r.Status]
	if !ok {
		status = valueStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("run"), valueStyle.Render(shortID(r.ID)))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("status"), status.Render(r.Status))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("seed"), valueStyle.Render(fmt.Sprintf("%d", r.Seed)))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("workers"), valueStyle.Render(fmt.Sprintf("%d", r.Workers)))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("policy"), valueStyle.Render(r.Policy))
	if m.best == nil {
		fmt.Fprintf(&b, "%s%s", labelStyle.Render("best"), valueStyle.Render("none"))
		return b.String()
	}
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("best"), bestStyle.Render(formatFitness(m.best.Fitness)))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("frame"), valueStyle.Render(fmt.Sprintf("%d", m.best.Frame)))
	fmt.Fprintf(&b, "%s%s", labelStyle.Render("bin"), valueStyle.Render(m.best.Bin))
	return b.String()
}

// IsQuitting returns true if the user closed the browser.
func (m RunsModel) IsQuitting() bool {
	return m.quitting
}

// RunRuns runs the run history browser.
func RunRuns(store *storage.Store, width, height int) error {
	p := tea.NewProgram(NewRunsModel(store, width, height), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
