package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/scattershot/internal/scattershot"
	"github.com/vovakirdan/scattershot/internal/storage"
)

// ProgressSource reports the state of a running search.
type ProgressSource interface {
	Progress() scattershot.Progress
}

// DoneMsg tells the dashboard the search has ended.
type DoneMsg struct {
	Err error
}

// DashboardConfig configures a DashboardModel.
type DashboardConfig struct {
	Title    string
	TickRate int
	Width    int
	Height   int

	// Cancel stops the search. Nil makes the dashboard read-only.
	Cancel context.CancelFunc

	// ExitOnDone quits the program when a DoneMsg arrives.
	ExitOnDone bool
}

// DashboardModel is the Bubble Tea model for the live search dashboard.
type DashboardModel struct {
	source   ProgressSource
	feed     *Feed
	cfg      DashboardConfig
	snap     scattershot.Progress
	bar      progress.Model
	table    table.Model
	help     help.Model
	keys     DashboardKeyMap
	width    int
	height   int
	stopping bool
	done     bool
	err      error
	quitting bool
}

// NewDashboardModel creates a dashboard over source. feed may be nil.
func NewDashboardModel(source ProgressSource, feed *Feed, cfg DashboardConfig) DashboardModel {
	if cfg.Title == "" {
		cfg.Title = "scattershot"
	}
	m := DashboardModel{
		source: source,
		feed:   feed,
		cfg:    cfg,
		snap:   source.Progress(),
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   DefaultDashboardKeyMap(cfg.Cancel == nil),
		width:  cfg.Width,
		height: cfg.Height,
	}
	m.resize()
	m.refreshRows()
	return m
}

func (m *DashboardModel) resize() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.bar.Width = w
	m.help.Width = m.width
	m.table = newTable([]table.Column{
		{Title: "Fitness", Width: 12},
		{Title: "Frame", Width: 7},
		{Title: "Worker", Width: 7},
		{Title: "Bin", Width: max(12, w-34)},
	}, m.height-18)
}

func (m *DashboardModel) refreshRows() {
	if m.feed == nil {
		return
	}
	nodes := m.feed.Recent()
	rows := make([]table.Row, len(nodes))
	for i, n := range nodes {
		rows[i] = table.Row{
			formatFitness(n.Fitness),
			fmt.Sprintf("%d", n.Frame),
			fmt.Sprintf("%d", n.Worker),
			n.Bin.String(),
		}
	}
	m.table.SetRows(rows)
}

// Init starts the refresh loop.
func (m DashboardModel) Init() tea.Cmd {
	return tickCmd(m.cfg.TickRate)
}

// Update handles messages.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.cfg.Cancel != nil {
				m.cfg.Cancel()
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Stop):
			m.cfg.Cancel()
			m.stopping = true
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshRows()
		return m, nil

	case TickMsg:
		m.snap = m.source.Progress()
		m.refreshRows()
		if m.done {
			return m, nil
		}
		return m, tickCmd(m.cfg.TickRate)

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.snap = m.source.Progress()
		m.refreshRows()
		if m.cfg.ExitOnDone {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText(m.cfg.Title, m.width)))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(fraction(m.snap)))
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(renderStats(m.snap)))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(statusStyles[storage.StatusFailed].Render("search failed: " + m.err.Error()))
	case m.done:
		b.WriteString(statusStyles[storage.StatusFinished].Render("search finished"))
	case m.stopping:
		b.WriteString(statusStyles[storage.StatusCanceled].Render("stopping..."))
	default:
		b.WriteString(statusStyles[storage.StatusRunning].Render("searching"))
	}
	b.WriteString("\n\n")

	if m.feed != nil {
		b.WriteString(boxStyle.Render(m.table.View()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// Done reports whether the search has ended.
func (m DashboardModel) Done() bool {
	return m.done
}

// IsQuitting returns true if the user asked to quit.
func (m DashboardModel) IsQuitting() bool {
	return m.quitting
}

// RunDashboard shows the dashboard until the user quits or done delivers
// the search result.
func RunDashboard(source ProgressSource, feed *Feed, cfg DashboardConfig, done <-chan error) error {
	cfg.ExitOnDone = true
	p := tea.NewProgram(NewDashboardModel(source, feed, cfg), tea.WithAltScreen())

	go func() {
		err := <-done
		p.Send(DoneMsg{Err: err})
	}()

	_, err := p.Run()
	return err
}
