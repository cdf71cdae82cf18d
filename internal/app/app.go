// Package app renders a live view of a pipeline run: overall progress plus
// one row per worker. It consumes the orchestrator's snapshot channel and
// quits on the final snapshot.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voxparquet/internal/pipeline"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	barStyle    = lipgloss.NewStyle().Padding(0, 1)

	stateStyles = map[pipeline.WorkerState]lipgloss.Style{
		pipeline.StateInit:     lipgloss.NewStyle().Foreground(lipgloss.Color("248")),
		pipeline.StateRunning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		pipeline.StateDraining: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		pipeline.StateDone:     lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		pipeline.StateFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type snapshotMsg pipeline.Snapshot

// Model is the bubbletea model for a run in flight.
type Model struct {
	spinner   spinner.Model
	overall   progress.Model
	snapshots <-chan pipeline.Snapshot

	latest    pipeline.Snapshot
	startTime time.Time
	termWidth int
	finished  bool
	quitting  bool
}

// NewModel builds the view over the orchestrator's snapshot channel.
func NewModel(snapshots <-chan pipeline.Snapshot) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &Model{
		spinner:   s,
		overall:   progress.New(progress.WithDefaultGradient()),
		snapshots: snapshots,
		startTime: time.Now(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot())
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.snapshots
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.overall.Width = max(0, msg.Width-14)
	case snapshotMsg:
		m.latest = pipeline.Snapshot(msg)
		var percent float64
		if m.latest.Total > 0 {
			percent = float64(m.latest.Processed) / float64(m.latest.Total)
		}
		cmds = append(cmds, m.overall.SetPercent(percent))
		if m.latest.Done {
			m.finished = true
			return m, tea.Sequence(tea.Batch(cmds...), tea.Quit)
		}
		cmds = append(cmds, m.waitForSnapshot())
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case progress.FrameMsg:
		progModel, cmd := m.overall.Update(msg)
		if newModel, ok := progModel.(progress.Model); ok {
			m.overall = newModel
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("--- voxparquet ---"))
	b.WriteString("\n\n")

	head := fmt.Sprintf("%s Processing", m.spinner.View())
	if m.finished {
		head = "Run complete."
	}
	b.WriteString(head)
	b.WriteString("\n")
	b.WriteString(barStyle.Render(m.overall.View()))
	b.WriteString(fmt.Sprintf(" (%d/%d)\n\n", m.latest.Processed, m.latest.Total))

	if len(m.latest.Workers) > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s | %-10s | %-9s | %10s | %7s", "Worker", "Device", "State", "Processed", "Failed")))
		b.WriteString("\n")
		width := m.termWidth
		if width <= 0 || width > 60 {
			width = 60
		}
		b.WriteString(strings.Repeat("-", width))
		b.WriteString("\n")
		for _, w := range m.latest.Workers {
			style, ok := stateStyles[w.State]
			if !ok {
				style = infoStyle
			}
			b.WriteString(fmt.Sprintf("%-8d | %-10s | %s | %10d | %7d\n",
				w.ID, w.Device, style.Render(fmt.Sprintf("%-9s", w.State)), w.Processed, w.Failed))
		}
	}

	b.WriteString("\n")
	switch {
	case m.quitting:
		b.WriteString(errorStyle.Render("Detaching; workers keep running until the process exits."))
	case m.finished:
		b.WriteString(infoStyle.Render(fmt.Sprintf("Elapsed: %s", time.Since(m.startTime).Round(time.Second))))
	default:
		b.WriteString(infoStyle.Render("'q' or Ctrl+C to detach."))
	}
	b.WriteString("\n")
	return b.String()
}

// Run blocks until the final snapshot arrives or the user detaches.
func Run(snapshots <-chan pipeline.Snapshot) error {
	_, err := tea.NewProgram(NewModel(snapshots)).Run()
	return err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
