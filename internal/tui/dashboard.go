// Package tui renders live batch progress in the terminal and provides the
// plain-text fallback for non-interactive runs.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mmcli/internal/batch"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

// recentEvents bounds the scrolling item log under the progress bar.
const recentEvents = 6

type batchStartedMsg struct {
	batchID string
	total   int
}

type itemStartedMsg struct {
	id   int
	name string
}

type itemFinishedMsg struct {
	id      int
	name    string
	outcome batch.Outcome
}

type batchFinishedMsg struct {
	report batch.Report
}

type model struct {
	title string

	spin spinner.Model
	bar  progress.Model

	total    int
	done     int
	active   map[int]string
	recent   []string
	report   *batch.Report
	finished bool
}

func newModel(title string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle
	return model{
		title:  title,
		spin:   sp,
		bar:    progress.New(progress.WithDefaultGradient()),
		active: make(map[int]string),
	}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case batchStartedMsg:
		m.total = msg.total
		return m, nil

	case itemStartedMsg:
		m.active[msg.id] = msg.name
		return m, nil

	case itemFinishedMsg:
		delete(m.active, msg.id)
		m.done++
		m.recent = append(m.recent, eventLine(msg.name, msg.outcome))
		if len(m.recent) > recentEvents {
			m.recent = m.recent[len(m.recent)-recentEvents:]
		}
		if m.total > 0 {
			return m, m.bar.SetPercent(float64(m.done) / float64(m.total))
		}
		return m, nil

	case batchFinishedMsg:
		report := msg.report
		m.report = &report
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	if m.finished && m.report != nil {
		b.WriteString(summaryStyle.Render(Summary(*m.report)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spin.View())
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString(countStyle.Render(fmt.Sprintf("  %d/%d", m.done, m.total)))
	b.WriteString("\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n")

	for _, line := range m.recent {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, name := range sortedActive(m.active) {
		b.WriteString(countStyle.Render("  … " + name))
		b.WriteString("\n")
	}
	return b.String()
}

func sortedActive(active map[int]string) []string {
	ids := make([]int, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, active[id])
	}
	return out
}

func eventLine(name string, out batch.Outcome) string {
	switch out.Status {
	case batch.StatusSuccess:
		return okStyle.Render("  ✓ ") + name + " " + pathStyle.Render(out.OutputPath)
	case batch.StatusSkipped:
		return skipStyle.Render("  - ") + name + skipStyle.Render(" skipped")
	default:
		return failStyle.Render("  ✗ ") + name + failStyle.Render(fmt.Sprintf(" %s: %s", out.ErrKind, out.ErrMessage))
	}
}

// Summary formats the one-line batch result shared by the dashboard and the
// plain printer.
func Summary(r batch.Report) string {
	return fmt.Sprintf("done: %d succeeded, %d failed, %d skipped of %d (%.1fs)",
		r.Succeeded, r.Failed, r.Skipped, r.Total, r.Elapsed.Seconds())
}

// Dashboard is a live terminal view of one running batch. It implements the
// batch observer interface by forwarding events into the running program.
type Dashboard struct {
	prog *tea.Program
	done chan struct{}
	err  error
}

func NewDashboard(title string) *Dashboard {
	return &Dashboard{
		prog: tea.NewProgram(newModel(title)),
		done: make(chan struct{}),
	}
}

// Start launches the render loop. Call before the batch begins so no event is
// dropped.
func (d *Dashboard) Start() {
	go func() {
		_, err := d.prog.Run()
		d.err = err
		close(d.done)
	}()
}

// Wait blocks until the program exits, normally right after the batch
// finished event.
func (d *Dashboard) Wait() error {
	<-d.done
	return d.err
}

// Quit tears the program down early, for batches that fail validation before
// any event fires.
func (d *Dashboard) Quit() {
	d.prog.Quit()
	<-d.done
}

func (d *Dashboard) BatchStarted(batchID string, total int) {
	d.prog.Send(batchStartedMsg{batchID: batchID, total: total})
}

func (d *Dashboard) ItemStarted(item *batch.WorkItem) {
	d.prog.Send(itemStartedMsg{id: item.ID, name: item.Name})
}

func (d *Dashboard) ItemFinished(item *batch.WorkItem, out batch.Outcome) {
	d.prog.Send(itemFinishedMsg{id: item.ID, name: item.Name, outcome: out})
}

func (d *Dashboard) BatchFinished(report batch.Report) {
	d.prog.Send(batchFinishedMsg{report: report})
}
