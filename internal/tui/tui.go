// Package tui provides a Bubble Tea terminal monitor for the dman daemon.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/dman/internal/config"
	"github.com/handiism/dman/internal/download"
	dmanhttp "github.com/handiism/dman/internal/http"
	"github.com/handiism/dman/internal/ipc"
	"github.com/handiism/dman/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500")).
			Bold(true)
)

const (
	pollInterval = 500 * time.Millisecond
	maxLogs      = 8
	maxFinished  = 10
)

// State represents the current UI state.
type State int

const (
	StateConnecting State = iota
	StateMonitoring
	StateAdding
	StateDisconnected
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Daemon is the daemon side the monitor talks to. *dmanhttp.Client
// implements the status half.
type Daemon interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	StopJob(ctx context.Context, id string) error
	Submit(ctx context.Context, urls ...string) error
}

type socketDaemon struct {
	*dmanhttp.Client
	urldrop string
}

func (d socketDaemon) Submit(ctx context.Context, urls ...string) error {
	return ipc.Submit(ctx, d.urldrop, urls...)
}

// NewDaemon connects to the sockets named by settings.
func NewDaemon(settings *config.Settings) Daemon {
	return socketDaemon{
		Client:  dmanhttp.NewClient(settings.StatusSocket()),
		urldrop: settings.UrldropSocket(),
	}
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	daemon    Daemon
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	snapshot  model.Snapshot
	logs      []LogEntry
	selected  int
	err       error

	width int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings, daemon Daemon) Model {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/file.iso"
	ti.CharLimit = 2000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	return Model{
		state:     StateConnecting,
		daemon:    daemon,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchSnapshot())
}

// Message types
type (
	// SnapshotMsg carries the result of polling the daemon.
	SnapshotMsg struct {
		Snapshot model.Snapshot
		Err      error
	}

	// ActionMsg reports the outcome of a submit or stop request.
	ActionMsg struct {
		Message string
		Err     error
	}

	// TickMsg triggers the next poll.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if m.state == StateAdding {
			return m.updateAdding(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "a":
			if m.state == StateMonitoring {
				m.state = StateAdding
				m.textInput.SetValue("")
				return m, m.textInput.Focus()
			}

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.snapshot.Running)-1 {
				m.selected++
			}

		case "s":
			if m.state == StateMonitoring && m.selected < len(m.snapshot.Running) {
				return m, m.stopJob(m.snapshot.Running[m.selected])
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SnapshotMsg:
		if msg.Err != nil {
			if m.state != StateDisconnected {
				m.addLog(fmt.Sprintf("Lost connection to daemon: %v", msg.Err), download.LevelError)
			}
			m.state = StateDisconnected
			m.err = msg.Err
		} else {
			if m.state == StateConnecting || m.state == StateDisconnected {
				m.state = StateMonitoring
				m.addLog("Connected to daemon", download.LevelSuccess)
			}
			m.err = nil
			m.snapshot = msg.Snapshot
			if m.selected >= len(m.snapshot.Running) {
				m.selected = max(len(m.snapshot.Running)-1, 0)
			}
			cmds = append(cmds, m.progress.SetPercent(completion(m.snapshot)))
		}
		cmds = append(cmds, m.tick())

	case TickMsg:
		cmds = append(cmds, m.fetchSnapshot())

	case ActionMsg:
		if msg.Err != nil {
			m.addLog(msg.Err.Error(), download.LevelError)
		} else {
			m.addLog(msg.Message, download.LevelInfo)
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.state = StateMonitoring
		m.textInput.Blur()
		return m, nil

	case "enter":
		url := strings.TrimSpace(m.textInput.Value())
		m.state = StateMonitoring
		m.textInput.Blur()
		if url == "" {
			return m, nil
		}
		return m, m.submit(url)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) addLog(message string, level download.ProgressLevel) {
	m.logs = append(m.logs, LogEntry{Message: message, Level: level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// completion is the share of known jobs that have finished.
func completion(s model.Snapshot) float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(len(s.Finished)) / float64(total)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(pollInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) fetchSnapshot() tea.Cmd {
	daemon := m.daemon
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		snap, err := daemon.Snapshot(ctx)
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

func (m Model) submit(url string) tea.Cmd {
	daemon := m.daemon
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := daemon.Submit(ctx, url); err != nil {
			return ActionMsg{Err: fmt.Errorf("submitting %s: %w", url, err)}
		}
		return ActionMsg{Message: "Submitted " + url}
	}
}

func (m Model) stopJob(job model.JobInfo) tea.Cmd {
	daemon := m.daemon
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := daemon.StopJob(ctx, job.ID); err != nil {
			return ActionMsg{Err: fmt.Errorf("stopping %s: %w", job.URL, err)}
		}
		return ActionMsg{Message: "Stopping " + job.URL}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("dman"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n\n")

	switch m.state {
	case StateConnecting:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Connecting to " + m.settings.StatusSocket()))
		b.WriteString("\n")
	case StateDisconnected:
		b.WriteString(errorStyle.Render("Daemon unreachable"))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(dimStyle.Render("  " + m.err.Error()))
			b.WriteString("\n")
		}
		b.WriteString(dimStyle.Render("  start it with: dman serve"))
		b.WriteString("\n")
	default:
		b.WriteString(m.viewJobs())
		if m.state == StateAdding {
			b.WriteString("\n")
			b.WriteString(subtitleStyle.Render("Add URL:"))
			b.WriteString("\n")
			b.WriteString(m.textInput.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewJobs() string {
	var b strings.Builder
	s := m.snapshot

	b.WriteString(m.progress.ViewAs(completion(s)))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Running: %d/%d | Pending: %d | Finished: %d (%d failed) | Backends: %s",
		len(s.Running), s.MaxConcurrent, len(s.Pending), len(s.Finished), s.Failed(), backendList(s.Backends),
	)))
	b.WriteString("\n\n")

	b.WriteString(subtitleStyle.Render("Running"))
	b.WriteString("\n")
	if len(s.Running) == 0 {
		b.WriteString(dimStyle.Render("  nothing running"))
		b.WriteString("\n")
	}
	for i, job := range s.Running {
		line := fmt.Sprintf("%s %s [%s]", m.spinner.View(), job.URL, job.Backend)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if len(s.Pending) > 0 {
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Pending"))
		b.WriteString("\n")
		for _, job := range s.Pending {
			b.WriteString(dimStyle.Render("  · " + job.URL))
			b.WriteString("\n")
		}
	}

	if len(s.Finished) > 0 {
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Finished"))
		b.WriteString("\n")
		finished := s.Finished
		if len(finished) > maxFinished {
			finished = finished[len(finished)-maxFinished:]
		}
		for _, job := range finished {
			if job.Succeeded {
				b.WriteString(successStyle.Render("  ✓ " + job.URL))
			} else {
				b.WriteString(errorStyle.Render(fmt.Sprintf("  ✗ %s: %s", job.URL, job.Error)))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func backendList(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateAdding:
		return "enter: submit • esc: cancel"
	case StateMonitoring:
		return "a: add url • ↑/↓: select • s: stop selected • q: quit"
	}
	return "q: quit"
}

// Run starts the TUI application against the daemon named by settings.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings, NewDaemon(settings)), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
