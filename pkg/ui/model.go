package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bjartek/keeper/pkg/config"
	"github.com/bjartek/keeper/pkg/logs"
	"github.com/bjartek/keeper/pkg/supervisor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the supervisor surface the UI drives.
type Controller interface {
	Start() (int, error)
	Stop() error
	Status() (supervisor.Status, error)
	Inspect() (supervisor.WorkerInfo, error)
}

type startedMsg struct {
	pid int
	err error
}

type stoppedMsg struct {
	err error
}

type statusMsg struct {
	status supervisor.Status
	err    error
}

type infoMsg struct {
	info supervisor.WorkerInfo
	err  error
}

type tickMsg time.Time

// Model represents the application state.
type Model struct {
	ctl  Controller
	keys KeyMap
	help help.Model

	spinner  spinner.Model
	logsView viewport.Model

	pollInterval time.Duration
	maxLogLines  int
	maxActivity  int

	statusKnown bool
	status      supervisor.Status
	info        *supervisor.WorkerInfo
	startedPid  int // pid from the last start made here, until info arrives
	busy        bool

	activity []Activity
	logLines []string

	showHelp bool
	width    int
	height   int
	ready    bool

	now func() time.Time
}

// NewModel creates the UI model around a supervisor.
func NewModel(ctl Controller, cfg config.UIConfig) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		ctl:          ctl,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      sp,
		logsView:     viewport.New(0, 0),
		pollInterval: cfg.PollInterval,
		maxLogLines:  cfg.MaxLogLines,
		maxActivity:  cfg.MaxActivity,
		now:          time.Now,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		statusCmd(m.ctl),
		tickCmd(m.pollInterval),
		m.spinner.Tick,
	)
}

func startCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		pid, err := ctl.Start()
		return startedMsg{pid: pid, err: err}
	}
}

func stopCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg{err: ctl.Stop()}
	}
}

func statusCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		status, err := ctl.Status()
		return statusMsg{status: status, err: err}
	}
}

func infoCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		info, err := ctl.Inspect()
		return infoMsg{info: info, err: err}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resizeLogs()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.resizeLogs()
			return m, nil

		case key.Matches(msg, m.keys.Start):
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, startCmd(m.ctl)

		case key.Matches(msg, m.keys.Stop):
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, stopCmd(m.ctl)

		case key.Matches(msg, m.keys.Refresh):
			return m, statusCmd(m.ctl)
		}

		var cmd tea.Cmd
		m.logsView, cmd = m.logsView.Update(msg)
		return m, cmd

	case startedMsg:
		m.busy = false
		if msg.err != nil {
			m.addActivity("start", false, errorText(msg.err))
		} else {
			m.addActivity("start", true, fmt.Sprintf("worker started (pid %d)", msg.pid))
			m.startedPid = msg.pid
			if m.info != nil && m.info.Pid != msg.pid {
				m.info = nil
			}
		}
		return m, statusCmd(m.ctl)

	case stoppedMsg:
		m.busy = false
		if msg.err != nil {
			m.addActivity("stop", false, errorText(msg.err))
		} else {
			m.addActivity("stop", true, "worker stopped")
		}
		return m, statusCmd(m.ctl)

	case statusMsg:
		if msg.err != nil {
			// Keep the last known state; an inconclusive poll says nothing.
			m.addActivity("status", false, errorText(msg.err))
			return m, nil
		}
		changed := !m.statusKnown || m.status != msg.status
		m.statusKnown = true
		m.status = msg.status
		if changed {
			m.addActivity("status", true, msg.status.String())
		}
		// The worker may have been replaced through the API between polls, so
		// its details are read again on every running poll.
		if msg.status == supervisor.StatusRunning {
			return m, infoCmd(m.ctl)
		}
		m.info = nil
		m.startedPid = 0
		return m, nil

	case infoMsg:
		if msg.err != nil {
			m.info = nil
			return m, nil
		}
		info := msg.info
		m.info = &info
		m.startedPid = 0
		return m, nil

	case tickMsg:
		return m, tea.Batch(statusCmd(m.ctl), tickCmd(m.pollInterval))

	case logs.LogLineMsg:
		m.appendLogLine(msg.Line)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) addActivity(op string, ok bool, text string) {
	m.activity = append(m.activity, Activity{At: m.now(), Op: op, OK: ok, Text: text})
	if len(m.activity) > m.maxActivity {
		m.activity = m.activity[len(m.activity)-m.maxActivity:]
	}
}

func (m *Model) appendLogLine(line string) {
	m.logLines = append(m.logLines, strings.TrimRight(line, "\n"))
	if len(m.logLines) > m.maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-m.maxLogLines:]
	}

	atBottom := m.logsView.AtBottom()
	m.logsView.SetContent(strings.Join(m.logLines, "\n"))
	if atBottom {
		m.logsView.GotoBottom()
	}
}

const (
	headerHeight   = 2
	workerHeight   = 8
	activityHeight = 8
)

func (m *Model) footerHeight() int {
	if m.showHelp {
		return lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp())) + 1
	}
	return 2
}

// resizeLogs gives the log viewport whatever height is left.
func (m *Model) resizeLogs() {
	h := m.height - headerHeight - workerHeight - activityHeight - m.footerHeight() - 3
	if h < 1 {
		h = 1
	}
	w := m.width - 4
	if w < 1 {
		w = 1
	}
	m.logsView.Width = w
	m.logsView.Height = h
}

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderWorker(),
		m.renderActivity(),
		m.renderLogs(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	line := StatusLine(m.statusKnown, m.status, m.pid())
	style := unknownStyle
	if m.statusKnown {
		style = stoppedStyle
		if m.status == supervisor.StatusRunning {
			style = runningStyle
		}
	}

	right := style.Render(line)
	if m.busy {
		right = m.spinner.View() + " " + right
	}

	title := titleStyle.Render("keeper")
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Width(m.width).Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) pid() int {
	if m.info != nil {
		return m.info.Pid
	}
	return m.startedPid
}

func (m Model) renderWorker() string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	command := supervisor.WorkerCommand + " " + strings.Join(supervisor.WorkerArgs, " ")
	rows := []string{panelTitleStyle.Render("Worker")}
	if m.info == nil {
		rows = append(rows,
			row("Command", command),
			dimStyle.Render("not running"),
		)
	} else {
		ports := "none"
		if len(m.info.Ports) > 0 {
			ports = strings.Join(m.info.Ports, ", ")
		}
		started := "unknown"
		if !m.info.StartedAt.IsZero() {
			started = m.info.StartedAt.Format("15:04:05")
		}
		if m.info.Command != "" {
			command = m.info.Command
		}
		rows = append(rows,
			row("Command", command),
			row("PID", fmt.Sprintf("%d", m.info.Pid)),
			row("Started", started),
			row("Memory", FormatBytes(m.info.RSSBytes)),
			row("Ports", ports),
		)
	}

	return panelStyle.Width(m.width - 2).Height(workerHeight - 2).Render(strings.Join(rows, "\n"))
}

func (m Model) renderActivity() string {
	visible := activityHeight - 3
	width := m.width - 6

	var lines []string
	for i := len(m.activity) - 1; i >= 0 && len(lines) < visible; i-- {
		a := m.activity[i]
		style := okStyle
		if !a.OK {
			style = errStyle
		}
		entry := strings.Split(FormatActivity(a, width), "\n")
		for j := len(entry) - 1; j >= 0 && len(lines) < visible; j-- {
			lines = append([]string{style.Render(entry[j])}, lines...)
		}
	}
	if len(lines) == 0 {
		lines = []string{dimStyle.Render("no activity yet")}
	}

	body := panelTitleStyle.Render("Activity") + "\n" + strings.Join(lines, "\n")
	return panelStyle.Width(m.width - 2).Height(activityHeight - 2).Render(body)
}

func (m Model) renderLogs() string {
	body := panelTitleStyle.Render("Logs") + "\n" + m.logsView.View()
	return panelStyle.Width(m.width - 2).Render(body)
}

func (m Model) renderFooter() string {
	var helpView string
	if m.showHelp {
		helpView = m.help.FullHelpView(m.keys.FullHelp())
	} else {
		helpView = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	return footerStyle.Width(m.width).Render(helpView)
}
