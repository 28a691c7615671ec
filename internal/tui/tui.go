package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	wifilog "github.com/shazow/wifijoin/internal/log"
	"github.com/shazow/wifijoin/wifi"
)

// Options configures the TUI.
type Options struct {
	// AutoScan starts with the scan schedule enabled.
	AutoScan bool
	// ScanInterval is the time between scheduled scans.
	ScanInterval time.Duration
}

// The main model for our TUI application
type model struct {
	stack    *ComponentStack
	list     *ListModel
	service  *wifi.Service
	schedule *ScanSchedule
	autoScan bool

	spinner       spinner.Model
	loading       bool
	statusMessage string
}

// NewModel creates the starting state of our application
func NewModel(svc *wifi.Service, opts Options) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)

	listModel := NewListModel(svc.Platform())
	return &model{
		stack:         NewComponentStack(listModel),
		list:          listModel,
		service:       svc,
		schedule:      NewScanSchedule(scanNetworks(svc), opts.ScanInterval),
		autoScan:      opts.AutoScan,
		spinner:       s,
		loading:       true,
		statusMessage: "Loading networks...",
	}
}

// Init is the first command that is run when the program starts
func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.stack.Top().Init(), refreshNetworks(m.service)}
	if m.autoScan {
		cmds = append(cmds, m.schedule.SetSchedule(m.schedule.every))
	}
	return tea.Batch(cmds...)
}

func (m *model) setLoading(format string, args ...any) {
	m.loading = true
	m.statusMessage = fmt.Sprintf(format, args...)
}

func (m *model) setStatus(status string) {
	m.loading = false
	m.statusMessage = status
}

// Update handles all incoming messages and updates the model accordingly
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Global messages that are not passed to components
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.stack.Resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case popViewMsg:
		return m, m.stack.Pop()
	case pushViewMsg:
		return m, m.stack.Push(msg.c)
	case errorMsg:
		m.setStatus("")
		return m, m.stack.Push(NewErrorModel(msg.err))
	case scanMsg:
		m.setLoading("Scanning for networks...")
		return m, scanNetworks(m.service)
	case refreshMsg:
		m.setLoading("Refreshing...")
		return m, refreshNetworks(m.service)
	case scanTickMsg:
		return m, m.schedule.Update(msg)
	case toggleScanMsg:
		enabled, cmd := m.schedule.Toggle()
		if enabled {
			m.setStatus(fmt.Sprintf("Auto-scan every %s.", m.schedule.interval))
		} else {
			m.setStatus("Auto-scan off.")
		}
		return m, cmd
	case catalogLoadedMsg:
		// The list may be underneath another view, so it is updated directly.
		if m.loading {
			status := ""
			if msg.scanned {
				status = "Scan finished."
			}
			m.setStatus(status)
		}
		_, cmd := m.list.Update(msg)
		return m, cmd
	case connectMsg:
		m.setLoading("Connecting to '%s'...", msg.item.SSID)
		return m, connectKnown(m.service, msg.item.SSID)
	case joinNetworkMsg:
		var popCmd tea.Cmd
		if _, ok := m.stack.Top().(*JoinModel); ok {
			popCmd = m.stack.Pop()
		}
		m.setLoading("Joining '%s'...", msg.req.SSID)
		return m, tea.Batch(popCmd, joinNetwork(m.service, msg.req))
	case connectResultMsg:
		if !msg.result.Success {
			m.setStatus("")
			return m, m.stack.Push(NewErrorModel(resultError(msg.result)))
		}
		m.setStatus(capitalize(msg.result.Message) + ".")
		return m, refreshNetworks(m.service)
	case wifilog.LogMsg:
		if !m.loading && msg.Level >= slog.LevelWarn {
			m.statusMessage = msg.Message
		}
		return m, nil
	}

	// Delegate to the component on the stack
	cmds = append(cmds, m.stack.Update(msg))

	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)
	cmds = append(cmds, spinnerCmd)

	return m, tea.Batch(cmds...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// View renders the UI based on the current model state
func (m *model) View() string {
	var s strings.Builder
	s.WriteString(m.stack.View())

	style := lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
	if m.loading {
		s.WriteString(fmt.Sprintf("\n\n%s %s", m.spinner.View(), style.Render(m.statusMessage)))
	} else if m.statusMessage != "" {
		s.WriteString(fmt.Sprintf("\n\n%s", style.Render(m.statusMessage)))
	}

	return s.String()
}

// Run starts the TUI and blocks until it exits. Log records are forwarded to
// the program while it runs.
func Run(svc *wifi.Service, opts Options) error {
	p := tea.NewProgram(NewModel(svc, opts), tea.WithAltScreen())

	logs := make(chan tea.Msg, 16)
	wifilog.SetOutput(logs)
	defer wifilog.SetOutput(nil)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case msg := <-logs:
				p.Send(msg)
			case <-done:
				return
			}
		}
	}()

	_, err := p.Run()
	return err
}
