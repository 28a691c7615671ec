package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	wifilog "github.com/shazow/wifijoin/internal/log"
)

// LogViewModel shows the most recent log records.
type LogViewModel struct {
	logs func() []slog.Record
}

// NewLogViewModel creates a LogViewModel over the default log buffer.
func NewLogViewModel() *LogViewModel {
	return &LogViewModel{logs: wifilog.Logs}
}

func (m *LogViewModel) Init() tea.Cmd {
	return nil
}

func (m *LogViewModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "L":
			return m, pop
		}
	}
	return m, nil
}

func (m *LogViewModel) View() string {
	var s strings.Builder
	s.WriteString("Latest logs (press 'q' to return):\n\n")

	logs := m.logs()
	if len(logs) == 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render("Nothing logged yet."))
	}
	for _, r := range logs {
		var style lipgloss.Style
		switch {
		case r.Level >= slog.LevelError:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Error)
		case r.Level >= slog.LevelWarn:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
		default:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
		}
		s.WriteString(style.Render(fmt.Sprintf("%s [%s] %s", r.Time.Format("15:04:05"), r.Level, r.Message)))
		r.Attrs(func(a slog.Attr) bool {
			s.WriteString(style.Render(fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())))
			return true
		})
		s.WriteString("\n")
	}

	return lipgloss.NewStyle().Margin(1, 2).Render(s.String())
}

func (m *LogViewModel) Resize(width, height int) {}

func (m *LogViewModel) IsConsumingInput() bool { return false }
