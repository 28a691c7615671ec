package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shazow/wifijoin/wifi"
)

type ErrorModel struct {
	err           error
	width, height int
}

func NewErrorModel(err error) *ErrorModel {
	return &ErrorModel{err: err}
}

func (m *ErrorModel) Init() tea.Cmd { return nil }

func (m *ErrorModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg:
		// Any key press dismisses the error
		return m, pop
	}
	return m, nil
}

// hint suggests a fix for errors the user can do something about.
func (m *ErrorModel) hint() string {
	switch {
	case errors.Is(m.err, wifi.ErrPermissionDenied):
		return "Try running with elevated privileges, or join the netdev group."
	case errors.Is(m.err, wifi.ErrInvalidProfile):
		return "Check the password length and the security type."
	case errors.Is(m.err, wifi.ErrEnableRejected):
		return "The network may have moved out of range. Scan and try again."
	case errors.Is(m.err, wifi.ErrNotAvailable):
		return "Is the wireless daemon running?"
	}
	return ""
}

func (m *ErrorModel) View() string {
	errorViewStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder(), true).
		BorderForeground(CurrentTheme.Error).
		Padding(1, 2)
	if m.width > 8 {
		errorViewStyle = errorViewStyle.Width(m.width - 8)
	}
	body := fmt.Sprintf("Error: %s", m.err)
	if hint := m.hint(); hint != "" {
		body += "\n\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render(hint)
	}
	return lipgloss.NewStyle().Margin(1, 2).Render(errorViewStyle.Render(body))
}

func (m *ErrorModel) Resize(width, height int) {
	m.width, m.height = width, height
}

func (m *ErrorModel) IsConsumingInput() bool {
	return false
}
