package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shazow/wifijoin/qrwifi"
)

// QRModel shows a scannable code for sharing a network.
type QRModel struct {
	ssid    string
	content string
	code    string
	err     error
}

func NewQRModel(ssid, content string) *QRModel {
	m := &QRModel{ssid: ssid, content: content}
	m.code, m.err = qrwifi.Terminal(content, !lipgloss.HasDarkBackground())
	return m
}

func (m *QRModel) Init() tea.Cmd { return nil }

func (m *QRModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg:
		return m, pop
	}
	return m, nil
}

func (m *QRModel) View() string {
	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render(fmt.Sprintf("Scan to join %q", m.ssid)))
	s.WriteString("\n\n")
	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()))
	} else {
		s.WriteString(m.code)
	}
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render("Press any key to return"))
	return lipgloss.NewStyle().Margin(1, 2).Render(s.String())
}

func (m *QRModel) Resize(width, height int) {}

func (m *QRModel) IsConsumingInput() bool { return false }
