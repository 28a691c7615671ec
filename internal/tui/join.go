package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shazow/wifijoin/qrwifi"
	"github.com/shazow/wifijoin/wifi"
)

// securityChoices are offered for hidden networks, whose security can't be
// read from a scan.
var securityChoices = []wifi.SecurityProfile{
	wifi.SecurityWPAPSK,
	wifi.SecurityWPA3SAE,
	wifi.SecurityWEP,
	wifi.SecurityOpen,
}

var (
	errEmptySSID     = errors.New("network name is required")
	errEmptyPassword = errors.New("password is required")
	errPSKLength     = errors.New("WPA passwords are 8 to 63 characters")
	errWEPLength     = errors.New("WEP keys are 5 or 13 characters")
)

// validatePassword catches passwords the radio would reject anyway.
func validatePassword(security wifi.SecurityProfile, password string) error {
	switch security {
	case wifi.SecurityOpen:
		return nil
	case wifi.SecurityWPAPSK:
		// Keys are sent quoted, as passphrases, so raw hex keys do not fit.
		if n := len(password); n < 8 || n > 63 {
			return errPSKLength
		}
	case wifi.SecurityWEP:
		if n := len(password); n != 5 && n != 13 {
			return errWEPLength
		}
	default:
		if password == "" {
			return errEmptyPassword
		}
	}
	return nil
}

// JoinModel asks for the details needed to join a network: just the password
// for a network from the scan, or name, security and password for a hidden
// one.
type JoinModel struct {
	platform wifi.Platform
	item     networkItem
	hidden   bool

	focusManager *FocusManager
	ssidInput    *TextInput
	security     *Choice
	password     *TextInput
	buttons      *ButtonGroup

	revealed bool
	err      error
	width    int
}

// NewJoinModel creates a join form. A nil item is a hidden network.
func NewJoinModel(platform wifi.Platform, item *networkItem) *JoinModel {
	m := &JoinModel{platform: platform}
	if item == nil {
		m.hidden = true
	} else {
		m.item = *item
	}

	m.ssidInput = NewTextInput("Network name:", 32)
	m.ssidInput.Placeholder = "SSID"

	labels := make([]string, len(securityChoices))
	for i, s := range securityChoices {
		labels[i] = s.Label()
	}
	m.security = NewChoice("Security:", labels, 0)

	m.password = NewTextInput("Password:", 64)
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'

	m.buttons = NewButtonGroup([]string{"Join", "Cancel"}, func(i int) tea.Cmd {
		if i == 0 {
			return m.submit()
		}
		return pop
	})

	m.focusManager = NewFocusManager()
	m.focusManager.SetItems(m.fields()...)
	return m
}

// fields lists the visible form elements in focus order.
func (m *JoinModel) fields() []Focusable {
	var items []Focusable
	if m.hidden {
		items = append(items, m.ssidInput, m.security)
	}
	if m.Security() != wifi.SecurityOpen {
		items = append(items, m.password)
	}
	return append(items, m.buttons)
}

// SSID returns the name of the network being joined.
func (m *JoinModel) SSID() string {
	if m.hidden {
		return m.ssidInput.Value()
	}
	return m.item.SSID
}

// Security returns the selected security method.
func (m *JoinModel) Security() wifi.SecurityProfile {
	if m.hidden {
		return securityChoices[m.security.Selected()]
	}
	return m.item.Security
}

// Request builds the connect request for the current form values.
func (m *JoinModel) Request() wifi.ConnectRequest {
	req := wifi.ConnectRequest{
		SSID:     m.SSID(),
		Password: m.password.Value(),
		Hidden:   m.hidden,
	}
	if m.hidden {
		security := m.Security()
		req.Capabilities = wifi.DescriptorFor(security)
		req.Security = &security
	} else {
		req.Capabilities = m.item.Capabilities
	}
	if m.Security() == wifi.SecurityOpen {
		req.Password = ""
	}
	return req
}

func (m *JoinModel) validate() error {
	if strings.TrimSpace(m.SSID()) == "" {
		return errEmptySSID
	}
	return validatePassword(m.Security(), m.password.Value())
}

func (m *JoinModel) submit() tea.Cmd {
	if err := m.validate(); err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	req := m.Request()
	return func() tea.Msg { return joinNetworkMsg{req: req} }
}

func (m *JoinModel) shareCode() tea.Cmd {
	if m.SSID() == "" {
		return nil
	}
	content := qrwifi.ShareString(m.SSID(), m.password.Value(), m.Security(), m.hidden)
	return push(NewQRModel(m.SSID(), content))
}

func (m *JoinModel) Init() tea.Cmd {
	return m.focusManager.SetFocus(0)
}

func (m *JoinModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.focusManager.Update(msg)
	}

	switch keyMsg.String() {
	case "esc":
		return m, pop
	case "tab", "down":
		return m, m.focusManager.Next()
	case "shift+tab", "up":
		return m, m.focusManager.Prev()
	case "ctrl+r":
		m.revealed = !m.revealed
		if m.revealed {
			m.password.EchoMode = textinput.EchoNormal
		} else {
			m.password.EchoMode = textinput.EchoPassword
		}
		return m, nil
	case "ctrl+s":
		return m, m.shareCode()
	case "enter":
		if _, ok := m.focusManager.Focused().(*ButtonGroup); !ok {
			// Enter in a field submits the form.
			return m, m.submit()
		}
	}

	before := m.Security()
	cmd := m.focusManager.Update(msg)
	if m.Security() != before {
		// The password field comes and goes with the security choice.
		m.focusManager.SetItems(m.fields()...)
	}
	return m, cmd
}

func (m *JoinModel) View() string {
	var s strings.Builder
	title := fmt.Sprintf("Join %q", m.SSID())
	if m.hidden {
		title = "Join a hidden network"
	}
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render(title))
	s.WriteString("\n")
	if !m.hidden {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render(m.Security().Label() + " " + m.item.Capabilities))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	for _, f := range m.focusManager.Items() {
		s.WriteString(f.View())
		s.WriteString("\n\n")
	}

	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()))
		s.WriteString("\n\n")
	}

	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render("tab: next • ctrl+r: reveal • ctrl+s: share • esc: back"))

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true).
		BorderForeground(CurrentTheme.Border).
		Padding(1, 2)
	return lipgloss.NewStyle().Margin(1, 2).Render(style.Render(s.String()))
}

func (m *JoinModel) Resize(width, height int) {
	m.width = width
	w := width - 16
	if w > 64 {
		w = 64
	}
	if w > 10 {
		m.ssidInput.Width = w
		m.password.Width = w
	}
}

func (m *JoinModel) IsConsumingInput() bool {
	switch m.focusManager.Focused().(type) {
	case *TextInput:
		return true
	}
	return false
}
