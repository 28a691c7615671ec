package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shazow/wifijoin/wifi"
)

// networkItem is a single row of the network list.
type networkItem struct {
	wifi.ScanEntry
	Security wifi.SecurityProfile
	Known    bool
	Visible  bool
	Active   bool
}

func (i networkItem) Title() string { return i.SSID }
func (i networkItem) Description() string {
	if !i.Visible {
		return "out of range"
	}
	band := "2.4G"
	if i.Frequency >= 5000 {
		band = "5G"
	}
	return fmt.Sprintf("%3d%% %s", i.Strength(), band)
}
func (i networkItem) FilterValue() string { return i.Title() }

// buildItems orders known networks in range first, then known networks out
// of range, then everything else nearby. Hidden networks are left out; they
// are joined by name.
func buildItems(msg catalogLoadedMsg, platform wifi.Platform) []list.Item {
	var items []list.Item
	inRange := map[string]bool{}
	for _, e := range msg.catalog.Known {
		inRange[e.SSID] = true
		items = append(items, networkItem{
			ScanEntry: e,
			Security:  platform.Classify(e.Capabilities),
			Known:     true,
			Visible:   true,
			Active:    msg.status.ID != wifi.NoNetwork && msg.status.SSID == e.SSID,
		})
	}
	for _, c := range msg.configured {
		if c.SSID == "" || inRange[c.SSID] {
			continue
		}
		inRange[c.SSID] = true
		items = append(items, networkItem{
			ScanEntry: wifi.ScanEntry{SSID: c.SSID},
			Known:     true,
			Active:    msg.status.ID != wifi.NoNetwork && msg.status.ID == c.ID,
		})
	}
	for _, e := range msg.catalog.Nearby {
		if e.SSID == "" {
			continue
		}
		items = append(items, networkItem{
			ScanEntry: e,
			Security:  platform.Classify(e.Capabilities),
			Visible:   true,
		})
	}
	return items
}

// itemDelegate renders a network on a single line.
type itemDelegate struct {
	list.DefaultDelegate
}

func newItemDelegate() itemDelegate {
	d := itemDelegate{DefaultDelegate: list.NewDefaultDelegate()}
	d.ShowDescription = false
	d.SetSpacing(0)
	d.SetHeight(1)
	return d
}

const ssidColumnWidth = 30

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(networkItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, listItem)
		return
	}

	icon := "   "
	if i.Visible {
		if i.Security == wifi.SecurityOpen {
			icon = "🔓 "
		} else {
			icon = "🔒 "
		}
	}

	title := []rune(i.Title())
	if len(title) > ssidColumnWidth {
		title = append(title[:ssidColumnWidth-1], '…')
	}
	padding := strings.Repeat(" ", ssidColumnWidth-len(title))

	var titleStyle lipgloss.Style
	switch {
	case !i.Visible:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Disabled)
	case i.Active:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Success).Bold(true)
	case i.Known:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Success)
	default:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
	}

	var desc string
	if i.Visible {
		desc = lipgloss.NewStyle().Foreground(CurrentTheme.SignalColor(i.Strength())).Render(i.Description())
		desc += lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render(" " + i.Security.Label())
	} else {
		desc = lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render(i.Description())
	}
	if i.Active {
		desc += " (Connected)"
	}

	line := icon + titleStyle.Render(string(title)) + padding + " " + desc
	lineStyle := lipgloss.NewStyle().PaddingLeft(1)
	if index == m.Index() {
		lineStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(CurrentTheme.Primary)
	}
	fmt.Fprint(w, lineStyle.Render(line))
}

type ListModel struct {
	list     list.Model
	platform wifi.Platform
	loaded   bool
}

func NewListModel(platform wifi.Platform) *ListModel {
	l := list.New([]list.Item{}, newItemDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%-33s %s", "WiFi Network", "Signal")
	l.SetShowStatusBar(false)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
			key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "hidden network")),
		}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle auto-scan")),
			key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
			key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logs")),
		}
	}
	l.KeyMap.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
	l.Styles.FilterPrompt = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
	l.Styles.FilterCursor = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)

	return &ListModel{
		list:     l,
		platform: platform,
	}
}

func (m *ListModel) Init() tea.Cmd {
	return nil
}

func (m *ListModel) Resize(width, height int) {
	h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
	listBorderStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true)
	bh, bv := listBorderStyle.GetFrameSize()
	extraVerticalSpace := 4
	m.list.SetSize(width-h-bh, height-v-bv-extraVerticalSpace)
}

func (m *ListModel) IsConsumingInput() bool {
	return m.list.FilterState() == list.Filtering
}

// Selected returns the highlighted network.
func (m *ListModel) Selected() (networkItem, bool) {
	item, ok := m.list.SelectedItem().(networkItem)
	return item, ok
}

// connect picks the flow for the selected network: known networks are
// activated, open ones joined directly, anything else asks for a password.
func (m *ListModel) connect(item networkItem) tea.Cmd {
	if item.Known {
		return func() tea.Msg { return connectMsg{item: item} }
	}
	if item.Security != wifi.SecurityOpen {
		return push(NewJoinModel(m.platform, &item))
	}
	req := wifi.ConnectRequest{SSID: item.SSID, Capabilities: item.Capabilities}
	return func() tea.Msg { return joinNetworkMsg{req: req} }
}

func (m *ListModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case catalogLoadedMsg:
		m.loaded = true
		cmds = append(cmds, m.list.SetItems(buildItems(msg, m.platform)))
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.IsConsumingInput() {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "s":
			return m, func() tea.Msg { return scanMsg{} }
		case "r":
			return m, func() tea.Msg { return refreshMsg{} }
		case "a":
			return m, func() tea.Msg { return toggleScanMsg{} }
		case "n":
			return m, push(NewJoinModel(m.platform, nil))
		case "L":
			return m, push(NewLogViewModel())
		case "enter", "c":
			if item, ok := m.Selected(); ok {
				return m, m.connect(item)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ListModel) View() string {
	var viewBuilder strings.Builder
	listBorderStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(CurrentTheme.Border)
	viewBuilder.WriteString(listBorderStyle.Render(m.list.View()))

	// Custom status bar
	statusText := ""
	switch {
	case len(m.list.Items()) > 0:
		statusText = fmt.Sprintf("%d/%d", m.list.Index()+1, len(m.list.Items()))
	case m.loaded:
		statusText = "No networks found. Press s to scan."
	}
	viewBuilder.WriteString("\n")
	viewBuilder.WriteString(statusText)
	return lipgloss.NewStyle().Margin(1, 2).Render(viewBuilder.String())
}
