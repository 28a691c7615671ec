package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func focusedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
}

func blurredStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
}

// --- TextInput ---

// TextInput adapts a textinput.Model to Focusable.
type TextInput struct {
	textinput.Model
	label string
}

func NewTextInput(label string, charLimit int) *TextInput {
	ti := textinput.New()
	ti.CharLimit = charLimit
	ti.Width = 40
	return &TextInput{Model: ti, label: label}
}

func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

func (t *TextInput) Blur() {
	t.Model.Blur()
}

func (t *TextInput) Update(msg tea.Msg) (Focusable, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t *TextInput) View() string {
	style := blurredStyle()
	if t.Focused() {
		style = focusedStyle()
	}
	return style.Render(t.label) + "\n" + t.Model.View()
}

// --- Choice ---

// Choice is a horizontal single-select group.
type Choice struct {
	label    string
	options  []string
	selected int
	focused  bool
}

func NewChoice(label string, options []string, selected int) *Choice {
	return &Choice{
		label:    label,
		options:  options,
		selected: selected,
	}
}

func (c *Choice) Focus() tea.Cmd {
	c.focused = true
	return nil
}

func (c *Choice) Blur() {
	c.focused = false
}

func (c *Choice) Update(msg tea.Msg) (Focusable, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "right", "l", " ":
			c.selected = (c.selected + 1) % len(c.options)
		case "left", "h":
			c.selected = (c.selected - 1 + len(c.options)) % len(c.options)
		}
	}
	return c, nil
}

func (c *Choice) View() string {
	var s strings.Builder
	label := blurredStyle()
	if c.focused {
		label = focusedStyle()
	}
	s.WriteString(label.Render(c.label))
	s.WriteString("\n")
	for i, option := range c.options {
		style := lipgloss.NewStyle().Foreground(CurrentTheme.Subtle)
		marker := "( ) "
		if i == c.selected {
			style = blurredStyle()
			marker = "(•) "
			if c.focused {
				style = focusedStyle()
			}
		}
		s.WriteString(style.Render(marker + option))
		s.WriteString("  ")
	}
	return s.String()
}

func (c *Choice) Selected() int {
	return c.selected
}

// --- ButtonGroup ---

type ButtonGroup struct {
	buttons  []string
	selected int
	focused  bool
	action   func(int) tea.Cmd
}

func NewButtonGroup(buttons []string, action func(int) tea.Cmd) *ButtonGroup {
	return &ButtonGroup{
		buttons: buttons,
		action:  action,
	}
}

func (b *ButtonGroup) Focus() tea.Cmd {
	b.focused = true
	return nil
}

func (b *ButtonGroup) Blur() {
	b.focused = false
}

func (b *ButtonGroup) Update(msg tea.Msg) (Focusable, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "right", "l":
			b.selected = (b.selected + 1) % len(b.buttons)
		case "left", "h":
			b.selected = (b.selected - 1 + len(b.buttons)) % len(b.buttons)
		case "enter", " ":
			if b.action != nil {
				return b, b.action(b.selected)
			}
		}
	}
	return b, nil
}

func (b *ButtonGroup) View() string {
	var s strings.Builder
	for i, label := range b.buttons {
		style := blurredStyle()
		if b.focused && i == b.selected {
			style = focusedStyle()
		}
		s.WriteString(style.Render("[ " + label + " ]"))
		s.WriteString("  ")
	}
	return s.String()
}
