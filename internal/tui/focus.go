package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Focusable is a form element that can be managed by a FocusManager.
type Focusable interface {
	// Focus is called when the element gains focus. It can return a command.
	Focus() tea.Cmd
	// Blur is called when the element loses focus.
	Blur()
	// Update is called when the element is focused and a message is received.
	Update(msg tea.Msg) (Focusable, tea.Cmd)
	View() string
}

// FocusManager cycles focus through a list of Focusable elements.
type FocusManager struct {
	items []Focusable
	focus int
}

// NewFocusManager creates a new focus manager with the given items.
func NewFocusManager(items ...Focusable) *FocusManager {
	return &FocusManager{items: items}
}

// SetItems replaces the managed elements. Focus stays on the same element if
// it is still present, otherwise it moves to the first one.
func (m *FocusManager) SetItems(items ...Focusable) tea.Cmd {
	current := m.Focused()
	m.items = items
	for i, item := range items {
		if item == current {
			m.focus = i
			return nil
		}
	}
	return m.SetFocus(0)
}

// Items returns the managed elements in focus order.
func (m *FocusManager) Items() []Focusable {
	return m.items
}

// Update passes the message to the focused element.
func (m *FocusManager) Update(msg tea.Msg) tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	newItem, cmd := m.items[m.focus].Update(msg)
	m.items[m.focus] = newItem
	return cmd
}

// Next moves focus to the next element, wrapping around.
func (m *FocusManager) Next() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	return m.SetFocus((m.focus + 1) % len(m.items))
}

// Prev moves focus to the previous element, wrapping around.
func (m *FocusManager) Prev() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	return m.SetFocus((m.focus - 1 + len(m.items)) % len(m.items))
}

// Focused returns the currently focused element.
func (m *FocusManager) Focused() Focusable {
	if m.focus < 0 || m.focus >= len(m.items) {
		return nil
	}
	return m.items[m.focus]
}

// IsLast reports whether the last element has focus.
func (m *FocusManager) IsLast() bool {
	return m.focus == len(m.items)-1
}

// SetFocus sets the focus to the item at the given index.
func (m *FocusManager) SetFocus(index int) tea.Cmd {
	if index < 0 || index >= len(m.items) {
		return nil
	}
	for i, item := range m.items {
		if i != index {
			item.Blur()
		}
	}
	m.focus = index
	return m.items[m.focus].Focus()
}
