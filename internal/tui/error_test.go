package tui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/shazow/wifijoin/wifi"
)

func TestErrorModelHint(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{fmt.Errorf("scan: %w", wifi.ErrPermissionDenied), "elevated privileges"},
		{&wifi.ConnectError{SSID: "cafe", Reason: wifi.ReasonInvalidProfile}, "password length"},
		{fmt.Errorf("boom"), ""},
	}
	for _, tt := range tests {
		m := NewErrorModel(tt.err)
		if tt.hint == "" {
			assert.Empty(t, m.hint())
			continue
		}
		assert.Contains(t, m.hint(), tt.hint)
	}
}

func TestErrorModelDismiss(t *testing.T) {
	m := NewErrorModel(fmt.Errorf("boom"))
	m.Resize(80, 20)
	assert.Contains(t, m.View(), "boom")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.IsType(t, popViewMsg{}, cmd())
}
