package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shazow/wifijoin/wifi"
)

// Component is the interface for a TUI component.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Component, tea.Cmd)
	View() string
	Resize(width, height int)
	// IsConsumingInput reports whether key presses go to a text field, so
	// global shortcuts should be ignored.
	IsConsumingInput() bool
}

// Leavable is implemented by components that need to act when they are
// removed from the stack.
type Leavable interface {
	OnLeave() tea.Cmd
}

// Bubbletea messages are used to communicate between the main loop and commands
type (
	// Stack navigation
	popViewMsg  struct{}
	pushViewMsg struct{ c Component }

	// From the service
	catalogLoadedMsg struct {
		catalog    wifi.Catalog
		configured []wifi.ConfiguredNetwork
		status     wifi.Status
		scanned    bool
	}
	connectResultMsg struct{ result wifi.ConnectResult }
	errorMsg         struct{ err error }

	// To the main model
	scanMsg        struct{}
	refreshMsg     struct{}
	toggleScanMsg  struct{}
	connectMsg     struct{ item networkItem }
	joinNetworkMsg struct{ req wifi.ConnectRequest }
)

func push(c Component) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{c} }
}

func pop() tea.Msg { return popViewMsg{} }

// --- Commands that interact with the service ---

func loadCatalog(svc *wifi.Service, scanned bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		catalog, err := svc.Catalog(ctx, true)
		if err != nil {
			return errorMsg{err}
		}
		configured, err := svc.ConfiguredNetworks(ctx)
		if err != nil {
			return errorMsg{err}
		}
		// The list is still useful without the current network.
		status, _ := svc.Status(ctx)
		wifi.SortEntries(catalog.Known)
		wifi.SortEntries(catalog.Nearby)
		return catalogLoadedMsg{
			catalog:    catalog,
			configured: configured,
			status:     status,
			scanned:    scanned,
		}
	}
}

func refreshNetworks(svc *wifi.Service) tea.Cmd {
	return loadCatalog(svc, false)
}

func scanNetworks(svc *wifi.Service) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Scan(context.Background()); err != nil {
			return errorMsg{err}
		}
		return loadCatalog(svc, true)()
	}
}

func connectKnown(svc *wifi.Service, ssid string) tea.Cmd {
	return func() tea.Msg {
		return connectResultMsg{svc.ConnectKnown(context.Background(), ssid)}
	}
}

func joinNetwork(svc *wifi.Service, req wifi.ConnectRequest) tea.Cmd {
	return func() tea.Msg {
		return connectResultMsg{svc.Join(context.Background(), req)}
	}
}

// resultError turns a failed ConnectResult into an error for the error view.
func resultError(r wifi.ConnectResult) error {
	if r.Message == "" {
		return fmt.Errorf("connection failed: %w", wifi.ErrOperationFailed)
	}
	return errors.New(r.Message)
}
