package mock

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shazow/wifijoin/wifi"
)

var DefaultActionSleep = 500 * time.Millisecond

// Call is a single recorded Radio call.
type Call struct {
	Op string
	ID wifi.NetworkID
}

type mockNetwork struct {
	wifi.ConfiguredNetwork
	Profile wifi.ConnectionProfile
}

// MockRadio is an in-memory wifi.Radio for tests and demos.
type MockRadio struct {
	mu sync.Mutex

	Visible  []wifi.ScanEntry
	Networks []mockNetwork
	Current  wifi.NetworkID
	SAE      bool

	StartScanError    error
	ScanResultsError  error
	ConfiguredError   error
	AddNetworkError   error
	CurrentError      error
	DisableError      error
	EnableError       error
	SaveError         error
	// RejectEnable lists network ids EnableNetwork refuses.
	RejectEnable map[wifi.NetworkID]bool

	Calls []Call
	nextID int

	// ActionSleep is a delay before every action, to better emulate a real-world radio for the frontend. Set to 0 during testing.
	ActionSleep time.Duration
}

// New creates a MockRadio with a list of fun wifi networks.
func New() (*MockRadio, error) {
	m := &MockRadio{
		Visible: []wifi.ScanEntry{
			{SSID: "HideYoKidsHideYoWiFi", Capabilities: "[WPA2-PSK-CCMP][ESS]", BSSID: "00:11:22:33:44:01", Frequency: 2412, Level: -48},
			{SSID: "NeverGonnaGiveYouIP", Capabilities: "[WEP][ESS]", BSSID: "00:11:22:33:44:02", Frequency: 2437, Level: -71},
			{SSID: "Unencrypted_Honeypot", Capabilities: "[ESS]", BSSID: "00:11:22:33:44:03", Frequency: 2462, Level: -66},
			{SSID: "Dunder MiffLAN", Capabilities: "[WPA-PSK-TKIP][WPA2-PSK-CCMP+TKIP][ESS]", BSSID: "00:11:22:33:44:04", Frequency: 5180, Level: -58},
			{SSID: "Police Surveillance 2", Capabilities: "[WPA2-PSK+SAE-CCMP][ESS]", BSSID: "00:11:22:33:44:05", Frequency: 5240, Level: -74},
			{SSID: "TacoBoutAGoodSignal", Capabilities: "[WPA2-SAE-CCMP][ESS][MFPR]", BSSID: "00:11:22:33:44:06", Frequency: 5745, Level: -39},
			{SSID: "Password is password", Capabilities: "[WPA2-PSK-CCMP][ESS]", BSSID: "00:11:22:33:44:07", Frequency: 2412, Level: -55},
			{SSID: "Multi-AP Network", Capabilities: "[WPA2-PSK-CCMP][ESS]", BSSID: "00:11:22:33:44:55", Frequency: 2412, Level: -60},
			{SSID: "Multi-AP Network", Capabilities: "[WPA2-PSK-CCMP][ESS]", BSSID: "AA:BB:CC:DD:EE:FF", Frequency: 5180, Level: -45},
			{SSID: "Corporate Lobby", Capabilities: "[WPA2-EAP-CCMP][ESS]", BSSID: "00:11:22:33:44:08", Frequency: 5200, Level: -81},
		},
		SAE:         true,
		ActionSleep: DefaultActionSleep,
	}
	for _, ssid := range []string{"Password is password", "GET off my LAN"} {
		profile := wifi.Platform{}.ProfileFor(ssid, "password", false, wifi.SecurityWPAPSK)
		m.register(profile)
	}
	return m, nil
}

func (m *MockRadio) sleep() {
	time.Sleep(m.ActionSleep)
}

func (m *MockRadio) record(op string, id wifi.NetworkID) {
	m.Calls = append(m.Calls, Call{Op: op, ID: id})
}

// CallsTo returns the recorded calls for op.
func (m *MockRadio) CallsTo(op string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []Call
	for _, c := range m.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

func (m *MockRadio) register(profile wifi.ConnectionProfile) wifi.NetworkID {
	id := wifi.NetworkID(strconv.Itoa(m.nextID))
	m.nextID++
	m.Networks = append(m.Networks, mockNetwork{
		ConfiguredNetwork: wifi.ConfiguredNetwork{ID: id, SSID: profile.Name(), Disabled: true},
		Profile:           profile,
	})
	return id
}

func (m *MockRadio) find(id wifi.NetworkID) *mockNetwork {
	for i := range m.Networks {
		if m.Networks[i].ID == id {
			return &m.Networks[i]
		}
	}
	return nil
}

// Profile returns the profile registered under id.
func (m *MockRadio) Profile(id wifi.NetworkID) (wifi.ConnectionProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.find(id)
	if n == nil {
		return wifi.ConnectionProfile{}, false
	}
	return n.Profile, true
}

func (m *MockRadio) StartScan(ctx context.Context) error {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("StartScan", "")
	return m.StartScanError
}

func (m *MockRadio) ScanResults(ctx context.Context) ([]wifi.ScanEntry, error) {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ScanResults", "")
	if m.ScanResultsError != nil {
		return nil, m.ScanResultsError
	}
	return append([]wifi.ScanEntry(nil), m.Visible...), nil
}

func (m *MockRadio) ConfiguredNetworks(ctx context.Context) ([]wifi.ConfiguredNetwork, error) {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ConfiguredNetworks", "")
	if m.ConfiguredError != nil {
		return nil, m.ConfiguredError
	}
	networks := make([]wifi.ConfiguredNetwork, 0, len(m.Networks))
	for _, n := range m.Networks {
		c := n.ConfiguredNetwork
		c.Current = c.ID == m.Current
		networks = append(networks, c)
	}
	return networks, nil
}

func (m *MockRadio) AddNetwork(ctx context.Context, profile wifi.ConnectionProfile) (wifi.NetworkID, error) {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddNetwork", "")
	if m.AddNetworkError != nil {
		return wifi.NoNetwork, m.AddNetworkError
	}
	if profile.SSID == "" || profile.SSID == `""` {
		return wifi.NoNetwork, fmt.Errorf("empty ssid: %w", wifi.ErrInvalidProfile)
	}
	return m.register(profile), nil
}

func (m *MockRadio) CurrentNetwork(ctx context.Context) (wifi.NetworkID, error) {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CurrentNetwork", "")
	if m.CurrentError != nil {
		return wifi.NoNetwork, m.CurrentError
	}
	return m.Current, nil
}

func (m *MockRadio) DisableNetwork(ctx context.Context, id wifi.NetworkID) error {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DisableNetwork", id)
	if m.DisableError != nil {
		return m.DisableError
	}
	n := m.find(id)
	if n == nil {
		return fmt.Errorf("network %s: %w", id, wifi.ErrNotFound)
	}
	n.Disabled = true
	if m.Current == id {
		m.Current = wifi.NoNetwork
	}
	return nil
}

func (m *MockRadio) EnableNetwork(ctx context.Context, id wifi.NetworkID, persistAsDefault bool) error {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("EnableNetwork", id)
	if m.EnableError != nil {
		return m.EnableError
	}
	if m.RejectEnable[id] {
		return fmt.Errorf("network %s: %w", id, wifi.ErrEnableRejected)
	}
	n := m.find(id)
	if n == nil {
		return fmt.Errorf("network %s: %w", id, wifi.ErrNotFound)
	}
	n.Disabled = false
	m.Current = id
	return nil
}

func (m *MockRadio) SaveConfiguration(ctx context.Context) error {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SaveConfiguration", "")
	return m.SaveError
}

func (m *MockRadio) SupportsSAE(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SAE
}
