package wifi

import "context"

// NetworkID identifies a network registered with the radio. It is issued by
// the radio (a wpa_supplicant network id, a D-Bus object path, ...) and is
// opaque to everything else.
type NetworkID string

// NoNetwork means no network is enabled.
const NoNetwork NetworkID = ""

// ScanEntry is a single access point seen in a scan.
type ScanEntry struct {
	SSID string
	// Capabilities is the capability descriptor, e.g. "[WPA2-PSK-CCMP][ESS]".
	Capabilities string

	// Signal metadata, passed through untouched.
	BSSID     string
	Frequency uint // MHz
	Level     int  // dBm
}

// Strength maps the signal level to 0-100.
func (e ScanEntry) Strength() uint8 {
	if e.Level >= 0 || e.Level <= -100 {
		return 0
	}
	strength := 2 * (e.Level + 100)
	if strength > 100 {
		strength = 100
	}
	return uint8(strength)
}

// ConfiguredNetwork is a network the radio already has a profile for.
type ConfiguredNetwork struct {
	ID NetworkID
	// SSID is unquoted.
	SSID     string
	Disabled bool
	Current  bool
}

// Radio is the wireless subsystem that performs scanning, association and
// key exchange. All methods may block.
type Radio interface {
	// StartScan triggers a scan and returns without waiting for results.
	StartScan(ctx context.Context) error
	// ScanResults returns the most recent scan results.
	ScanResults(ctx context.Context) ([]ScanEntry, error)
	// ConfiguredNetworks lists registered networks. Returns
	// ErrPermissionDenied when the caller may not read them.
	ConfiguredNetworks(ctx context.Context) ([]ConfiguredNetwork, error)
	// AddNetwork registers a profile. Returns ErrInvalidProfile when the
	// radio rejects it.
	AddNetwork(ctx context.Context, profile ConnectionProfile) (NetworkID, error)
	// CurrentNetwork returns the enabled network, or NoNetwork.
	CurrentNetwork(ctx context.Context) (NetworkID, error)
	// DisableNetwork disables a registered network.
	DisableNetwork(ctx context.Context, id NetworkID) error
	// EnableNetwork enables a registered network. With persistAsDefault the
	// network is also selected as the preferred one.
	EnableNetwork(ctx context.Context, id NetworkID, persistAsDefault bool) error
	// SaveConfiguration persists the registered networks.
	SaveConfiguration(ctx context.Context) error
	// SupportsSAE reports whether the radio can negotiate WPA3-SAE.
	SupportsSAE(ctx context.Context) bool
}
