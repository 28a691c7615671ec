//go:build linux

package networkmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonetworkmanager "github.com/Wifx/gonetworkmanager/v3"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/shazow/wifijoin/wifi"
)

const connectionTimeout = 30 * time.Second

// Backend implements wifi.Radio using D-Bus to communicate with
// NetworkManager. Network ids are settings connection object paths.
type Backend struct {
	NM       gonetworkmanager.NetworkManager
	Settings gonetworkmanager.Settings
	// Interface restricts the backend to one wireless device when set.
	Interface string

	logger         *slog.Logger
	wirelessDevice gonetworkmanager.DeviceWireless
}

// New creates a new networkmanager.Backend.
func New(iface string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nm, err := gonetworkmanager.NewNetworkManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create network manager client: %w", wifi.ErrNotAvailable)
	}

	settings, err := gonetworkmanager.NewSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", wifi.ErrOperationFailed)
	}

	return &Backend{
		NM:        nm,
		Settings:  settings,
		Interface: iface,
		logger:    logger,
	}, nil
}

// mapError attaches a wifi sentinel to NetworkManager D-Bus errors.
func mapError(err error, fallback error) error {
	if err == nil {
		return nil
	}
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.NetworkManager.PermissionDenied", "org.freedesktop.DBus.Error.AccessDenied":
			return fmt.Errorf("%w: %w", wifi.ErrPermissionDenied, err)
		case "org.freedesktop.NetworkManager.Settings.InvalidConnection":
			return fmt.Errorf("%w: %w", wifi.ErrInvalidProfile, err)
		}
	}
	return fmt.Errorf("%w: %w", fallback, err)
}

func (b *Backend) getWirelessDevice() (gonetworkmanager.DeviceWireless, error) {
	if b.wirelessDevice != nil {
		return b.wirelessDevice, nil
	}
	devices, err := b.NM.GetDevices()
	if err != nil {
		return nil, err
	}
	for _, device := range devices {
		dev, ok := device.(gonetworkmanager.DeviceWireless)
		if !ok {
			continue
		}
		if b.Interface != "" {
			name, err := dev.GetPropertyInterface()
			if err != nil || name != b.Interface {
				continue
			}
		}
		b.wirelessDevice = dev
		return dev, nil
	}
	return nil, fmt.Errorf("no wireless device found: %w", wifi.ErrNotFound)
}

func (b *Backend) StartScan(ctx context.Context) error {
	dev, err := b.getWirelessDevice()
	if err != nil {
		return err
	}
	return mapError(dev.RequestScan(), wifi.ErrOperationFailed)
}

func (b *Backend) ScanResults(ctx context.Context) ([]wifi.ScanEntry, error) {
	dev, err := b.getWirelessDevice()
	if err != nil {
		return nil, err
	}
	accessPoints, err := dev.GetAccessPoints()
	if err != nil {
		return nil, mapError(err, wifi.ErrOperationFailed)
	}

	entries := make([]wifi.ScanEntry, 0, len(accessPoints))
	for _, ap := range accessPoints {
		ssid, err := ap.GetPropertySSID()
		if err != nil {
			continue
		}
		flags, _ := ap.GetPropertyFlags()
		wpaFlags, _ := ap.GetPropertyWPAFlags()
		rsnFlags, _ := ap.GetPropertyRSNFlags()
		strength, _ := ap.GetPropertyStrength()
		freq, _ := ap.GetPropertyFrequency()
		bssid, _ := ap.GetPropertyHWAddress()

		entries = append(entries, wifi.ScanEntry{
			SSID:         ssid,
			Capabilities: apDescriptor(uint32(flags), uint32(wpaFlags), uint32(rsnFlags)),
			BSSID:        bssid,
			Frequency:    uint(freq),
			Level:        strengthToLevel(uint8(strength)),
		})
	}
	return entries, nil
}

func (b *Backend) findConnection(id wifi.NetworkID) (gonetworkmanager.Connection, error) {
	connections, err := b.Settings.ListConnections()
	if err != nil {
		return nil, mapError(err, wifi.ErrOperationFailed)
	}
	for _, c := range connections {
		if string(c.GetPath()) == string(id) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("connection %s: %w", id, wifi.ErrNotFound)
}

// activeWireless returns the active wireless connection, or nil.
func (b *Backend) activeWireless() (gonetworkmanager.ActiveConnection, error) {
	active, err := b.NM.GetPropertyActiveConnections()
	if err != nil {
		return nil, mapError(err, wifi.ErrOperationFailed)
	}
	for _, ac := range active {
		typ, err := ac.GetPropertyType()
		if err != nil || typ != "802-11-wireless" {
			continue
		}
		return ac, nil
	}
	return nil, nil
}

func (b *Backend) ConfiguredNetworks(ctx context.Context) ([]wifi.ConfiguredNetwork, error) {
	connections, err := b.Settings.ListConnections()
	if err != nil {
		return nil, mapError(err, wifi.ErrOperationFailed)
	}
	current, err := b.CurrentNetwork(ctx)
	if err != nil {
		b.logger.Debug("failed to read active connection", "error", err)
	}

	var networks []wifi.ConfiguredNetwork
	for _, c := range connections {
		s, err := c.GetSettings()
		if err != nil {
			continue
		}
		ssid := settingsSSID(s)
		if ssid == "" {
			continue
		}
		id := wifi.NetworkID(c.GetPath())
		networks = append(networks, wifi.ConfiguredNetwork{
			ID:       id,
			SSID:     ssid,
			Disabled: !settingsAutoconnect(s),
			Current:  id == current,
		})
	}
	return networks, nil
}

// AddNetwork saves a new connection profile. It is not activated and does
// not autoconnect until EnableNetwork is called with persistAsDefault.
func (b *Backend) AddNetwork(ctx context.Context, profile wifi.ConnectionProfile) (wifi.NetworkID, error) {
	var iface string
	if dev, err := b.getWirelessDevice(); err == nil {
		iface, _ = dev.GetPropertyInterface()
	}
	conn, err := b.Settings.AddConnection(connectionSettings(profile, iface, uuid.New().String()))
	if err != nil {
		return wifi.NoNetwork, mapError(err, wifi.ErrInvalidProfile)
	}
	return wifi.NetworkID(conn.GetPath()), nil
}

func (b *Backend) CurrentNetwork(ctx context.Context) (wifi.NetworkID, error) {
	ac, err := b.activeWireless()
	if err != nil || ac == nil {
		return wifi.NoNetwork, err
	}
	conn, err := ac.GetPropertyConnection()
	if err != nil {
		return wifi.NoNetwork, mapError(err, wifi.ErrOperationFailed)
	}
	return wifi.NetworkID(conn.GetPath()), nil
}

// DisableNetwork deactivates id if it is the active connection.
func (b *Backend) DisableNetwork(ctx context.Context, id wifi.NetworkID) error {
	ac, err := b.activeWireless()
	if err != nil || ac == nil {
		return err
	}
	conn, err := ac.GetPropertyConnection()
	if err != nil {
		return mapError(err, wifi.ErrOperationFailed)
	}
	if string(conn.GetPath()) != string(id) {
		return nil
	}
	return mapError(b.NM.DeactivateConnection(ac), wifi.ErrOperationFailed)
}

func (b *Backend) EnableNetwork(ctx context.Context, id wifi.NetworkID, persistAsDefault bool) error {
	conn, err := b.findConnection(id)
	if err != nil {
		return fmt.Errorf("%w: %w", wifi.ErrEnableRejected, err)
	}
	if persistAsDefault {
		if err := b.setAutoConnect(conn, true); err != nil {
			b.logger.Warn("failed to enable autoconnect", "id", id, "error", err)
		}
	}
	dev, err := b.getWirelessDevice()
	if err != nil {
		return fmt.Errorf("%w: %w", wifi.ErrEnableRejected, err)
	}

	activeConn, err := b.NM.ActivateConnection(conn, dev, nil)
	if err != nil {
		return mapError(err, wifi.ErrEnableRejected)
	}
	return b.waitActivated(ctx, activeConn)
}

// waitActivated blocks until the connection is fully activated.
func (b *Backend) waitActivated(ctx context.Context, activeConn gonetworkmanager.ActiveConnection) error {
	stateChanges := make(chan gonetworkmanager.StateChange, 1)
	done := make(chan struct{})
	defer close(done)
	if err := activeConn.SubscribeState(stateChanges, done); err != nil {
		return mapError(err, wifi.ErrEnableRejected)
	}

	// Check the initial state first
	initialState, err := activeConn.GetPropertyState()
	if err != nil {
		return mapError(err, wifi.ErrEnableRejected)
	}
	if initialState == gonetworkmanager.NmActiveConnectionStateActivated {
		return nil
	}

	timeout := time.After(connectionTimeout)
	for {
		select {
		case change := <-stateChanges:
			if change.State == gonetworkmanager.NmActiveConnectionStateActivated {
				return nil
			}
			if change.State == gonetworkmanager.NmActiveConnectionStateDeactivated {
				return fmt.Errorf("connection deactivated: %w", wifi.ErrEnableRejected)
			}
		case <-timeout:
			return fmt.Errorf("connection timed out: %w", wifi.ErrEnableRejected)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SaveConfiguration is a no-op: NetworkManager writes connections to disk
// when they are added or updated.
func (b *Backend) SaveConfiguration(ctx context.Context) error {
	return nil
}

func (b *Backend) SupportsSAE(ctx context.Context) bool {
	version, err := b.NM.GetPropertyVersion()
	if err != nil {
		b.logger.Debug("failed to read NetworkManager version", "error", err)
		return false
	}
	return supportsSAE(version)
}

// applyUpdateWorkaround modifies the settings map to workaround D-Bus type errors.
//
// NetworkManager's D-Bus API can return ipv6.addresses and ipv6.routes as an
// array of array of variants ('aav'), but expects them as an array of structs
// on update. Those properties are dropped before updating since only
// connection.autoconnect is ever modified.
//
// See: https://github.com/Wifx/gonetworkmanager/issues/13 and https://github.com/godbus/dbus/issues/400
func applyUpdateWorkaround(settings map[string]map[string]interface{}) {
	if ipv6Settings, ok := settings["ipv6"]; ok {
		delete(ipv6Settings, "addresses")
		delete(ipv6Settings, "routes")
	}
}

func (b *Backend) setAutoConnect(conn gonetworkmanager.Connection, autoConnect bool) error {
	settings, err := conn.GetSettings()
	if err != nil {
		return err
	}
	if settingsAutoconnect(settings) == autoConnect {
		return nil
	}
	if _, ok := settings["connection"]; !ok {
		settings["connection"] = make(map[string]interface{})
	}
	settings["connection"]["autoconnect"] = autoConnect

	applyUpdateWorkaround(settings)
	return conn.Update(settings)
}
