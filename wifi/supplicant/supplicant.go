//go:build linux

// Package supplicant talks to wpa_supplicant over its D-Bus API.
package supplicant

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/shazow/wifijoin/wifi"
)

const (
	dest          = "fi.w1.wpa_supplicant1"
	rootPath      = "/fi/w1/wpa_supplicant1"
	rootIface     = "fi.w1.wpa_supplicant1"
	ifaceIface    = "fi.w1.wpa_supplicant1.Interface"
	bssIface      = "fi.w1.wpa_supplicant1.BSS"
	networkIface  = "fi.w1.wpa_supplicant1.Network"
	propertiesSet = "org.freedesktop.DBus.Properties.Set"
)

// Backend implements wifi.Radio using wpa_supplicant's D-Bus interface.
type Backend struct {
	conn   *dbus.Conn
	iface  dbus.ObjectPath
	logger *slog.Logger

	// AssociateTimeout, when non-zero, makes EnableNetwork wait for the
	// interface to reach the completed state.
	AssociateTimeout time.Duration
}

// New connects to the system bus and looks up the wpa_supplicant interface
// object for ifname.
func New(ifname string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", wifi.ErrNotAvailable)
	}
	// We don't close conn here because the backend keeps using it.
	var path dbus.ObjectPath
	err = conn.Object(dest, rootPath).Call(rootIface+".GetInterface", 0, ifname).Store(&path)
	if err != nil {
		return nil, fmt.Errorf("wpa_supplicant does not manage %s: %w", ifname, mapError(err, wifi.ErrNotAvailable))
	}
	logger.Debug("found wpa_supplicant interface", "ifname", ifname, "path", path)
	return &Backend{conn: conn, iface: path, logger: logger}, nil
}

func (b *Backend) obj() dbus.BusObject {
	return b.conn.Object(dest, b.iface)
}

func (b *Backend) getProperty(path dbus.ObjectPath, name string) (dbus.Variant, error) {
	return b.conn.Object(dest, path).GetProperty(name)
}

func (b *Backend) StartScan(ctx context.Context) error {
	args := map[string]dbus.Variant{"Type": dbus.MakeVariant("active")}
	err := b.obj().CallWithContext(ctx, ifaceIface+".Scan", 0, args).Err
	return mapError(err, wifi.ErrOperationFailed)
}

func (b *Backend) ScanResults(ctx context.Context) ([]wifi.ScanEntry, error) {
	v, err := b.getProperty(b.iface, ifaceIface+".BSSs")
	if err != nil {
		return nil, mapError(err, wifi.ErrOperationFailed)
	}
	paths, _ := v.Value().([]dbus.ObjectPath)

	entries := make([]wifi.ScanEntry, 0, len(paths))
	for _, path := range paths {
		var props map[string]dbus.Variant
		err := b.conn.Object(dest, path).CallWithContext(ctx, "org.freedesktop.DBus.Properties.GetAll", 0, bssIface).Store(&props)
		if err != nil {
			// BSS objects disappear as the scan table is pruned.
			b.logger.Debug("skipping BSS", "path", path, "error", err)
			continue
		}
		entries = append(entries, scanEntry(props))
	}
	return entries, nil
}

func (b *Backend) ConfiguredNetworks(ctx context.Context) ([]wifi.ConfiguredNetwork, error) {
	v, err := b.getProperty(b.iface, ifaceIface+".Networks")
	if err != nil {
		return nil, mapError(err, wifi.ErrOperationFailed)
	}
	paths, _ := v.Value().([]dbus.ObjectPath)
	current, _ := b.currentPath()

	networks := make([]wifi.ConfiguredNetwork, 0, len(paths))
	for _, path := range paths {
		propsVar, err := b.getProperty(path, networkIface+".Properties")
		if err != nil {
			return nil, mapError(err, wifi.ErrOperationFailed)
		}
		enabledVar, _ := b.getProperty(path, networkIface+".Enabled")
		enabled, _ := enabledVar.Value().(bool)

		network := configuredNetwork(path, enabled, variantMap(propsVar))
		network.Current = path == current
		networks = append(networks, network)
	}
	return networks, nil
}

func (b *Backend) AddNetwork(ctx context.Context, profile wifi.ConnectionProfile) (wifi.NetworkID, error) {
	var path dbus.ObjectPath
	err := b.obj().CallWithContext(ctx, ifaceIface+".AddNetwork", 0, networkArgs(profile)).Store(&path)
	if err != nil {
		return wifi.NoNetwork, mapError(err, wifi.ErrInvalidProfile)
	}
	return wifi.NetworkID(path), nil
}

func (b *Backend) currentPath() (dbus.ObjectPath, error) {
	v, err := b.getProperty(b.iface, ifaceIface+".CurrentNetwork")
	if err != nil {
		return "", err
	}
	path, _ := v.Value().(dbus.ObjectPath)
	if path == "/" {
		return "", nil
	}
	return path, nil
}

func (b *Backend) CurrentNetwork(ctx context.Context) (wifi.NetworkID, error) {
	path, err := b.currentPath()
	if err != nil {
		return wifi.NoNetwork, mapError(err, wifi.ErrOperationFailed)
	}
	return wifi.NetworkID(path), nil
}

func (b *Backend) setEnabled(ctx context.Context, id wifi.NetworkID, enabled bool) error {
	return b.conn.Object(dest, dbus.ObjectPath(id)).
		CallWithContext(ctx, propertiesSet, 0, networkIface, "Enabled", dbus.MakeVariant(enabled)).Err
}

func (b *Backend) DisableNetwork(ctx context.Context, id wifi.NetworkID) error {
	return mapError(b.setEnabled(ctx, id, false), wifi.ErrOperationFailed)
}

func (b *Backend) EnableNetwork(ctx context.Context, id wifi.NetworkID, persistAsDefault bool) error {
	if persistAsDefault {
		err := b.obj().CallWithContext(ctx, ifaceIface+".SelectNetwork", 0, dbus.ObjectPath(id)).Err
		if err != nil {
			return mapError(err, wifi.ErrEnableRejected)
		}
	}
	if err := b.setEnabled(ctx, id, true); err != nil {
		return mapError(err, wifi.ErrEnableRejected)
	}
	if b.AssociateTimeout > 0 {
		return b.waitForConnection(ctx, id)
	}
	return nil
}

func (b *Backend) waitForConnection(ctx context.Context, id wifi.NetworkID) error {
	timeout := time.After(b.AssociateTimeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("network %s did not associate: %w", id, wifi.ErrEnableRejected)
		case <-ticker.C:
			stateVar, err := b.getProperty(b.iface, ifaceIface+".State")
			if err != nil {
				return mapError(err, wifi.ErrEnableRejected)
			}
			current, _ := b.currentPath()
			if state, _ := stateVar.Value().(string); state == "completed" && wifi.NetworkID(current) == id {
				return nil
			}
		}
	}
}

func (b *Backend) SaveConfiguration(ctx context.Context) error {
	err := b.obj().CallWithContext(ctx, ifaceIface+".SaveConfig", 0).Err
	return mapError(err, wifi.ErrOperationFailed)
}

func (b *Backend) SupportsSAE(ctx context.Context) bool {
	v, err := b.getProperty(b.iface, ifaceIface+".Capabilities")
	if err != nil {
		b.logger.Debug("failed to read capabilities", "error", err)
		return false
	}
	return slices.Contains(stringList(variantMap(v)["KeyMgmt"]), "sae")
}
