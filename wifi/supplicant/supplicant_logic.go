package supplicant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/shazow/wifijoin/wifi"
)

// suiteGroup converts the WPA or RSN property of a BSS into a descriptor
// group the way wpa_supplicant prints it in scan_results.
func suiteGroup(proto string, ie map[string]dbus.Variant) wifi.SuiteGroup {
	g := wifi.SuiteGroup{}
	if len(ie) == 0 {
		return g
	}
	seen := map[string]bool{}
	for _, km := range stringList(ie["KeyMgmt"]) {
		var name string
		switch {
		case strings.Contains(km, "sae"):
			name = "SAE"
		case strings.Contains(km, "psk"):
			name = "PSK"
		case strings.Contains(km, "eap"):
			name = "EAP"
		case km == "wpa-none":
			name = "None"
		default:
			continue
		}
		if !seen[name] {
			seen[name] = true
			g.KeyMgmt = append(g.KeyMgmt, name)
		}
	}
	for _, c := range stringList(ie["Pairwise"]) {
		g.Ciphers = append(g.Ciphers, strings.ToUpper(c))
	}
	if len(g.KeyMgmt) == 0 && len(g.Ciphers) == 0 {
		return g
	}
	g.Proto = proto
	return g
}

// bssDescriptor builds a capability descriptor from BSS properties.
func bssDescriptor(props map[string]dbus.Variant) string {
	wpa := suiteGroup("WPA", variantMap(props["WPA"]))
	rsn := suiteGroup("WPA2", variantMap(props["RSN"]))

	var flags []string
	if wpa.Proto == "" && rsn.Proto == "" {
		if privacy, _ := props["Privacy"].Value().(bool); privacy {
			flags = append(flags, "WEP")
		}
	}
	if mode, _ := props["Mode"].Value().(string); mode == "ad-hoc" {
		flags = append(flags, "IBSS")
	} else {
		flags = append(flags, "ESS")
	}
	return wifi.FormatDescriptor([]wifi.SuiteGroup{wpa, rsn}, flags...)
}

// scanEntry converts BSS properties into a ScanEntry.
func scanEntry(props map[string]dbus.Variant) wifi.ScanEntry {
	entry := wifi.ScanEntry{Capabilities: bssDescriptor(props)}
	if ssid, ok := props["SSID"].Value().([]byte); ok {
		entry.SSID = string(ssid)
	}
	if bssid, ok := props["BSSID"].Value().([]byte); ok {
		entry.BSSID = formatMAC(bssid)
	}
	if freq, ok := props["Frequency"].Value().(uint16); ok {
		entry.Frequency = uint(freq)
	}
	if signal, ok := props["Signal"].Value().(int16); ok {
		entry.Level = int(signal)
	}
	return entry
}

func formatMAC(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, ":")
}

// networkArgs maps a profile onto the AddNetwork argument dictionary.
// wpa_supplicant quotes string values for ssid, psk and wep keys itself, so
// they are passed unquoted.
func networkArgs(p wifi.ConnectionProfile) map[string]dbus.Variant {
	args := map[string]dbus.Variant{
		"ssid": dbus.MakeVariant(p.Name()),
	}
	if p.Hidden {
		args["scan_ssid"] = dbus.MakeVariant(uint32(1))
	}
	if p.KeyMgmt != 0 {
		args["key_mgmt"] = dbus.MakeVariant(p.KeyMgmt.String())
	}
	if p.PreSharedKey != "" {
		args["psk"] = dbus.MakeVariant(wifi.Unquote(p.PreSharedKey))
	}
	for i, key := range p.WEPKeys {
		if key != "" {
			args[fmt.Sprintf("wep_key%d", i)] = dbus.MakeVariant(wifi.Unquote(key))
		}
	}
	if p.Security == wifi.SecurityWEP {
		args["wep_tx_keyidx"] = dbus.MakeVariant(uint32(p.WEPTxKeyIndex))
	}
	if p.AuthAlgorithms != 0 {
		args["auth_alg"] = dbus.MakeVariant(p.AuthAlgorithms.String())
	}
	if p.PairwiseCiphers != 0 {
		args["pairwise"] = dbus.MakeVariant(p.PairwiseCiphers.String())
	}
	if p.GroupCiphers != 0 {
		args["group"] = dbus.MakeVariant(p.GroupCiphers.String())
	}
	if p.Protocols != 0 {
		args["proto"] = dbus.MakeVariant(p.Protocols.String())
	}
	if p.PMF != wifi.PMFDisabled {
		args["ieee80211w"] = dbus.MakeVariant(uint32(p.PMF))
	}
	return args
}

// configuredNetwork converts the Properties dictionary of a Network object.
// Values come back as config file strings, so the ssid is quoted.
func configuredNetwork(path dbus.ObjectPath, enabled bool, props map[string]dbus.Variant) wifi.ConfiguredNetwork {
	ssid, _ := props["ssid"].Value().(string)
	return wifi.ConfiguredNetwork{
		ID:       wifi.NetworkID(path),
		SSID:     wifi.Unquote(ssid),
		Disabled: !enabled,
	}
}

// mapError attaches a wifi sentinel to D-Bus errors.
func mapError(err error, fallback error) error {
	if err == nil {
		return nil
	}
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.AccessDenied", "fi.w1.wpa_supplicant1.PermissionDenied":
			return fmt.Errorf("%w: %w", wifi.ErrPermissionDenied, err)
		case "org.freedesktop.DBus.Error.ServiceUnknown", "fi.w1.wpa_supplicant1.InterfaceUnknown":
			return fmt.Errorf("%w: %w", wifi.ErrNotAvailable, err)
		case "fi.w1.wpa_supplicant1.NetworkUnknown":
			return fmt.Errorf("%w: %w", wifi.ErrNotFound, err)
		}
	}
	if fallback != nil {
		return fmt.Errorf("%w: %w", fallback, err)
	}
	return err
}

func variantMap(v dbus.Variant) map[string]dbus.Variant {
	m, _ := v.Value().(map[string]dbus.Variant)
	return m
}

func stringList(v dbus.Variant) []string {
	l, _ := v.Value().([]string)
	return l
}
