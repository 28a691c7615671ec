package networkmanager

import (
	"strconv"
	"strings"

	"github.com/shazow/wifijoin/wifi"
)

// NM80211ApSecurityFlags from NetworkManager's D-Bus API.
const (
	apSecPairWEP40    uint32 = 0x1
	apSecPairWEP104   uint32 = 0x2
	apSecPairTKIP     uint32 = 0x4
	apSecPairCCMP     uint32 = 0x8
	apSecGroupWEP40   uint32 = 0x10
	apSecGroupWEP104  uint32 = 0x20
	apSecGroupTKIP    uint32 = 0x40
	apSecGroupCCMP    uint32 = 0x80
	apSecKeyMgmtPSK   uint32 = 0x100
	apSecKeyMgmt8021X uint32 = 0x200
	apSecKeyMgmtSAE   uint32 = 0x400
	apSecKeyMgmtOWE   uint32 = 0x800

	apFlagsPrivacy uint32 = 0x1
)

// securityGroup converts a WpaFlags or RsnFlags value into a descriptor
// group. A zero value yields an empty group.
func securityGroup(proto string, flags uint32) wifi.SuiteGroup {
	g := wifi.SuiteGroup{}
	if flags == 0 {
		return g
	}
	if flags&apSecKeyMgmtPSK != 0 {
		g.KeyMgmt = append(g.KeyMgmt, "PSK")
	}
	if flags&apSecKeyMgmtSAE != 0 {
		g.KeyMgmt = append(g.KeyMgmt, "SAE")
	}
	if flags&apSecKeyMgmt8021X != 0 {
		g.KeyMgmt = append(g.KeyMgmt, "EAP")
	}
	if flags&apSecKeyMgmtOWE != 0 {
		g.KeyMgmt = append(g.KeyMgmt, "OWE")
	}
	if flags&apSecPairCCMP != 0 {
		g.Ciphers = append(g.Ciphers, "CCMP")
	}
	if flags&apSecPairTKIP != 0 {
		g.Ciphers = append(g.Ciphers, "TKIP")
	}
	g.Proto = proto
	return g
}

// apDescriptor builds a capability descriptor from access point flags.
func apDescriptor(flags, wpaFlags, rsnFlags uint32) string {
	groups := []wifi.SuiteGroup{
		securityGroup("WPA", wpaFlags),
		securityGroup("WPA2", rsnFlags),
	}
	var extra []string
	if wpaFlags == 0 && rsnFlags == 0 && flags&apFlagsPrivacy != 0 {
		extra = append(extra, "WEP")
	}
	extra = append(extra, "ESS")
	return wifi.FormatDescriptor(groups, extra...)
}

// strengthToLevel approximates dBm from NetworkManager's 0-100 strength,
// inverting wifi.ScanEntry.Strength.
func strengthToLevel(strength uint8) int {
	if strength == 0 {
		return -100
	}
	return int(strength)/2 - 100
}

func lowerList(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}

// connectionSettings maps a profile onto a NetworkManager settings
// dictionary. Secrets are stored unquoted.
func connectionSettings(p wifi.ConnectionProfile, iface, id string) map[string]map[string]interface{} {
	ssid := p.Name()
	connection := map[string]map[string]interface{}{
		"connection": {
			"id":          ssid,
			"uuid":        id,
			"type":        "802-11-wireless",
			"autoconnect": false,
		},
		"802-11-wireless": {
			"mode": "infrastructure",
			"ssid": []byte(ssid),
		},
		"ipv4": {"method": "auto"},
		"ipv6": {"method": "auto"},
	}
	if iface != "" {
		connection["connection"]["interface-name"] = iface
	}
	if p.Hidden {
		connection["802-11-wireless"]["hidden"] = true
	}

	var sec map[string]interface{}
	switch p.Security {
	case wifi.SecurityOpen:
		return connection
	case wifi.SecurityWEP:
		sec = map[string]interface{}{
			"key-mgmt":      "none",
			"wep-key0":      wifi.Unquote(p.WEPKeys[0]),
			"wep-tx-keyidx": uint32(p.WEPTxKeyIndex),
			// 1 is NM_WEP_KEY_TYPE_KEY: hex or ASCII key, not a passphrase.
			"wep-key-type": uint32(1),
		}
	case wifi.SecurityWPAPSK:
		sec = map[string]interface{}{
			"key-mgmt": "wpa-psk",
			"psk":      wifi.Unquote(p.PreSharedKey),
		}
	case wifi.SecurityWPA3SAE:
		sec = map[string]interface{}{
			"key-mgmt": "sae",
			"psk":      wifi.Unquote(p.PreSharedKey),
		}
	}
	if p.AuthAlgorithms.Has(wifi.AuthOpen) {
		sec["auth-alg"] = "open"
	}
	if p.Protocols != 0 {
		sec["proto"] = lowerList(p.Protocols.List())
	}
	if p.PairwiseCiphers != 0 {
		sec["pairwise"] = lowerList(p.PairwiseCiphers.List())
	}
	if p.GroupCiphers != 0 && p.Security != wifi.SecurityWEP {
		sec["group"] = lowerList(p.GroupCiphers.List())
	}
	// NM_SETTING_WIRELESS_SECURITY_PMF_*: 1 disable, 2 optional, 3 required.
	switch p.PMF {
	case wifi.PMFOptional:
		sec["pmf"] = int32(2)
	case wifi.PMFRequired:
		sec["pmf"] = int32(3)
	}
	connection["802-11-wireless"]["security"] = "802-11-wireless-security"
	connection["802-11-wireless-security"] = sec
	return connection
}

// settingsSSID extracts the SSID of a wireless connection's settings, or ""
// for other connection types.
func settingsSSID(s map[string]map[string]interface{}) string {
	if t, _ := s["connection"]["type"].(string); t != "802-11-wireless" {
		return ""
	}
	ssid, _ := s["802-11-wireless"]["ssid"].([]byte)
	return string(ssid)
}

// settingsAutoconnect reports connection.autoconnect, which defaults to true.
func settingsAutoconnect(s map[string]map[string]interface{}) bool {
	if ac, ok := s["connection"]["autoconnect"].(bool); ok {
		return ac
	}
	return true
}

// supportsSAE reports whether a NetworkManager version string is at least
// 1.16, the first release with sae key management.
func supportsSAE(version string) bool {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return major > 1 || (major == 1 && minor >= 16)
}
