package wpacli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/shazow/wifijoin/wifi"
)

// parseScanResults parses the output of `wpa_cli scan_results`:
//
//	bssid / frequency / signal level / flags / ssid
//	00:11:22:33:44:55	2412	-48	[WPA2-PSK-CCMP][ESS]	home
//
// The flags column is already a capability descriptor.
func parseScanResults(output string) []wifi.ScanEntry {
	var entries []wifi.ScanEntry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 4 {
			// Header, "Selected interface" banner or junk.
			continue
		}
		freq, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			continue
		}
		level, _ := strconv.Atoi(fields[2])
		var ssid string
		if len(fields) > 4 {
			ssid = unescape(strings.Join(fields[4:], "\t"))
		}
		entries = append(entries, wifi.ScanEntry{
			SSID:         ssid,
			Capabilities: fields[3],
			BSSID:        fields[0],
			Frequency:    uint(freq),
			Level:        level,
		})
	}
	return entries
}

// parseListNetworks parses `wpa_cli list_networks`:
//
//	network id / ssid / bssid / flags
//	0	home	any	[CURRENT]
func parseListNetworks(output string) []wifi.ConfiguredNetwork {
	var networks []wifi.ConfiguredNetwork
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		var flags string
		if len(fields) > 3 {
			flags = fields[3]
		}
		networks = append(networks, wifi.ConfiguredNetwork{
			ID:       wifi.NetworkID(fields[0]),
			SSID:     unescape(fields[1]),
			Disabled: strings.Contains(flags, "[DISABLED]"),
			Current:  strings.Contains(flags, "[CURRENT]"),
		})
	}
	return networks
}

// parseStatus parses the key=value lines of `wpa_cli status`.
func parseStatus(output string) map[string]string {
	status := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		status[key] = value
	}
	return status
}

// parseNetworkID parses the reply to `add_network`.
func parseNetworkID(output string) (wifi.NetworkID, error) {
	lines := strings.Fields(output)
	if len(lines) == 0 {
		return wifi.NoNetwork, fmt.Errorf("empty reply to add_network: %w", wifi.ErrOperationFailed)
	}
	last := lines[len(lines)-1]
	if _, err := strconv.Atoi(last); err != nil {
		return wifi.NoNetwork, fmt.Errorf("unexpected reply to add_network %q: %w", last, wifi.ErrOperationFailed)
	}
	return wifi.NetworkID(last), nil
}

// hasCapability reports whether the reply to `get_capability <field>`
// lists value.
func hasCapability(output, value string) bool {
	for _, v := range strings.Fields(output) {
		if v == value {
			return true
		}
	}
	return false
}

// isOK reports whether a control command succeeded. wpa_cli exits 0 even
// when the daemon answers FAIL.
func isOK(output string) bool {
	return strings.TrimSpace(output) == "OK"
}

type setting struct {
	key, value string
}

// profileSettings maps a profile onto set_network variables.
func profileSettings(p wifi.ConnectionProfile) []setting {
	settings := []setting{{"ssid", p.SSID}}
	if p.Hidden {
		settings = append(settings, setting{"scan_ssid", "1"})
	}
	if p.KeyMgmt != 0 {
		settings = append(settings, setting{"key_mgmt", p.KeyMgmt.String()})
	}
	if p.PreSharedKey != "" {
		settings = append(settings, setting{"psk", p.PreSharedKey})
	}
	for i, key := range p.WEPKeys {
		if key == "" {
			continue
		}
		settings = append(settings, setting{"wep_key" + strconv.Itoa(i), key})
	}
	if p.Security == wifi.SecurityWEP {
		settings = append(settings, setting{"wep_tx_keyidx", strconv.Itoa(p.WEPTxKeyIndex)})
	}
	if p.AuthAlgorithms != 0 {
		settings = append(settings, setting{"auth_alg", p.AuthAlgorithms.String()})
	}
	if p.PairwiseCiphers != 0 {
		settings = append(settings, setting{"pairwise", p.PairwiseCiphers.String()})
	}
	if p.GroupCiphers != 0 {
		settings = append(settings, setting{"group", p.GroupCiphers.String()})
	}
	if p.Protocols != 0 {
		settings = append(settings, setting{"proto", p.Protocols.String()})
	}
	if p.PMF != wifi.PMFDisabled {
		settings = append(settings, setting{"ieee80211w", strconv.Itoa(int(p.PMF))})
	}
	return settings
}

// unescape reverses the printf-style escaping wpa_supplicant applies to
// SSIDs (\\, \", \e, \n, \r, \t and \xHH).
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\\', '"':
			b.WriteByte(s[i])
		case 'e':
			b.WriteByte(0x1b)
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteString(`\x`)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
