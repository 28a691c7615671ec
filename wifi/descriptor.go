package wifi

import "strings"

// Tokens splits a capability descriptor into its bracketed groups.
// "[WPA2-PSK-CCMP+TKIP][ESS]" yields ["WPA2-PSK-CCMP+TKIP", "ESS"]. Text
// outside of brackets is ignored and an unterminated group runs to the end
// of the string.
func Tokens(capabilities string) []string {
	var tokens []string
	rest := capabilities
	for {
		start := strings.IndexByte(rest, '[')
		if start < 0 {
			return tokens
		}
		rest = rest[start+1:]
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			if rest != "" {
				tokens = append(tokens, rest)
			}
			return tokens
		}
		if end > 0 {
			tokens = append(tokens, rest[:end])
		}
		rest = rest[end+1:]
	}
}

// SuiteGroup is one advertised security suite, in the form wpa_supplicant
// prints it: PROTO-KEYMGMT[+KEYMGMT]-CIPHER[+CIPHER].
type SuiteGroup struct {
	Proto   string
	KeyMgmt []string
	Ciphers []string
}

func (g SuiteGroup) String() string {
	parts := []string{g.Proto}
	if len(g.KeyMgmt) > 0 {
		parts = append(parts, strings.Join(g.KeyMgmt, "+"))
	}
	if len(g.Ciphers) > 0 {
		parts = append(parts, strings.Join(g.Ciphers, "+"))
	}
	return strings.Join(parts, "-")
}

// FormatDescriptor renders suite groups and trailing flags (ESS, WPS, ...)
// into a capability descriptor. Empty groups are skipped.
func FormatDescriptor(groups []SuiteGroup, flags ...string) string {
	var b strings.Builder
	for _, g := range groups {
		if g.Proto == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(g.String())
		b.WriteString("]")
	}
	for _, f := range flags {
		if f == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(f)
		b.WriteString("]")
	}
	return b.String()
}

// DescriptorFor returns a canonical descriptor that classifies as the given
// profile on a platform that supports it. It is used when no scan result is
// available, e.g. for hidden networks.
func DescriptorFor(s SecurityProfile) string {
	switch s {
	case SecurityWEP:
		return "[WEP][ESS]"
	case SecurityWPAPSK:
		return FormatDescriptor([]SuiteGroup{{Proto: "WPA2", KeyMgmt: []string{"PSK"}, Ciphers: []string{"CCMP"}}}, "ESS")
	case SecurityWPA3SAE:
		return FormatDescriptor([]SuiteGroup{{Proto: "WPA2", KeyMgmt: []string{"SAE"}, Ciphers: []string{"CCMP"}}}, "ESS")
	}
	return "[ESS]"
}
