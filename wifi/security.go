package wifi

import (
	"fmt"
	"strings"
)

// SecurityProfile is the security method used to join a network.
type SecurityProfile int

const (
	SecurityOpen SecurityProfile = iota
	SecurityWEP
	SecurityWPAPSK
	SecurityWPA3SAE
)

func (s SecurityProfile) String() string {
	switch s {
	case SecurityOpen:
		return "open"
	case SecurityWEP:
		return "wep"
	case SecurityWPAPSK:
		return "wpa-psk"
	case SecurityWPA3SAE:
		return "wpa3-sae"
	}
	return fmt.Sprintf("SecurityProfile(%d)", int(s))
}

// Label is a human friendly name for the profile.
func (s SecurityProfile) Label() string {
	switch s {
	case SecurityWEP:
		return "WEP"
	case SecurityWPAPSK:
		return "WPA/WPA2"
	case SecurityWPA3SAE:
		return "WPA3"
	}
	return "Open"
}

// ParseSecurityProfile is the inverse of SecurityProfile.String. It also
// accepts the short aliases used on the command line.
func ParseSecurityProfile(s string) (SecurityProfile, error) {
	switch strings.ToLower(s) {
	case "open", "none", "":
		return SecurityOpen, nil
	case "wep":
		return SecurityWEP, nil
	case "wpa", "wpa2", "wpa-psk", "psk":
		return SecurityWPAPSK, nil
	case "wpa3", "sae", "wpa3-sae":
		return SecurityWPA3SAE, nil
	}
	return SecurityOpen, fmt.Errorf("invalid security profile %q: %w", s, ErrNotSupported)
}

// classifyRule selects a profile when the descriptor contains any of its
// needles. Rules are evaluated in order, strongest suite first, so mixed-mode
// access points resolve to the best method both sides support.
type classifyRule struct {
	profile  SecurityProfile
	needles  []string
	needsSAE bool
}

var classifyRules = []classifyRule{
	{profile: SecurityWPA3SAE, needles: []string{"SAE"}, needsSAE: true},
	{profile: SecurityWPAPSK, needles: []string{"WPA-PSK", "WPA2-PSK"}},
	{profile: SecurityWEP, needles: []string{"WEP"}},
}

// Platform describes what the local cryptographic stack supports.
type Platform struct {
	SupportsSAE bool
}

// Classify picks the security profile for a capability descriptor such as
// "[WPA2-PSK-CCMP+TKIP][ESS]". Matching is case-sensitive. Descriptors that
// match no rule are Open.
func (p Platform) Classify(capabilities string) SecurityProfile {
	for _, rule := range classifyRules {
		if rule.needsSAE && !p.SupportsSAE {
			continue
		}
		for _, needle := range rule.needles {
			if strings.Contains(capabilities, needle) {
				return rule.profile
			}
		}
	}
	return SecurityOpen
}
