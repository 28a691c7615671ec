package wifi

import "strings"

// KeyMgmt is a set of key management schemes.
type KeyMgmt uint8

const (
	KeyMgmtNone KeyMgmt = 1 << iota
	KeyMgmtWPAPSK
	KeyMgmtSAE
)

var keyMgmtNames = []string{"NONE", "WPA-PSK", "SAE"}

func (k KeyMgmt) Has(v KeyMgmt) bool { return k&v == v }
func (k KeyMgmt) List() []string     { return setNames(uint8(k), keyMgmtNames) }
func (k KeyMgmt) String() string     { return strings.Join(k.List(), " ") }

// Cipher is a set of pairwise or group ciphers.
type Cipher uint8

const (
	CipherCCMP Cipher = 1 << iota
	CipherTKIP
	CipherWEP40
	CipherWEP104
)

var cipherNames = []string{"CCMP", "TKIP", "WEP40", "WEP104"}

func (c Cipher) Has(v Cipher) bool { return c&v == v }
func (c Cipher) List() []string    { return setNames(uint8(c), cipherNames) }
func (c Cipher) String() string    { return strings.Join(c.List(), " ") }

// Protocol is a set of allowed security protocols.
type Protocol uint8

const (
	ProtocolRSN Protocol = 1 << iota
	ProtocolWPA
)

var protocolNames = []string{"RSN", "WPA"}

func (p Protocol) Has(v Protocol) bool { return p&v == v }
func (p Protocol) List() []string      { return setNames(uint8(p), protocolNames) }
func (p Protocol) String() string      { return strings.Join(p.List(), " ") }

// AuthAlg is a set of IEEE 802.11 authentication algorithms.
type AuthAlg uint8

const (
	AuthOpen AuthAlg = 1 << iota
	AuthShared
)

var authAlgNames = []string{"OPEN", "SHARED"}

func (a AuthAlg) Has(v AuthAlg) bool { return a&v == v }
func (a AuthAlg) List() []string     { return setNames(uint8(a), authAlgNames) }
func (a AuthAlg) String() string     { return strings.Join(a.List(), " ") }

func setNames(bits uint8, names []string) []string {
	var out []string
	for i, name := range names {
		if bits&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// PMF is the protected management frames requirement.
type PMF uint8

const (
	PMFDisabled PMF = iota
	PMFOptional
	PMFRequired
)

// ConnectionProfile is everything the radio needs to register a network.
// It only holds values, so copies never share state.
type ConnectionProfile struct {
	// SSID is quoted, which marks it as UTF-8 rather than hex encoded.
	SSID     string
	Hidden   bool
	Security SecurityProfile

	// PreSharedKey is quoted. Empty unless Security is WPA-PSK or SAE.
	PreSharedKey  string
	WEPKeys       [4]string
	WEPTxKeyIndex int

	KeyMgmt         KeyMgmt
	AuthAlgorithms  AuthAlg
	PairwiseCiphers Cipher
	GroupCiphers    Cipher
	Protocols       Protocol
	PMF             PMF
}

// Name returns the unquoted SSID.
func (p ConnectionProfile) Name() string {
	return Unquote(p.SSID)
}

// Quote wraps s in double quotes.
func Quote(s string) string {
	return `"` + s + `"`
}

// Unquote strips one pair of surrounding double quotes, if present.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// BuildProfile classifies capabilities and fills in the profile for that
// security method. It never fails: an empty password for a secured network
// produces a profile the radio will reject.
func (p Platform) BuildProfile(ssid, password string, hidden bool, capabilities string) ConnectionProfile {
	return p.ProfileFor(ssid, password, hidden, p.Classify(capabilities))
}

// ProfileFor builds a profile for an explicit security method. SAE is
// downgraded to WPA-PSK when the platform does not support it.
func (p Platform) ProfileFor(ssid, password string, hidden bool, security SecurityProfile) ConnectionProfile {
	if security == SecurityWPA3SAE && !p.SupportsSAE {
		security = SecurityWPAPSK
	}

	profile := ConnectionProfile{
		SSID:     Quote(ssid),
		Hidden:   hidden,
		Security: security,
	}

	switch security {
	case SecurityWEP:
		profile.WEPKeys[0] = Quote(password)
		profile.WEPTxKeyIndex = 0
		profile.KeyMgmt = KeyMgmtNone
		profile.GroupCiphers = CipherWEP40
	case SecurityWPAPSK:
		// Drivers disagree on which of the two cipher sets they consult, so
		// both must be complete.
		profile.PreSharedKey = Quote(password)
		profile.AuthAlgorithms = AuthOpen
		profile.KeyMgmt = KeyMgmtWPAPSK
		profile.PairwiseCiphers = CipherCCMP | CipherTKIP
		profile.GroupCiphers = CipherCCMP | CipherTKIP
		profile.Protocols = ProtocolRSN
	case SecurityWPA3SAE:
		profile.PreSharedKey = Quote(password)
		profile.KeyMgmt = KeyMgmtSAE
		profile.PairwiseCiphers = CipherCCMP
		profile.GroupCiphers = CipherCCMP
		profile.Protocols = ProtocolRSN
		profile.PMF = PMFOptional
	default:
		profile.KeyMgmt = KeyMgmtNone
	}
	return profile
}
