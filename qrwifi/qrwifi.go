// Package qrwifi renders the WIFI: share string that phone cameras
// understand, as text or as a QR code.
package qrwifi

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/shazow/wifijoin/wifi"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	`:`, `\:`,
	`"`, `\"`,
)

// Escape handles the special character escaping for SSID and password.
func Escape(s string) string {
	return escaper.Replace(s)
}

// authType is the T: field for a security profile.
func authType(security wifi.SecurityProfile) string {
	switch security {
	case wifi.SecurityWEP:
		return "WEP"
	case wifi.SecurityWPAPSK:
		return "WPA"
	case wifi.SecurityWPA3SAE:
		return "SAE"
	}
	return "nopass"
}

// ShareString builds a Wi-Fi connection string, e.g.
// WIFI:S:home;T:WPA;P:hunter2;;
func ShareString(ssid, password string, security wifi.SecurityProfile, hidden bool) string {
	var b strings.Builder
	b.WriteString("WIFI:S:")
	b.WriteString(Escape(ssid))
	b.WriteString(";T:")
	b.WriteString(authType(security))
	b.WriteString(";")
	if security != wifi.SecurityOpen {
		b.WriteString("P:")
		b.WriteString(Escape(password))
		b.WriteString(";")
	}
	if hidden {
		b.WriteString("H:true;")
	}
	b.WriteString(";")
	return b.String()
}

// Terminal renders content as a QR code using half-block characters.
func Terminal(content string, inverse bool) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(inverse), nil
}

// WriteFile renders content as a PNG QR code of size pixels to path.
func WriteFile(content, path string, size int) error {
	return qrcode.WriteFile(content, qrcode.Medium, size, path)
}
