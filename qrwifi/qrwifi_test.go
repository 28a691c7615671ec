package qrwifi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/wifijoin/wifi"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`a;b`, `a\;b`},
		{`a,b:c`, `a\,b\:c`},
		{`back\slash`, `back\\slash`},
		{`"quoted"`, `\"quoted\"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in))
	}
}

func TestShareString(t *testing.T) {
	tests := []struct {
		name     string
		ssid     string
		password string
		security wifi.SecurityProfile
		hidden   bool
		want     string
	}{
		{"wpa", "home", "hunter2", wifi.SecurityWPAPSK, false, "WIFI:S:home;T:WPA;P:hunter2;;"},
		{"sae", "home", "pw", wifi.SecurityWPA3SAE, false, "WIFI:S:home;T:SAE;P:pw;;"},
		{"wep", "old", "abcde", wifi.SecurityWEP, false, "WIFI:S:old;T:WEP;P:abcde;;"},
		{"open", "cafe", "ignored", wifi.SecurityOpen, false, "WIFI:S:cafe;T:nopass;;"},
		{"hidden", "x;y", "p:w", wifi.SecurityWPAPSK, true, `WIFI:S:x\;y;T:WPA;P:p\:w;H:true;;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShareString(tt.ssid, tt.password, tt.security, tt.hidden))
		})
	}
}

func TestTerminal(t *testing.T) {
	out, err := Terminal(ShareString("home", "hunter2", wifi.SecurityWPAPSK, false), false)
	require.NoError(t, err)
	assert.Greater(t, len(strings.Split(out, "\n")), 10)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wifi.png")
	require.NoError(t, WriteFile("WIFI:S:home;T:nopass;;", path, 128))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}
