package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/wifijoin/wifi"
	"github.com/shazow/wifijoin/wifi/mock"
	"github.com/shazow/wifijoin/wifi/nl80211"
)

func newTestService(t *testing.T) (*wifi.Service, *mock.MockRadio) {
	t.Helper()
	radio, err := mock.New()
	require.NoError(t, err)
	radio.ActionSleep = 0
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return wifi.NewService(context.Background(), radio, wifi.ServiceConfig{Logger: logger}), radio
}

func TestRunList(t *testing.T) {
	svc, _ := newTestService(t)
	var buf bytes.Buffer
	require.NoError(t, runList(context.Background(), &buf, svc, listOptions{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, []string{"SSID", "SECURITY", "SIGNAL", "KNOWN"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "Password is password", "known networks come first")
	assert.Contains(t, lines[1], "yes")
	assert.Equal(t, 1, strings.Count(buf.String(), "Multi-AP Network"))
	assert.NotContains(t, buf.String(), "GET off my LAN", "out of range networks are not listed")
}

func TestRunListJSON(t *testing.T) {
	svc, _ := newTestService(t)

	var buf bytes.Buffer
	require.NoError(t, runList(context.Background(), &buf, svc, listOptions{JSON: true}))
	var rows []listedNetwork
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, "Password is password", rows[0].SSID)
	assert.True(t, rows[0].Known)

	bySSID := map[string]listedNetwork{}
	for _, r := range rows {
		bySSID[r.SSID] = r
	}
	assert.Equal(t, "wpa3-sae", bySSID["TacoBoutAGoodSignal"].Security)
	assert.Equal(t, "wep", bySSID["NeverGonnaGiveYouIP"].Security)
	assert.Equal(t, "open", bySSID["Unencrypted_Honeypot"].Security)
	assert.Equal(t, "00:11:22:33:44:55", bySSID["Multi-AP Network"].BSSID, "first access point is kept")

	buf.Reset()
	require.NoError(t, runList(context.Background(), &buf, svc, listOptions{JSON: true, All: true}))
	rows = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	var multi int
	for _, r := range rows {
		if r.SSID == "Multi-AP Network" {
			multi++
		}
	}
	assert.Equal(t, 2, multi)
}

func TestRunKnown(t *testing.T) {
	svc, radio := newTestService(t)
	radio.Current = "1"

	var buf bytes.Buffer
	require.NoError(t, runKnown(context.Background(), &buf, svc))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "SSID", "STATE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "Password", "is", "password", "disabled"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1", "GET", "off", "my", "LAN", "current"}, strings.Fields(lines[2]))
}

func TestRunConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("known", func(t *testing.T) {
		svc, radio := newTestService(t)
		var buf bytes.Buffer
		require.NoError(t, runConnect(ctx, &buf, svc, "Password is password", connectOptions{}))
		assert.Equal(t, wifi.NetworkID("0"), radio.Current)
		assert.Empty(t, radio.CallsTo("AddNetwork"))
		assert.Contains(t, buf.String(), "(id 0)")
	})

	t.Run("visible", func(t *testing.T) {
		svc, radio := newTestService(t)
		var buf bytes.Buffer
		require.NoError(t, runConnect(ctx, &buf, svc, "HideYoKidsHideYoWiFi", connectOptions{Password: "hunter22"}))
		require.NotEqual(t, wifi.NoNetwork, radio.Current)
		profile, ok := radio.Profile(radio.Current)
		require.True(t, ok)
		assert.Equal(t, "HideYoKidsHideYoWiFi", profile.Name())
		assert.Equal(t, wifi.SecurityWPAPSK, profile.Security)
		assert.False(t, profile.Hidden)
	})

	t.Run("open", func(t *testing.T) {
		svc, radio := newTestService(t)
		require.NoError(t, runConnect(ctx, io.Discard, svc, "Unencrypted_Honeypot", connectOptions{}))
		profile, ok := radio.Profile(radio.Current)
		require.True(t, ok)
		assert.Equal(t, wifi.SecurityOpen, profile.Security)
	})

	t.Run("hidden", func(t *testing.T) {
		svc, radio := newTestService(t)
		opts := connectOptions{Password: "hunter22", Security: "wpa3", Hidden: true}
		require.NoError(t, runConnect(ctx, io.Discard, svc, "secret lab", opts))
		profile, ok := radio.Profile(radio.Current)
		require.True(t, ok)
		assert.Equal(t, "secret lab", profile.Name())
		assert.Equal(t, wifi.SecurityWPA3SAE, profile.Security)
		assert.True(t, profile.Hidden)
	})

	t.Run("hidden wpa3 without sae", func(t *testing.T) {
		radio, err := mock.New()
		require.NoError(t, err)
		radio.ActionSleep = 0
		radio.SAE = false
		svc := wifi.NewService(ctx, radio, wifi.ServiceConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

		opts := connectOptions{Password: "hunter22", Security: "wpa3", Hidden: true}
		require.NoError(t, runConnect(ctx, io.Discard, svc, "secret lab", opts))
		profile, ok := radio.Profile(radio.Current)
		require.True(t, ok)
		assert.Equal(t, wifi.SecurityWPAPSK, profile.Security)
		assert.Equal(t, `"hunter22"`, profile.PreSharedKey)
	})

	t.Run("needs password", func(t *testing.T) {
		svc, radio := newTestService(t)
		err := runConnect(ctx, io.Discard, svc, "HideYoKidsHideYoWiFi", connectOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "needs a password")
		assert.Empty(t, radio.CallsTo("AddNetwork"))
	})

	t.Run("not in range", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := runConnect(ctx, io.Discard, svc, "nowhere", connectOptions{Password: "hunter22"})
		assert.ErrorIs(t, err, wifi.ErrNotFound)
	})

	t.Run("bad security", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := runConnect(ctx, io.Discard, svc, "x", connectOptions{Hidden: true, Security: "wpa9"})
		assert.ErrorIs(t, err, wifi.ErrNotSupported)
	})

	t.Run("radio failure", func(t *testing.T) {
		svc, radio := newTestService(t)
		radio.EnableError = errors.New("radio refused")
		err := runConnect(ctx, io.Discard, svc, "Password is password", connectOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "radio refused")
	})
}

func TestRunClassify(t *testing.T) {
	tests := []struct {
		descriptor string
		sae        bool
		security   string
		keyMgmt    string
	}{
		{"[WPA2-PSK-CCMP][ESS]", true, "wpa-psk", "WPA-PSK"},
		{"[WPA2-PSK+SAE-CCMP][ESS]", true, "wpa3-sae", "SAE"},
		{"[WPA2-PSK+SAE-CCMP][ESS]", false, "wpa-psk", "WPA-PSK"},
		{"[WEP][ESS]", true, "wep", "NONE"},
		{"[ESS]", true, "open", "NONE"},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, runClassify(&buf, tt.descriptor, tt.sae))
			fields := map[string]string{}
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				k, v, ok := strings.Cut(line, ":")
				require.True(t, ok, line)
				fields[k] = strings.TrimSpace(v)
			}
			assert.Equal(t, tt.security, fields["security"])
			assert.Equal(t, tt.keyMgmt, fields["key_mgmt"])
		})
	}
}

func TestRunStatus(t *testing.T) {
	orig := linkInfo
	t.Cleanup(func() { linkInfo = orig })

	t.Run("connected", func(t *testing.T) {
		svc, radio := newTestService(t)
		radio.Current = "0"
		linkInfo = func(iface string) (nl80211.Link, error) {
			return nl80211.Link{
				Interface:  "wlan0",
				Associated: true,
				SSID:       "Password is password",
				BSSID:      "00:11:22:33:44:07",
				Frequency:  2412,
				Signal:     -55,
			}, nil
		}

		var buf bytes.Buffer
		require.NoError(t, runStatus(context.Background(), &buf, svc, "wlan0"))
		assert.Equal(t,
			"network: Password is password (id 0)\n"+
				"link: wlan0 associated with Password is password (00:11:22:33:44:07), 2412 MHz, -55 dBm\n",
			buf.String())
	})

	t.Run("idle", func(t *testing.T) {
		svc, _ := newTestService(t)
		linkInfo = func(iface string) (nl80211.Link, error) {
			return nl80211.Link{}, wifi.ErrNotAvailable
		}

		var buf bytes.Buffer
		require.NoError(t, runStatus(context.Background(), &buf, svc, ""))
		assert.Contains(t, buf.String(), "network: none\n")
		assert.Contains(t, buf.String(), "link: unavailable")
	})

	t.Run("radio error", func(t *testing.T) {
		svc, radio := newTestService(t)
		radio.CurrentError = wifi.ErrNotSupported
		assert.ErrorIs(t, runStatus(context.Background(), io.Discard, svc, ""), wifi.ErrNotSupported)
	})
}

func TestRunQR(t *testing.T) {
	t.Run("terminal", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runQR(&buf, "cafe", qrOptions{Password: "hunter22", Security: "wpa"}))
		assert.Contains(t, buf.String(), "WIFI:S:cafe;T:WPA;P:hunter22;;")
	})

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cafe.png")
		var buf bytes.Buffer
		require.NoError(t, runQR(&buf, "cafe", qrOptions{Security: "open", PNG: path, Size: 128}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
		assert.Equal(t, "wrote "+path+"\n", buf.String())
	})

	t.Run("missing password", func(t *testing.T) {
		err := runQR(io.Discard, "cafe", qrOptions{Security: "wep"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WEP")
	})
}

func TestGetRadio(t *testing.T) {
	radio, err := GetRadio(radioConfig{Backend: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &mock.MockRadio{}, radio)

	_, err = GetRadio(radioConfig{Backend: "carrier-pigeon", Interface: "wlan0"})
	assert.Error(t, err)
}

func TestSAEOverride(t *testing.T) {
	c := config{SAE: "auto"}
	v, err := c.saeOverride()
	require.NoError(t, err)
	assert.Nil(t, v)

	c.SAE = "off"
	v, err = c.saeOverride()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.False(t, *v)

	c.SAE = "maybe"
	_, err = c.saeOverride()
	assert.Error(t, err)
}

func TestRootCommandVersion(t *testing.T) {
	var out bytes.Buffer
	a := &app{stdout: &out, stderr: io.Discard}
	root := newRootCommand(a)
	require.NoError(t, root.ParseAndRun(context.Background(), []string{"-version"}))
	assert.Equal(t, Version+"\n", out.String())
}

func TestRootCommandClassify(t *testing.T) {
	var out bytes.Buffer
	a := &app{stdout: &out, stderr: io.Discard}
	root := newRootCommand(a)
	require.NoError(t, root.ParseAndRun(context.Background(), []string{"classify", "-sae=false", "[WPA2-SAE-CCMP][ESS]"}))
	assert.Contains(t, out.String(), "open")
}
