package wifi_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/wifijoin/wifi"
	"github.com/shazow/wifijoin/wifi/mock"
)

func newService(t *testing.T, cfg wifi.ServiceConfig) (*wifi.Service, *mock.MockRadio) {
	t.Helper()
	radio := newRadio(t)
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return wifi.NewService(context.Background(), radio, cfg), radio
}

func TestServiceDetectsSAE(t *testing.T) {
	svc, _ := newService(t, wifi.ServiceConfig{})
	assert.True(t, svc.Platform().SupportsSAE)

	off := false
	svc, _ = newService(t, wifi.ServiceConfig{SAE: &off})
	assert.False(t, svc.Platform().SupportsSAE)
}

func TestServiceCatalog(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := wifi.NewMetrics(reg)
	svc, radio := newService(t, wifi.ServiceConfig{Metrics: metrics})

	catalog, err := svc.Catalog(context.Background(), true)
	require.NoError(t, err)

	var known []string
	for _, e := range catalog.Known {
		known = append(known, e.SSID)
	}
	assert.Equal(t, []string{"Password is password"}, known)

	count := 0
	for _, e := range catalog.Nearby {
		if e.SSID == "Multi-AP Network" {
			count++
		}
		assert.NotEqual(t, "Password is password", e.SSID)
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, float64(len(radio.Visible)-1), testutil.ToFloat64(metrics.ScanEntries))

	raw, err := svc.Catalog(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, raw.Nearby, len(radio.Visible)-1)
	assert.Len(t, radio.Visible, 10, "radio scan results must not be rewritten")
}

func TestServicePermissionDenied(t *testing.T) {
	svc, radio := newService(t, wifi.ServiceConfig{})
	radio.ScanResultsError = fmt.Errorf("scan: %w", wifi.ErrPermissionDenied)
	radio.ConfiguredError = fmt.Errorf("list: %w", wifi.ErrPermissionDenied)
	radio.StartScanError = fmt.Errorf("scan: %w", wifi.ErrPermissionDenied)

	require.NoError(t, svc.Scan(context.Background()))
	catalog, err := svc.Catalog(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, catalog.Known)
	assert.Empty(t, catalog.Nearby)
}

func TestServiceScanError(t *testing.T) {
	svc, radio := newService(t, wifi.ServiceConfig{})
	radio.ScanResultsError = wifi.ErrNotAvailable

	_, err := svc.ListNearby(context.Background(), true)
	assert.ErrorIs(t, err, wifi.ErrNotAvailable)
}

func TestServiceNeedsPassword(t *testing.T) {
	svc, _ := newService(t, wifi.ServiceConfig{})
	assert.True(t, svc.NeedsPassword("[WPA2-PSK-CCMP][ESS]"))
	assert.True(t, svc.NeedsPassword("[WEP][ESS]"))
	assert.True(t, svc.NeedsPassword("[WPA2-SAE-CCMP][ESS]"))
	assert.False(t, svc.NeedsPassword("[ESS]"))
	assert.False(t, svc.NeedsPassword(""))
}

func TestServiceRequestConnect(t *testing.T) {
	svc, radio := newService(t, wifi.ServiceConfig{})

	result := svc.RequestConnect(context.Background(), "TacoBoutAGoodSignal", "tacos", "[WPA2-SAE-CCMP][ESS][MFPR]")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, wifi.SecurityWPA3SAE, result.Security)
	assert.Equal(t, `connected to "TacoBoutAGoodSignal"`, result.Message)

	profile, ok := radio.Profile(result.NetworkID)
	require.True(t, ok)
	assert.Equal(t, `"TacoBoutAGoodSignal"`, profile.SSID)
	assert.Equal(t, `"tacos"`, profile.PreSharedKey)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wifi.Status{ID: result.NetworkID, SSID: "TacoBoutAGoodSignal"}, status)
}

func TestServiceJoinFallsBackToPSK(t *testing.T) {
	off := false
	svc, radio := newService(t, wifi.ServiceConfig{SAE: &off})

	result := svc.Join(context.Background(), wifi.ConnectRequest{
		SSID:         "Police Surveillance 2",
		Password:     "hunter2",
		Capabilities: "[WPA2-PSK+SAE-CCMP][ESS]",
	})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, wifi.SecurityWPAPSK, result.Security)

	profile, _ := radio.Profile(result.NetworkID)
	assert.Equal(t, wifi.KeyMgmtWPAPSK, profile.KeyMgmt)
}

func TestServiceJoinHiddenWPA3FallsBackToPSK(t *testing.T) {
	off := false
	svc, radio := newService(t, wifi.ServiceConfig{SAE: &off})

	security := wifi.SecurityWPA3SAE
	result := svc.Join(context.Background(), wifi.ConnectRequest{
		SSID:         "Hidden",
		Password:     "s3cretpass",
		Capabilities: wifi.DescriptorFor(security),
		Hidden:       true,
		Security:     &security,
	})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, wifi.SecurityWPAPSK, result.Security)

	profile, ok := radio.Profile(result.NetworkID)
	require.True(t, ok)
	assert.True(t, profile.Hidden)
	assert.Equal(t, wifi.KeyMgmtWPAPSK, profile.KeyMgmt)
	assert.Equal(t, `"s3cretpass"`, profile.PreSharedKey)
}

func TestServiceJoinExplicitSecurity(t *testing.T) {
	svc, radio := newService(t, wifi.ServiceConfig{})

	security := wifi.SecurityWPA3SAE
	result := svc.Join(context.Background(), wifi.ConnectRequest{
		SSID:     "Hidden",
		Password: "s3cretpass",
		Hidden:   true,
		Security: &security,
	})
	require.True(t, result.Success, result.Message)

	profile, _ := radio.Profile(result.NetworkID)
	assert.Equal(t, wifi.SecurityWPA3SAE, profile.Security)
	assert.Equal(t, wifi.KeyMgmtSAE, profile.KeyMgmt)
}

func TestServiceJoinHidden(t *testing.T) {
	svc, radio := newService(t, wifi.ServiceConfig{})

	result := svc.Join(context.Background(), wifi.ConnectRequest{
		SSID:         "Basement",
		Password:     "abcde",
		Capabilities: wifi.DescriptorFor(wifi.SecurityWEP),
		Hidden:       true,
	})
	require.True(t, result.Success, result.Message)

	profile, _ := radio.Profile(result.NetworkID)
	assert.True(t, profile.Hidden)
	assert.Equal(t, `"abcde"`, profile.WEPKeys[0])
}

func TestServiceRequestConnectFailure(t *testing.T) {
	svc, _ := newService(t, wifi.ServiceConfig{})

	result := svc.RequestConnect(context.Background(), "", "", "[ESS]")
	assert.False(t, result.Success)
	assert.Equal(t, wifi.ReasonInvalidProfile, result.Reason)
	assert.Contains(t, result.Message, "radio rejected the profile")
}

func TestServiceConnectKnown(t *testing.T) {
	svc, radio := newService(t, wifi.ServiceConfig{})
	radio.Current = "0"

	result := svc.ConnectKnown(context.Background(), "GET off my LAN")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, wifi.NetworkID("1"), result.NetworkID)
	assert.Equal(t, wifi.NetworkID("1"), svc.Manager().Active().Get())
	assert.Len(t, radio.CallsTo("AddNetwork"), 0)

	result = svc.ConnectKnown(context.Background(), "Nowhere")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not configured")
}

func TestServiceStatusIdle(t *testing.T) {
	svc, _ := newService(t, wifi.ServiceConfig{})
	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wifi.NoNetwork, status.ID)
	assert.Empty(t, status.SSID)
}
