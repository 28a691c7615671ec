package nl80211

import (
	"errors"
	"net"
	"os"
	"testing"

	nlwifi "github.com/mdlayher/wifi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/wifijoin/wifi"
)

type fakeClient struct {
	ifaces   []*nlwifi.Interface
	bss      *nlwifi.BSS
	bssErr   error
	stations []*nlwifi.StationInfo
	closed   bool
}

func (f *fakeClient) Interfaces() ([]*nlwifi.Interface, error) { return f.ifaces, nil }
func (f *fakeClient) BSS(*nlwifi.Interface) (*nlwifi.BSS, error) {
	return f.bss, f.bssErr
}
func (f *fakeClient) StationInfo(*nlwifi.Interface) ([]*nlwifi.StationInfo, error) {
	return f.stations, nil
}
func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func withClient(t *testing.T, c client, err error) {
	t.Helper()
	orig := newClient
	newClient = func() (client, error) { return c, err }
	t.Cleanup(func() { newClient = orig })
}

var testIfaces = []*nlwifi.Interface{
	{Name: "p2p-dev-wlan0", Type: nlwifi.InterfaceTypeP2PDevice},
	{Name: "wlan0", Type: nlwifi.InterfaceTypeStation},
	{Name: "wlan1", Type: nlwifi.InterfaceTypeStation},
	{Name: "ap0", Type: nlwifi.InterfaceTypeAP},
}

func TestStations(t *testing.T) {
	fake := &fakeClient{ifaces: testIfaces}
	withClient(t, fake, nil)

	names, err := Stations()
	require.NoError(t, err)
	assert.Equal(t, []string{"wlan0", "wlan1"}, names)
	assert.True(t, fake.closed)

	name, err := DefaultInterface()
	require.NoError(t, err)
	assert.Equal(t, "wlan0", name)
}

func TestDefaultInterfaceNone(t *testing.T) {
	withClient(t, &fakeClient{ifaces: testIfaces[3:]}, nil)
	_, err := DefaultInterface()
	assert.ErrorIs(t, err, wifi.ErrNotFound)
}

func TestClientPermission(t *testing.T) {
	withClient(t, nil, os.ErrPermission)
	_, err := Stations()
	assert.ErrorIs(t, err, wifi.ErrPermissionDenied)
}

func TestLinkInfo(t *testing.T) {
	bssid, _ := net.ParseMAC("00:11:22:33:44:55")
	withClient(t, &fakeClient{
		ifaces: testIfaces,
		bss: &nlwifi.BSS{
			SSID:      "home",
			BSSID:     bssid,
			Frequency: 5180,
			Status:    nlwifi.BSSStatusAssociated,
		},
		stations: []*nlwifi.StationInfo{{Signal: -47}},
	}, nil)

	link, err := LinkInfo("wlan1")
	require.NoError(t, err)
	assert.Equal(t, Link{
		Interface:  "wlan1",
		Associated: true,
		SSID:       "home",
		BSSID:      "00:11:22:33:44:55",
		Frequency:  5180,
		Signal:     -47,
	}, link)

	_, err = LinkInfo("eth0")
	assert.ErrorIs(t, err, wifi.ErrNotFound)
}

func TestLinkInfoNotAssociated(t *testing.T) {
	withClient(t, &fakeClient{ifaces: testIfaces, bssErr: os.ErrNotExist}, nil)

	link, err := LinkInfo("")
	require.NoError(t, err)
	assert.Equal(t, Link{Interface: "wlan0"}, link)
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(os.ErrNotExist), wifi.ErrNotAvailable)
	boom := errors.New("boom")
	assert.ErrorIs(t, mapError(boom), boom)
}
