package wifi_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/wifijoin/wifi"
	"github.com/shazow/wifijoin/wifi/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRadio(t *testing.T) *mock.MockRadio {
	t.Helper()
	radio, err := mock.New()
	require.NoError(t, err)
	radio.ActionSleep = 0
	return radio
}

func opIndex(radio *mock.MockRadio, op string, id wifi.NetworkID) int {
	for i, c := range radio.Calls {
		if c.Op == op && c.ID == id {
			return i
		}
	}
	return -1
}

func TestManagerConnectSwitchesNetwork(t *testing.T) {
	ctx := context.Background()
	radio := newRadio(t)
	radio.Current = "0"
	reg := prometheus.NewRegistry()
	metrics := wifi.NewMetrics(reg)

	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()), wifi.WithMetrics(metrics))
	profile := wifi.Platform{}.BuildProfile("Cafe", "latte", false, "[WPA2-PSK-CCMP][ESS]")

	id, err := manager.Connect(ctx, profile)
	require.NoError(t, err)
	assert.NotEqual(t, wifi.NoNetwork, id)
	assert.Equal(t, id, manager.Active().Get())
	assert.Equal(t, wifi.StateConnected, manager.State())

	disables := radio.CallsTo("DisableNetwork")
	require.Len(t, disables, 1)
	assert.Equal(t, wifi.NetworkID("0"), disables[0].ID)

	disableAt := opIndex(radio, "DisableNetwork", "0")
	enableAt := opIndex(radio, "EnableNetwork", id)
	saveAt := opIndex(radio, "SaveConfiguration", "")
	assert.Less(t, disableAt, enableAt, "disable must precede enable")
	assert.Less(t, enableAt, saveAt, "enable must precede save")

	stored, ok := radio.Profile(id)
	require.True(t, ok)
	assert.Equal(t, profile, stored)
	assert.Equal(t, id, radio.Current)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ConnectAttempts.WithLabelValues("connected")))
}

func TestManagerConnectNoPreviousNetwork(t *testing.T) {
	radio := newRadio(t)
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()))

	_, err := manager.Connect(context.Background(), wifi.Platform{}.BuildProfile("Open", "", false, "[ESS]"))
	require.NoError(t, err)
	assert.Empty(t, radio.CallsTo("DisableNetwork"))
}

func TestManagerInvalidProfile(t *testing.T) {
	radio := newRadio(t)
	radio.Current = "1"
	radio.AddNetworkError = errors.New("FAIL")
	reg := prometheus.NewRegistry()
	metrics := wifi.NewMetrics(reg)
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()), wifi.WithMetrics(metrics))

	active := manager.Active().Get()
	_, err := manager.Connect(context.Background(), wifi.Platform{}.BuildProfile("Cafe", "x", false, "[WPA2-PSK-CCMP]"))

	require.Error(t, err)
	assert.ErrorIs(t, err, wifi.ErrInvalidProfile)
	assert.NotErrorIs(t, err, wifi.ErrEnableRejected)
	var connectErr *wifi.ConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, wifi.ReasonInvalidProfile, connectErr.Reason)
	assert.Contains(t, err.Error(), `"Cafe"`)

	assert.Equal(t, active, manager.Active().Get())
	assert.Equal(t, wifi.StateFailed, manager.State())
	assert.Empty(t, radio.CallsTo("CurrentNetwork"))
	assert.Empty(t, radio.CallsTo("DisableNetwork"))
	assert.Empty(t, radio.CallsTo("EnableNetwork"))
	assert.Equal(t, wifi.NetworkID("1"), radio.Current)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ConnectAttempts.WithLabelValues("invalid profile")))
}

func TestManagerEnableRejected(t *testing.T) {
	radio := newRadio(t)
	radio.Current = "0"
	radio.RejectEnable = map[wifi.NetworkID]bool{"2": true}
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()))

	id, err := manager.Connect(context.Background(), wifi.Platform{}.BuildProfile("Cafe", "x", false, "[WPA2-PSK-CCMP]"))
	require.Error(t, err)
	assert.Equal(t, wifi.NetworkID("2"), id)
	assert.ErrorIs(t, err, wifi.ErrEnableRejected)
	assert.Equal(t, wifi.StateFailed, manager.State())

	// Without rollback the previous network stays disabled.
	assert.Len(t, radio.CallsTo("EnableNetwork"), 1)
	assert.Equal(t, wifi.NoNetwork, radio.Current)
	assert.Equal(t, wifi.NoNetwork, manager.Active().Get())
	assert.Empty(t, radio.CallsTo("SaveConfiguration"))
}

func TestManagerEnableRejectedRollback(t *testing.T) {
	radio := newRadio(t)
	radio.Current = "0"
	radio.RejectEnable = map[wifi.NetworkID]bool{"2": true}
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()), wifi.WithRollback(true))

	_, err := manager.Connect(context.Background(), wifi.Platform{}.BuildProfile("Cafe", "x", false, "[WPA2-PSK-CCMP]"))
	require.ErrorIs(t, err, wifi.ErrEnableRejected)

	enables := radio.CallsTo("EnableNetwork")
	require.Len(t, enables, 2)
	assert.Equal(t, wifi.NetworkID("0"), enables[1].ID)
	assert.Equal(t, wifi.NetworkID("0"), radio.Current)
	assert.Equal(t, wifi.NetworkID("0"), manager.Active().Get())
}

func TestManagerCurrentReadFailure(t *testing.T) {
	radio := newRadio(t)
	radio.CurrentError = errors.New("ctrl socket closed")
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()))

	id, err := manager.Connect(context.Background(), wifi.Platform{}.BuildProfile("Cafe", "", false, "[ESS]"))
	require.NoError(t, err)
	assert.Empty(t, radio.CallsTo("DisableNetwork"))
	assert.Equal(t, id, manager.Active().Get())
}

func TestManagerSaveFailureStillConnects(t *testing.T) {
	radio := newRadio(t)
	radio.SaveError = errors.New("read-only config")
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()))

	id, err := manager.Connect(context.Background(), wifi.Platform{}.BuildProfile("Cafe", "", false, "[ESS]"))
	require.NoError(t, err)
	assert.Equal(t, id, manager.Active().Get())
	assert.Equal(t, wifi.StateConnected, manager.State())
}

func TestManagerActivateSameNetwork(t *testing.T) {
	radio := newRadio(t)
	radio.Current = "1"
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()))

	require.NoError(t, manager.Activate(context.Background(), "1", "GET off my LAN"))
	assert.Empty(t, radio.CallsTo("DisableNetwork"))
	assert.Equal(t, wifi.NetworkID("1"), manager.Active().Get())
}

func TestManagerSharedActiveState(t *testing.T) {
	radio := newRadio(t)
	active := &wifi.ActiveState{}
	first := wifi.NewManager(radio, active, wifi.WithLogger(discardLogger()))
	second := wifi.NewManager(radio, active, wifi.WithLogger(discardLogger()))

	require.NoError(t, first.Activate(context.Background(), "0", "Password is password"))
	assert.Equal(t, wifi.NetworkID("0"), second.Active().Get())

	require.NoError(t, second.Activate(context.Background(), "1", "GET off my LAN"))
	assert.Equal(t, wifi.NetworkID("1"), first.Active().Get())

	disables := radio.CallsTo("DisableNetwork")
	require.Len(t, disables, 1)
	assert.Equal(t, wifi.NetworkID("0"), disables[0].ID)
}

func TestConnectErrorMessage(t *testing.T) {
	err := &wifi.ConnectError{SSID: "x", Reason: wifi.ReasonEnableRejected, Err: errors.New("FAIL")}
	assert.Equal(t, `failed to connect to "x": radio refused to enable the network: FAIL`, err.Error())
	assert.True(t, errors.Is(err, wifi.ErrEnableRejected))
}

func TestConnectErrorWithoutReason(t *testing.T) {
	assert.Equal(t, "connection failed", (&wifi.ConnectError{}).Error())
	assert.Equal(t, `failed to connect to "x": boom`, (&wifi.ConnectError{SSID: "x", Err: errors.New("boom")}).Error())
}

// blockingRadio holds the first EnableNetwork call until release is closed.
type blockingRadio struct {
	*mock.MockRadio
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRadio) EnableNetwork(ctx context.Context, id wifi.NetworkID, persistAsDefault bool) error {
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return r.MockRadio.EnableNetwork(ctx, id, persistAsDefault)
}

func TestManagerSerializesConnects(t *testing.T) {
	ctx := context.Background()
	radio := &blockingRadio{
		MockRadio: newRadio(t),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	manager := wifi.NewManager(radio, nil, wifi.WithLogger(discardLogger()))
	first := wifi.Platform{}.BuildProfile("First", "password1", false, "[WPA2-PSK-CCMP][ESS]")
	second := wifi.Platform{}.BuildProfile("Second", "password2", false, "[WPA2-PSK-CCMP][ESS]")

	var wg sync.WaitGroup
	var secondID wifi.NetworkID
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := manager.Connect(ctx, first)
		assert.NoError(t, err)
	}()
	<-radio.entered

	go func() {
		defer wg.Done()
		id, err := manager.Connect(ctx, second)
		assert.NoError(t, err)
		secondID = id
	}()

	// Long enough for the second attempt to reach the radio if it were not
	// queued behind the first.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, radio.CallsTo("AddNetwork"), 1, "second attempt started before the first finished")

	close(radio.release)
	wg.Wait()

	var adds []int
	firstSave := -1
	for i, c := range radio.Calls {
		switch c.Op {
		case "AddNetwork":
			adds = append(adds, i)
		case "SaveConfiguration":
			if firstSave < 0 {
				firstSave = i
			}
		}
	}
	require.Len(t, adds, 2)
	require.GreaterOrEqual(t, firstSave, 0)
	assert.Less(t, firstSave, adds[1], "first attempt completes before the second registers")
	assert.Equal(t, secondID, manager.Active().Get())
	assert.Equal(t, wifi.StateConnected, manager.State())
}
