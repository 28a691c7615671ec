// Package wpacli drives wpa_supplicant through its wpa_cli control tool.
package wpacli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/shazow/wifijoin/wifi"
)

// Runner executes wpa_cli with args and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// runWithOutput wraps exec.Command to capture stderr and wrap errors.
func runWithOutput(c *exec.Cmd) ([]byte, error) {
	var stderr strings.Builder
	c.Stderr = &stderr
	out, err := c.Output()
	if err != nil {
		return out, classifyFailure(fmt.Errorf("failed to run command: %s: %w: %s", c.String(), err, stderr.String()), stderr.String()+string(out))
	}
	return out, nil
}

// classifyFailure attaches a sentinel to err based on what wpa_cli printed.
func classifyFailure(err error, output string) error {
	switch {
	case strings.Contains(output, "Permission denied"):
		return fmt.Errorf("%w: %w", wifi.ErrPermissionDenied, err)
	case strings.Contains(output, "Failed to connect"), strings.Contains(output, "Could not connect"):
		return fmt.Errorf("%w: %w", wifi.ErrNotAvailable, err)
	}
	return err
}

// ExecRunner runs the wpa_cli binary at path.
func ExecRunner(path string) Runner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		return runWithOutput(exec.CommandContext(ctx, path, args...))
	}
}

// Backend implements wifi.Radio on top of wpa_cli.
type Backend struct {
	Interface string
	// CtrlPath is the control socket directory, passed as -p when set.
	CtrlPath string
	// AssociateTimeout, when non-zero, makes EnableNetwork wait for the
	// supplicant to reach COMPLETED.
	AssociateTimeout time.Duration
	PollInterval     time.Duration

	run    Runner
	logger *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

func WithCtrlPath(path string) Option {
	return func(b *Backend) { b.CtrlPath = path }
}

func WithRunner(run Runner) Option {
	return func(b *Backend) { b.run = run }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// WithAssociateTimeout waits up to d for association after enabling.
func WithAssociateTimeout(d time.Duration) Option {
	return func(b *Backend) { b.AssociateTimeout = d }
}

// New creates a Backend for iface. Without WithRunner, wpa_cli is looked up
// in $PATH.
func New(iface string, opts ...Option) (*Backend, error) {
	b := &Backend{
		Interface:    iface,
		PollInterval: 500 * time.Millisecond,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.run == nil {
		path, err := exec.LookPath("wpa_cli")
		if err != nil {
			return nil, fmt.Errorf("wpa_cli not found: %w", wifi.ErrNotAvailable)
		}
		b.run = ExecRunner(path)
	}
	if b.Interface == "" {
		return nil, fmt.Errorf("no wireless interface given: %w", wifi.ErrNotAvailable)
	}
	return b, nil
}

func (b *Backend) cmd(ctx context.Context, args ...string) (string, error) {
	full := []string{"-i", b.Interface}
	if b.CtrlPath != "" {
		full = append(full, "-p", b.CtrlPath)
	}
	full = append(full, args...)
	out, err := b.run(ctx, full...)
	if err != nil {
		return "", err
	}
	reply := string(out)
	if strings.HasPrefix(reply, "Failed to connect") {
		return "", classifyFailure(fmt.Errorf("wpa_cli %s: %s", args[0], strings.TrimSpace(reply)), reply)
	}
	return reply, nil
}

// ctrl runs a command that answers OK or FAIL.
func (b *Backend) ctrl(ctx context.Context, args ...string) error {
	out, err := b.cmd(ctx, args...)
	if err != nil {
		return err
	}
	if !isOK(out) {
		return fmt.Errorf("wpa_cli %s: %s: %w", args[0], strings.TrimSpace(out), wifi.ErrOperationFailed)
	}
	return nil
}

func (b *Backend) StartScan(ctx context.Context) error {
	out, err := b.cmd(ctx, "scan")
	if err != nil {
		return err
	}
	// FAIL-BUSY means a scan is already running, which is what we asked for.
	if reply := strings.TrimSpace(out); reply != "OK" && reply != "FAIL-BUSY" {
		return fmt.Errorf("scan: %s: %w", reply, wifi.ErrOperationFailed)
	}
	return nil
}

func (b *Backend) ScanResults(ctx context.Context) ([]wifi.ScanEntry, error) {
	out, err := b.cmd(ctx, "scan_results")
	if err != nil {
		return nil, err
	}
	return parseScanResults(out), nil
}

func (b *Backend) ConfiguredNetworks(ctx context.Context) ([]wifi.ConfiguredNetwork, error) {
	out, err := b.cmd(ctx, "list_networks")
	if err != nil {
		return nil, err
	}
	return parseListNetworks(out), nil
}

// AddNetwork registers the profile with add_network and one set_network per
// field. If any field is refused the half-built network is removed.
func (b *Backend) AddNetwork(ctx context.Context, profile wifi.ConnectionProfile) (wifi.NetworkID, error) {
	out, err := b.cmd(ctx, "add_network")
	if err != nil {
		return wifi.NoNetwork, err
	}
	id, err := parseNetworkID(out)
	if err != nil {
		return wifi.NoNetwork, err
	}

	for _, s := range profileSettings(profile) {
		if err := b.ctrl(ctx, "set_network", string(id), s.key, s.value); err != nil {
			if rmErr := b.ctrl(ctx, "remove_network", string(id)); rmErr != nil {
				b.logger.Warn("failed to remove rejected network", "id", id, "error", rmErr)
			}
			if errors.Is(err, wifi.ErrOperationFailed) {
				return wifi.NoNetwork, fmt.Errorf("set_network %s: %w", s.key, wifi.ErrInvalidProfile)
			}
			return wifi.NoNetwork, err
		}
	}
	b.logger.Debug("added network", "id", id, "ssid", profile.Name())
	return id, nil
}

func (b *Backend) CurrentNetwork(ctx context.Context) (wifi.NetworkID, error) {
	out, err := b.cmd(ctx, "status")
	if err != nil {
		return wifi.NoNetwork, err
	}
	return wifi.NetworkID(parseStatus(out)["id"]), nil
}

func (b *Backend) DisableNetwork(ctx context.Context, id wifi.NetworkID) error {
	return b.ctrl(ctx, "disable_network", string(id))
}

// EnableNetwork enables id. With persistAsDefault the network is selected,
// which also disables every other network, then re-enabled so the others
// can still be picked by the supplicant later.
func (b *Backend) EnableNetwork(ctx context.Context, id wifi.NetworkID, persistAsDefault bool) error {
	if persistAsDefault {
		if err := b.ctrl(ctx, "select_network", string(id)); err != nil {
			return fmt.Errorf("%w: %w", wifi.ErrEnableRejected, err)
		}
	}
	if err := b.ctrl(ctx, "enable_network", string(id)); err != nil {
		return fmt.Errorf("%w: %w", wifi.ErrEnableRejected, err)
	}
	if b.AssociateTimeout > 0 {
		return b.waitAssociated(ctx, id)
	}
	return nil
}

func (b *Backend) waitAssociated(ctx context.Context, id wifi.NetworkID) error {
	ctx, cancel := context.WithTimeout(ctx, b.AssociateTimeout)
	defer cancel()

	ticker := time.NewTicker(b.PollInterval)
	defer ticker.Stop()
	for {
		out, err := b.cmd(ctx, "status")
		if err == nil {
			status := parseStatus(out)
			if status["wpa_state"] == "COMPLETED" && status["id"] == string(id) {
				return nil
			}
			b.logger.Debug("waiting for association", "id", id, "state", status["wpa_state"])
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("network %s did not associate within %s: %w", id, b.AssociateTimeout, wifi.ErrEnableRejected)
		case <-ticker.C:
		}
	}
}

func (b *Backend) SaveConfiguration(ctx context.Context) error {
	return b.ctrl(ctx, "save_config")
}

// SupportsSAE reports whether the driver and supplicant can do SAE key
// management.
func (b *Backend) SupportsSAE(ctx context.Context) bool {
	out, err := b.cmd(ctx, "get_capability", "key_mgmt")
	if err != nil {
		b.logger.Debug("failed to read key_mgmt capability", "error", err)
		return false
	}
	return hasCapability(out, "SAE")
}
