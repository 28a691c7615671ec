package wifi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ConnectRequest is what the presentation layer submits to join a network.
type ConnectRequest struct {
	SSID         string
	Password     string
	Capabilities string
	Hidden       bool
	// Security, when set, is used instead of classifying Capabilities. Hidden
	// networks have no scan result, so the user picks it.
	Security     *SecurityProfile
}

// ConnectResult is reported back to the presentation layer.
type ConnectResult struct {
	Success   bool
	Message   string
	NetworkID NetworkID
	Security  SecurityProfile
	Reason    FailureReason
}

// Status describes the currently enabled network.
type Status struct {
	ID   NetworkID
	SSID string
}

// Service is the surface the CLI and TUI use. It ties scanning, filtering,
// classification and the Manager together.
type Service struct {
	radio    Radio
	manager  *Manager
	platform Platform
	logger   *slog.Logger
	metrics  *Metrics
}

// ServiceConfig configures NewService.
type ServiceConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics
	// Rollback re-enables the previous network when a switch fails.
	Rollback bool
	// SAE overrides SAE detection when set.
	SAE *bool
}

// NewService creates a Service around radio.
func NewService(ctx context.Context, radio Radio, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var sae bool
	if cfg.SAE != nil {
		sae = *cfg.SAE
	} else {
		sae = radio.SupportsSAE(ctx)
	}
	logger.Debug("radio capabilities", "sae", sae)

	return &Service{
		radio: radio,
		manager: NewManager(radio, &ActiveState{},
			WithLogger(logger),
			WithMetrics(cfg.Metrics),
			WithRollback(cfg.Rollback),
		),
		platform: Platform{SupportsSAE: sae},
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// Platform returns the capabilities used for classification.
func (s *Service) Platform() Platform {
	return s.platform
}

// Manager returns the underlying connection manager.
func (s *Service) Manager() *Manager {
	return s.manager
}

// Scan asks the radio for a fresh scan without waiting for it.
func (s *Service) Scan(ctx context.Context) error {
	if err := s.radio.StartScan(ctx); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			s.logger.Warn("scan not permitted", "error", err)
			return nil
		}
		return fmt.Errorf("failed to start scan: %w", err)
	}
	return nil
}

// ListNearby returns the latest scan results, deduplicated by SSID when
// dedupe is set.
func (s *Service) ListNearby(ctx context.Context, dedupe bool) ([]ScanEntry, error) {
	entries, err := s.radio.ScanResults(ctx)
	if err != nil {
		if !errors.Is(err, ErrPermissionDenied) {
			return nil, fmt.Errorf("failed to read scan results: %w", err)
		}
		s.logger.Warn("scan results not permitted", "error", err)
		entries = nil
	}
	merged := Merge(entries, dedupe)
	s.metrics.observeScan(len(merged))
	return merged, nil
}

// ConfiguredNetworks lists networks known to the radio. A permission error
// yields an empty list.
func (s *Service) ConfiguredNetworks(ctx context.Context) ([]ConfiguredNetwork, error) {
	configured, err := s.radio.ConfiguredNetworks(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			s.logger.Warn("configured networks not permitted", "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list configured networks: %w", err)
	}
	return configured, nil
}

// Catalog splits the nearby networks into known and newly discovered ones.
func (s *Service) Catalog(ctx context.Context, dedupe bool) (Catalog, error) {
	nearby, err := s.ListNearby(ctx, dedupe)
	if err != nil {
		return Catalog{}, err
	}
	configured, err := s.ConfiguredNetworks(ctx)
	if err != nil {
		return Catalog{}, err
	}
	if !dedupe {
		// Merge returned the radio's slice; partition a copy.
		nearby = append([]ScanEntry(nil), nearby...)
	}
	known := PartitionKnown(&nearby, configured)
	return Catalog{Known: known, Nearby: nearby}, nil
}

// NeedsPassword reports whether joining a network with these capabilities
// requires a password.
func (s *Service) NeedsPassword(capabilities string) bool {
	return s.platform.Classify(capabilities) != SecurityOpen
}

// RequestConnect builds a profile for a visible network and connects to it.
func (s *Service) RequestConnect(ctx context.Context, ssid, password, capabilities string) ConnectResult {
	return s.Join(ctx, ConnectRequest{SSID: ssid, Password: password, Capabilities: capabilities})
}

// Join builds a profile from req and connects to it.
func (s *Service) Join(ctx context.Context, req ConnectRequest) ConnectResult {
	security := s.platform.Classify(req.Capabilities)
	if req.Security != nil {
		security = *req.Security
	} else if security == SecurityWPAPSK && (Platform{SupportsSAE: true}).Classify(req.Capabilities) == SecurityWPA3SAE {
		security = SecurityWPA3SAE
	}
	if security == SecurityWPA3SAE && !s.platform.SupportsSAE {
		s.logger.Info("network wants SAE but the radio does not support it, using WPA-PSK", "ssid", req.SSID)
	}
	profile := s.platform.ProfileFor(req.SSID, req.Password, req.Hidden, security)

	id, err := s.manager.Connect(ctx, profile)
	result := s.result(req.SSID, id, err)
	result.Security = profile.Security
	return result
}

// ConnectKnown enables a network the radio already has a profile for.
func (s *Service) ConnectKnown(ctx context.Context, ssid string) ConnectResult {
	configured, err := s.ConfiguredNetworks(ctx)
	if err != nil {
		return ConnectResult{Message: err.Error()}
	}
	for _, c := range configured {
		if c.SSID != ssid {
			continue
		}
		err := s.manager.Activate(ctx, c.ID, ssid)
		return s.result(ssid, c.ID, err)
	}
	return ConnectResult{Message: fmt.Sprintf("network %q is not configured: %s", ssid, ErrNotFound)}
}

// Status returns the enabled network as reported by the radio.
func (s *Service) Status(ctx context.Context) (Status, error) {
	id, err := s.radio.CurrentNetwork(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read current network: %w", err)
	}
	status := Status{ID: id}
	if id == NoNetwork {
		return status, nil
	}
	configured, err := s.ConfiguredNetworks(ctx)
	if err != nil {
		return status, err
	}
	for _, c := range configured {
		if c.ID == id {
			status.SSID = c.SSID
			break
		}
	}
	return status, nil
}

func (s *Service) result(ssid string, id NetworkID, err error) ConnectResult {
	if err == nil {
		return ConnectResult{
			Success:   true,
			Message:   fmt.Sprintf("connected to %q", ssid),
			NetworkID: id,
		}
	}
	result := ConnectResult{Message: err.Error(), NetworkID: id}
	var connectErr *ConnectError
	if errors.As(err, &connectErr) {
		result.Reason = connectErr.Reason
	}
	return result
}
