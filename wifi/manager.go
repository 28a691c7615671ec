package wifi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// AttemptState is the state of the most recent connection attempt.
type AttemptState int

const (
	StateIdle AttemptState = iota
	StateNegotiating
	StateConnected
	StateFailed
)

func (s AttemptState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("AttemptState(%d)", int(s))
}

// FailureReason says why an attempt failed.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonInvalidProfile
	ReasonEnableRejected
)

func (r FailureReason) String() string {
	switch r {
	case ReasonInvalidProfile:
		return "invalid profile"
	case ReasonEnableRejected:
		return "enable rejected"
	}
	return "none"
}

func (r FailureReason) sentinel() error {
	switch r {
	case ReasonInvalidProfile:
		return ErrInvalidProfile
	case ReasonEnableRejected:
		return ErrEnableRejected
	}
	return nil
}

// ConnectError is returned by Manager when an attempt fails. errors.Is
// matches it against ErrInvalidProfile or ErrEnableRejected.
type ConnectError struct {
	SSID   string
	Reason FailureReason
	Err    error
}

func (e *ConnectError) Error() string {
	var msg string
	switch sentinel := e.Reason.sentinel(); {
	case sentinel != nil:
		msg = sentinel.Error()
		if e.Err != nil && !errors.Is(e.Err, sentinel) {
			msg = fmt.Sprintf("%s: %s", msg, e.Err)
		}
	case e.Err != nil:
		msg = e.Err.Error()
	default:
		msg = "connection failed"
	}
	if e.SSID == "" {
		return msg
	}
	return fmt.Sprintf("failed to connect to %q: %s", e.SSID, msg)
}

func (e *ConnectError) Unwrap() error { return e.Err }

func (e *ConnectError) Is(target error) bool {
	return target == e.Reason.sentinel()
}

// ActiveState tracks the single network this process considers enabled.
type ActiveState struct {
	mu sync.Mutex
	id NetworkID
}

// Get returns the enabled network, or NoNetwork.
func (s *ActiveState) Get() NetworkID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *ActiveState) set(id NetworkID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// Manager switches the enabled network on a Radio, one attempt at a time.
type Manager struct {
	radio    Radio
	active   *ActiveState
	logger   *slog.Logger
	metrics  *Metrics
	rollback bool

	// mu serializes attempts; the radio's active network slot has a single
	// writer.
	mu    sync.Mutex
	state AttemptState
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics records attempt outcomes.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithRollback re-enables the previously enabled network when enabling the
// new one fails. Without it a failed attempt may leave no network enabled.
func WithRollback(rollback bool) ManagerOption {
	return func(m *Manager) { m.rollback = rollback }
}

// NewManager creates a Manager. A nil active state is replaced by a fresh one.
func NewManager(radio Radio, active *ActiveState, opts ...ManagerOption) *Manager {
	if active == nil {
		active = &ActiveState{}
	}
	m := &Manager{
		radio:  radio,
		active: active,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Active returns the shared active state.
func (m *Manager) Active() *ActiveState {
	return m.active
}

// State returns the state of the latest attempt.
func (m *Manager) State() AttemptState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect registers profile with the radio and makes it the only enabled
// network. On failure the returned error is a *ConnectError.
func (m *Manager) Connect(ctx context.Context, profile ConnectionProfile) (NetworkID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ssid := profile.Name()
	m.transition(StateNegotiating, "ssid", ssid)

	id, err := m.radio.AddNetwork(ctx, profile)
	if err != nil {
		return NoNetwork, m.fail(ssid, ReasonInvalidProfile, err)
	}
	m.logger.Debug("registered network", "ssid", ssid, "id", id, "security", profile.Security)

	if err := m.switchTo(ctx, ssid, id); err != nil {
		return id, err
	}
	return id, nil
}

// Activate makes an already registered network the only enabled one.
func (m *Manager) Activate(ctx context.Context, id NetworkID, ssid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transition(StateNegotiating, "ssid", ssid, "id", id)
	return m.switchTo(ctx, ssid, id)
}

// switchTo disables the current network, then enables id. The caller holds
// m.mu.
func (m *Manager) switchTo(ctx context.Context, ssid string, id NetworkID) error {
	previous, err := m.radio.CurrentNetwork(ctx)
	if err != nil {
		m.logger.Warn("failed to read current network, assuming none", "error", err)
		previous = NoNetwork
	}
	m.active.set(previous)

	// Disabling must finish before enabling starts.
	if previous != NoNetwork && previous != id {
		if err := m.radio.DisableNetwork(ctx, previous); err != nil {
			m.logger.Warn("failed to disable previous network", "id", previous, "error", err)
		}
	}

	if err := m.radio.EnableNetwork(ctx, id, true); err != nil {
		m.afterEnableFailure(ctx, previous, id)
		return m.fail(ssid, ReasonEnableRejected, err)
	}

	if err := m.radio.SaveConfiguration(ctx); err != nil {
		m.logger.Warn("failed to save configuration", "error", err)
	}
	m.active.set(id)
	m.metrics.observeAttempt("connected")
	m.transition(StateConnected, "ssid", ssid, "id", id)
	return nil
}

func (m *Manager) afterEnableFailure(ctx context.Context, previous, id NetworkID) {
	if m.rollback && previous != NoNetwork && previous != id {
		if err := m.radio.EnableNetwork(ctx, previous, false); err != nil {
			m.logger.Warn("rollback to previous network failed", "id", previous, "error", err)
		} else {
			m.logger.Info("rolled back to previous network", "id", previous)
		}
	}

	current, err := m.radio.CurrentNetwork(ctx)
	if err != nil {
		m.logger.Warn("failed to read current network after failure", "error", err)
		current = NoNetwork
	}
	m.active.set(current)
}

func (m *Manager) fail(ssid string, reason FailureReason, err error) error {
	m.metrics.observeAttempt(reason.String())
	m.transition(StateFailed, "ssid", ssid, "reason", reason, "error", err)
	return &ConnectError{SSID: ssid, Reason: reason, Err: err}
}

func (m *Manager) transition(state AttemptState, args ...any) {
	m.state = state
	level := slog.LevelDebug
	switch state {
	case StateConnected:
		level = slog.LevelInfo
	case StateFailed:
		level = slog.LevelWarn
	}
	m.logger.Log(context.Background(), level, "connection "+state.String(), args...)
}
