package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	ScanOff     = 0
	ScanDefault = 10 * time.Second
)

// scanTickMsg carries the generation of the loop that scheduled it, so ticks
// from a loop that was stopped are dropped.
type scanTickMsg struct{ gen int }

// ScanSchedule triggers scans at a regular interval.
type ScanSchedule struct {
	callback tea.Cmd
	interval time.Duration
	every    time.Duration
	gen      int
}

// NewScanSchedule creates a stopped ScanSchedule that runs callback every
// interval once enabled.
func NewScanSchedule(callback tea.Cmd, interval time.Duration) *ScanSchedule {
	if interval <= 0 {
		interval = ScanDefault
	}
	return &ScanSchedule{
		callback: callback,
		every:    interval,
	}
}

// Enabled reports whether the schedule is running.
func (s *ScanSchedule) Enabled() bool {
	return s.interval != ScanOff
}

// Toggle enables or disables the scan schedule.
func (s *ScanSchedule) Toggle() (bool, tea.Cmd) {
	if s.Enabled() {
		return false, s.SetSchedule(ScanOff)
	}
	return true, s.SetSchedule(s.every)
}

// SetSchedule sets the scan interval. Starting the schedule scans right away.
func (s *ScanSchedule) SetSchedule(interval time.Duration) tea.Cmd {
	wasOff := !s.Enabled()
	s.interval = interval
	if interval == ScanOff {
		s.gen++
		return nil
	}
	if wasOff {
		s.gen++
		return tea.Batch(s.callback, s.tick())
	}
	return nil
}

// Update handles messages for the ScanSchedule.
func (s *ScanSchedule) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(scanTickMsg)
	if !ok || !s.Enabled() || tick.gen != s.gen {
		return nil
	}
	return tea.Batch(s.callback, s.tick())
}

func (s *ScanSchedule) tick() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return scanTickMsg{gen: gen}
	})
}
