package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shazow/wifijoin/wifi"
	"github.com/shazow/wifijoin/wifi/mock"
	"github.com/shazow/wifijoin/wifi/nl80211"
	"github.com/shazow/wifijoin/wifi/wpacli"
)

// radioConfig selects and configures the radio backend.
type radioConfig struct {
	Backend        string
	Interface      string
	CtrlPath       string
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// interfaceName returns the configured interface, or the first wireless
// station the kernel reports.
func (c radioConfig) interfaceName() string {
	if c.Interface != "" {
		return c.Interface
	}
	name, err := nl80211.DefaultInterface()
	if err != nil {
		c.Logger.Debug("could not detect wireless interface, using wlan0", "error", err)
		return "wlan0"
	}
	c.Logger.Debug("detected wireless interface", "interface", name)
	return name
}

func newWpacliRadio(c radioConfig) (wifi.Radio, error) {
	return wpacli.New(c.interfaceName(),
		wpacli.WithCtrlPath(c.CtrlPath),
		wpacli.WithLogger(c.Logger),
		wpacli.WithAssociateTimeout(c.ConnectTimeout),
	)
}

func newMockRadio(c radioConfig) (wifi.Radio, error) {
	return mock.New()
}

// GetRadio returns the radio named by c.Backend.
func GetRadio(c radioConfig) (wifi.Radio, error) {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Backend == "" {
		c.Backend = defaultBackend
	}
	switch c.Backend {
	case "mock":
		return newMockRadio(c)
	case "wpacli":
		return newWpacliRadio(c)
	}
	radio, err := platformRadio(c)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", c.Backend, err)
	}
	return radio, nil
}
