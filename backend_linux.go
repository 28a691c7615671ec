//go:build linux

package main

import (
	"fmt"

	"github.com/shazow/wifijoin/wifi"
	"github.com/shazow/wifijoin/wifi/networkmanager"
	"github.com/shazow/wifijoin/wifi/supplicant"
)

func newSupplicantRadio(c radioConfig) (wifi.Radio, error) {
	b, err := supplicant.New(c.interfaceName(), c.Logger)
	if err != nil {
		return nil, err
	}
	b.AssociateTimeout = c.ConnectTimeout
	return b, nil
}

func newNetworkManagerRadio(c radioConfig) (wifi.Radio, error) {
	return networkmanager.New(c.Interface, c.Logger)
}

func platformRadio(c radioConfig) (wifi.Radio, error) {
	switch c.Backend {
	case "supplicant":
		return newSupplicantRadio(c)
	case "networkmanager":
		return newNetworkManagerRadio(c)
	case "auto":
	default:
		return nil, fmt.Errorf("unknown backend %q: %w", c.Backend, wifi.ErrNotSupported)
	}

	// wpa_supplicant is tried first since NetworkManager usually drives it,
	// and talking to it directly keeps numeric network ids.
	r, err := newSupplicantRadio(c)
	if err == nil {
		return r, nil
	}
	c.Logger.Info("wpa_supplicant backend unavailable, trying networkmanager", "error", err)

	r, err = newNetworkManagerRadio(c)
	if err == nil {
		return r, nil
	}
	c.Logger.Info("networkmanager backend unavailable, trying wpa_cli", "error", err)

	return newWpacliRadio(c)
}
