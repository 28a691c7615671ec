//go:build !linux

package main

import (
	"fmt"

	"github.com/shazow/wifijoin/wifi"
)

// Only wpa_cli is available off Linux.
func platformRadio(c radioConfig) (wifi.Radio, error) {
	if c.Backend == "auto" {
		return newWpacliRadio(c)
	}
	return nil, fmt.Errorf("unsupported backend %q on this platform: %w", c.Backend, wifi.ErrNotSupported)
}
