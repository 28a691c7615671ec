// Package nl80211 finds wireless interfaces and reads their link state
// from the kernel.
package nl80211

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	nlwifi "github.com/mdlayher/wifi"

	"github.com/shazow/wifijoin/wifi"
)

// Link is the association state of a station interface.
type Link struct {
	Interface  string
	Associated bool
	SSID       string
	BSSID      string
	Frequency  int // MHz
	Signal     int // dBm
}

// client is the subset of *nlwifi.Client used here.
type client interface {
	Interfaces() ([]*nlwifi.Interface, error)
	BSS(ifi *nlwifi.Interface) (*nlwifi.BSS, error)
	StationInfo(ifi *nlwifi.Interface) ([]*nlwifi.StationInfo, error)
	Close() error
}

var newClient = func() (client, error) {
	return nlwifi.New()
}

func mapError(err error) error {
	switch {
	case errors.Is(err, os.ErrPermission), errors.Is(err, syscall.EPERM):
		return fmt.Errorf("%w: %w", wifi.ErrPermissionDenied, err)
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", wifi.ErrNotAvailable, err)
	}
	return fmt.Errorf("nl80211: %w", err)
}

// Stations lists the names of station mode wireless interfaces.
func Stations() ([]string, error) {
	c, err := newClient()
	if err != nil {
		return nil, mapError(err)
	}
	defer c.Close()

	ifaces, err := c.Interfaces()
	if err != nil {
		return nil, mapError(err)
	}
	var names []string
	for _, ifi := range ifaces {
		if ifi.Type == nlwifi.InterfaceTypeStation && ifi.Name != "" {
			names = append(names, ifi.Name)
		}
	}
	return names, nil
}

// DefaultInterface returns the first station interface.
func DefaultInterface() (string, error) {
	names, err := Stations()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no wireless station interface: %w", wifi.ErrNotFound)
	}
	return names[0], nil
}

func findStation(ifaces []*nlwifi.Interface, name string) (*nlwifi.Interface, error) {
	for _, ifi := range ifaces {
		if ifi.Type != nlwifi.InterfaceTypeStation {
			continue
		}
		if name == "" || ifi.Name == name {
			return ifi, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no wireless station interface: %w", wifi.ErrNotFound)
	}
	return nil, fmt.Errorf("wireless interface %s: %w", name, wifi.ErrNotFound)
}

// LinkInfo reports the current association of iface, or of the first
// station interface when iface is empty.
func LinkInfo(iface string) (Link, error) {
	c, err := newClient()
	if err != nil {
		return Link{}, mapError(err)
	}
	defer c.Close()

	ifaces, err := c.Interfaces()
	if err != nil {
		return Link{}, mapError(err)
	}
	ifi, err := findStation(ifaces, iface)
	if err != nil {
		return Link{}, err
	}

	link := Link{Interface: ifi.Name}
	bss, err := c.BSS(ifi)
	if err != nil {
		// Not associated.
		if errors.Is(err, os.ErrNotExist) {
			return link, nil
		}
		return link, mapError(err)
	}
	link.Associated = bss.Status == nlwifi.BSSStatusAssociated
	link.SSID = bss.SSID
	link.Frequency = bss.Frequency
	if bss.BSSID != nil {
		link.BSSID = bss.BSSID.String()
	}

	stations, err := c.StationInfo(ifi)
	if err == nil && len(stations) > 0 {
		link.Signal = stations[0].Signal
	}
	return link, nil
}
