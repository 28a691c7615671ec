package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shazow/wifijoin/internal/tui"
	"github.com/shazow/wifijoin/qrwifi"
	"github.com/shazow/wifijoin/wifi"
	"github.com/shazow/wifijoin/wifi/nl80211"
)

func runTUI(svc *wifi.Service, opts tui.Options) error {
	if err := tui.Run(svc, opts); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// listedNetwork is one row of `list` output.
type listedNetwork struct {
	SSID         string `json:"ssid"`
	BSSID        string `json:"bssid"`
	Security     string `json:"security"`
	Capabilities string `json:"capabilities"`
	Strength     uint8  `json:"strength"`
	Frequency    uint   `json:"frequency"`
	Known        bool   `json:"known"`
}

type listOptions struct {
	JSON bool
	// All keeps every access point instead of one row per SSID.
	All bool
}

func runList(ctx context.Context, w io.Writer, svc *wifi.Service, opts listOptions) error {
	catalog, err := svc.Catalog(ctx, !opts.All)
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}

	platform := svc.Platform()
	var rows []listedNetwork
	add := func(entries []wifi.ScanEntry, known bool) {
		wifi.SortEntries(entries)
		for _, e := range entries {
			rows = append(rows, listedNetwork{
				SSID:         e.SSID,
				BSSID:        e.BSSID,
				Security:     platform.Classify(e.Capabilities).String(),
				Capabilities: e.Capabilities,
				Strength:     e.Strength(),
				Frequency:    e.Frequency,
				Known:        known,
			})
		}
	}
	add(catalog.Known, true)
	add(catalog.Nearby, false)

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SSID\tSECURITY\tSIGNAL\tKNOWN")
	for _, r := range rows {
		ssid := r.SSID
		if ssid == "" {
			ssid = "(hidden)"
		}
		known := ""
		if r.Known {
			known = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\n", ssid, r.Security, r.Strength, known)
	}
	return tw.Flush()
}

func runKnown(ctx context.Context, w io.Writer, svc *wifi.Service) error {
	configured, err := svc.ConfiguredNetworks(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSSID\tSTATE")
	for _, c := range configured {
		state := "enabled"
		switch {
		case c.Current:
			state = "current"
		case c.Disabled:
			state = "disabled"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.SSID, state)
	}
	return tw.Flush()
}

type connectOptions struct {
	Password string
	Security string
	Hidden   bool
}

// runConnect joins ssid. Known networks are activated as they are unless a
// password is given; visible networks take their security from the scan;
// hidden ones from opts.Security.
func runConnect(ctx context.Context, w io.Writer, svc *wifi.Service, ssid string, opts connectOptions) error {
	var result wifi.ConnectResult
	if opts.Hidden {
		security, err := wifi.ParseSecurityProfile(opts.Security)
		if err != nil {
			return err
		}
		result = svc.Join(ctx, wifi.ConnectRequest{
			SSID:         ssid,
			Password:     opts.Password,
			Capabilities: wifi.DescriptorFor(security),
			Hidden:       true,
			Security:     &security,
		})
	} else {
		catalog, err := svc.Catalog(ctx, true)
		if err != nil {
			return err
		}
		entry, known, ok := findEntry(catalog, ssid)
		switch {
		case !ok:
			return fmt.Errorf("network %q is not in range (use -hidden to join a hidden network): %w", ssid, wifi.ErrNotFound)
		case known && opts.Password == "":
			result = svc.ConnectKnown(ctx, ssid)
		case svc.NeedsPassword(entry.Capabilities) && opts.Password == "":
			return fmt.Errorf("network %q needs a password (-password)", ssid)
		default:
			result = svc.RequestConnect(ctx, ssid, opts.Password, entry.Capabilities)
		}
	}

	if !result.Success {
		return errors.New(result.Message)
	}
	fmt.Fprintf(w, "%s (id %s)\n", result.Message, result.NetworkID)
	return nil
}

func findEntry(catalog wifi.Catalog, ssid string) (entry wifi.ScanEntry, known bool, ok bool) {
	for _, e := range catalog.Known {
		if e.SSID == ssid {
			return e, true, true
		}
	}
	for _, e := range catalog.Nearby {
		if e.SSID == ssid {
			return e, false, true
		}
	}
	return wifi.ScanEntry{}, false, false
}

// runClassify shows how a capability descriptor is interpreted and the
// profile that would be built for it.
func runClassify(w io.Writer, descriptor string, sae bool) error {
	platform := wifi.Platform{SupportsSAE: sae}
	p := platform.BuildProfile("example", "password", false, descriptor)

	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "descriptor:\t%s\n", strings.Join(wifi.Tokens(descriptor), " "))
	fmt.Fprintf(tw, "security:\t%s\n", p.Security)
	fmt.Fprintf(tw, "key_mgmt:\t%s\n", p.KeyMgmt)
	if p.AuthAlgorithms != 0 {
		fmt.Fprintf(tw, "auth_alg:\t%s\n", p.AuthAlgorithms)
	}
	if p.Protocols != 0 {
		fmt.Fprintf(tw, "proto:\t%s\n", p.Protocols)
	}
	if p.PairwiseCiphers != 0 {
		fmt.Fprintf(tw, "pairwise:\t%s\n", p.PairwiseCiphers)
	}
	if p.GroupCiphers != 0 {
		fmt.Fprintf(tw, "group:\t%s\n", p.GroupCiphers)
	}
	return tw.Flush()
}

// linkInfo is swapped out in tests.
var linkInfo = nl80211.LinkInfo

func runStatus(ctx context.Context, w io.Writer, svc *wifi.Service, iface string) error {
	status, err := svc.Status(ctx)
	if err != nil {
		return err
	}
	if status.ID == wifi.NoNetwork {
		fmt.Fprintln(w, "network: none")
	} else {
		fmt.Fprintf(w, "network: %s (id %s)\n", status.SSID, status.ID)
	}

	link, err := linkInfo(iface)
	if err != nil {
		fmt.Fprintf(w, "link: unavailable (%s)\n", err)
		return nil
	}
	if !link.Associated {
		fmt.Fprintf(w, "link: %s not associated\n", link.Interface)
		return nil
	}
	fmt.Fprintf(w, "link: %s associated with %s (%s), %d MHz, %d dBm\n",
		link.Interface, link.SSID, link.BSSID, link.Frequency, link.Signal)
	return nil
}

type qrOptions struct {
	Password string
	Security string
	Hidden   bool
	PNG      string
	Size     int
}

func runQR(w io.Writer, ssid string, opts qrOptions) error {
	security, err := wifi.ParseSecurityProfile(opts.Security)
	if err != nil {
		return err
	}
	if security != wifi.SecurityOpen && opts.Password == "" {
		return fmt.Errorf("%s networks need a password (-password)", security.Label())
	}
	content := qrwifi.ShareString(ssid, opts.Password, security, opts.Hidden)

	if opts.PNG != "" {
		if err := qrwifi.WriteFile(content, opts.PNG, opts.Size); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.PNG, err)
		}
		fmt.Fprintf(w, "wrote %s\n", opts.PNG)
		return nil
	}

	code, err := qrwifi.Terminal(content, false)
	if err != nil {
		return err
	}
	fmt.Fprint(w, code)
	fmt.Fprintln(w, content)
	return nil
}
