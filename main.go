package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	wifilog "github.com/shazow/wifijoin/internal/log"
	"github.com/shazow/wifijoin/internal/tui"
	"github.com/shazow/wifijoin/wifi"
)

var (
	// Version is the version of the application. It is set at build time.
	Version string = "dev"
)

// config holds the root flags.
type config struct {
	Backend        string
	Interface      string
	CtrlPath       string
	SAE            string
	Rollback       bool
	ConnectTimeout time.Duration
	LogLevel       string
	LogFile        string
	Theme          string
	MetricsAddr    string
	AutoScan       bool
	ScanInterval   time.Duration
}

func (c *config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Backend, "backend", defaultBackend, "radio backend: auto, wpacli, supplicant, networkmanager, mock")
	fs.StringVar(&c.Interface, "interface", "", "wireless interface (default: first station found)")
	fs.StringVar(&c.CtrlPath, "ctrl-path", "", "wpa_supplicant control socket directory (wpacli backend)")
	fs.StringVar(&c.SAE, "sae", "auto", "WPA3-SAE support: auto, on, off")
	fs.BoolVar(&c.Rollback, "rollback", false, "re-enable the previous network when a switch fails")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", 15*time.Second, "time to wait for association, 0 to not wait")
	fs.StringVar(&c.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFile, "log-file", "", "write logs to this file")
	fs.StringVar(&c.Theme, "theme", "", "path to theme toml file")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9120")
	fs.BoolVar(&c.AutoScan, "auto-scan", false, "start the TUI with periodic scanning")
	fs.DurationVar(&c.ScanInterval, "scan-interval", tui.ScanDefault, "time between scans when auto-scan is on")
}

func (c *config) saeOverride() (*bool, error) {
	switch strings.ToLower(c.SAE) {
	case "auto", "":
		return nil, nil
	case "on", "true", "yes":
		v := true
		return &v, nil
	case "off", "false", "no":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("invalid -sae value %q", c.SAE)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// app lazily sets up logging and the service for the command being run.
type app struct {
	cfg     config
	stdout  io.Writer
	stderr  io.Writer
	logFile *os.File
	logger  *slog.Logger
}

// setupLogging logs to stderr, or only to -log-file when the TUI owns the
// terminal.
func (a *app) setupLogging(interactive bool) error {
	level, err := parseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid -log-level: %w", err)
	}

	var w io.Writer = a.stderr
	if interactive {
		w = io.Discard
	}
	if a.cfg.LogFile != "" {
		f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		w = f
	}

	a.logger = wifilog.Init(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", a.cfg.MetricsAddr)
}

// service opens the radio and wraps it in a Service.
func (a *app) service(ctx context.Context, interactive bool) (*wifi.Service, error) {
	if err := a.setupLogging(interactive); err != nil {
		return nil, err
	}
	sae, err := a.cfg.saeOverride()
	if err != nil {
		return nil, err
	}

	radio, err := GetRadio(radioConfig{
		Backend:        a.cfg.Backend,
		Interface:      a.cfg.Interface,
		CtrlPath:       a.cfg.CtrlPath,
		ConnectTimeout: a.cfg.ConnectTimeout,
		Logger:         a.logger,
	})
	if err != nil {
		return nil, err
	}

	var metrics *wifi.Metrics
	if a.cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = wifi.NewMetrics(reg)
		a.serveMetrics(reg)
	}

	return wifi.NewService(ctx, radio, wifi.ServiceConfig{
		Logger:   a.logger,
		Metrics:  metrics,
		Rollback: a.cfg.Rollback,
		SAE:      sae,
	}), nil
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *app) loadTheme() error {
	if a.cfg.Theme == "" {
		return nil
	}
	f, err := os.Open(a.cfg.Theme)
	if err != nil {
		return fmt.Errorf("error loading theme: %w", err)
	}
	defer f.Close()
	theme, err := tui.LoadTheme(f)
	if err != nil {
		return fmt.Errorf("error loading theme %s: %w", a.cfg.Theme, err)
	}
	tui.CurrentTheme = theme
	return nil
}

func newRootCommand(a *app) *ffcli.Command {
	rootFlagSet := flag.NewFlagSet("wifijoin", flag.ContinueOnError)
	a.cfg.register(rootFlagSet)
	version := rootFlagSet.Bool("version", false, "display version")
	_ = rootFlagSet.String("config", "", "config file with one 'flag value' per line (env: WIFIJOIN_CONFIG)")

	listFlagSet := flag.NewFlagSet("list", flag.ContinueOnError)
	listJSON := listFlagSet.Bool("json", false, "output in JSON format")
	listAll := listFlagSet.Bool("all", false, "show every access point instead of one per network")
	listScan := listFlagSet.Bool("scan", false, "trigger a scan first")
	listCmd := &ffcli.Command{
		Name:       "list",
		ShortUsage: "wifijoin list [-json] [-all] [-scan]",
		ShortHelp:  "List nearby wifi networks",
		FlagSet:    listFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			if *listScan {
				if err := svc.Scan(ctx); err != nil {
					return err
				}
				// Results trickle in after the scan is triggered.
				time.Sleep(2 * time.Second)
			}
			return runList(ctx, a.stdout, svc, listOptions{JSON: *listJSON, All: *listAll})
		},
	}

	knownCmd := &ffcli.Command{
		Name:      "known",
		ShortHelp: "List networks the radio has a profile for",
		Exec: func(ctx context.Context, args []string) error {
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			return runKnown(ctx, a.stdout, svc)
		},
	}

	connectFlagSet := flag.NewFlagSet("connect", flag.ContinueOnError)
	var connectOpts connectOptions
	connectFlagSet.StringVar(&connectOpts.Password, "password", "", "password for the network")
	connectFlagSet.StringVar(&connectOpts.Security, "security", "wpa", "security of a hidden network: open, wep, wpa, wpa3")
	connectFlagSet.BoolVar(&connectOpts.Hidden, "hidden", false, "network is hidden")
	connectCmd := &ffcli.Command{
		Name:       "connect",
		ShortUsage: "wifijoin connect [-password PASSWORD] [-hidden -security TYPE] <ssid>",
		ShortHelp:  "Connect to a wifi network",
		FlagSet:    connectFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("connect requires an ssid")
			}
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			return runConnect(ctx, a.stdout, svc, args[0], connectOpts)
		},
	}

	classifyFlagSet := flag.NewFlagSet("classify", flag.ContinueOnError)
	classifySAE := classifyFlagSet.Bool("sae", true, "assume the radio supports WPA3-SAE")
	classifyCmd := &ffcli.Command{
		Name:       "classify",
		ShortUsage: "wifijoin classify <descriptor>",
		ShortHelp:  "Show how a capability descriptor such as [WPA2-PSK-CCMP][ESS] is joined",
		FlagSet:    classifyFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("classify requires a descriptor")
			}
			return runClassify(a.stdout, strings.Join(args, ""), *classifySAE)
		},
	}

	statusCmd := &ffcli.Command{
		Name:      "status",
		ShortHelp: "Show the current network and link",
		Exec: func(ctx context.Context, args []string) error {
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			return runStatus(ctx, a.stdout, svc, a.cfg.Interface)
		},
	}

	qrFlagSet := flag.NewFlagSet("qr", flag.ContinueOnError)
	var qrOpts qrOptions
	qrFlagSet.StringVar(&qrOpts.Password, "password", "", "password for the network")
	qrFlagSet.StringVar(&qrOpts.Security, "security", "wpa", "security: open, wep, wpa, wpa3")
	qrFlagSet.BoolVar(&qrOpts.Hidden, "hidden", false, "network is hidden")
	qrFlagSet.StringVar(&qrOpts.PNG, "png", "", "write a PNG to this path instead of printing")
	qrFlagSet.IntVar(&qrOpts.Size, "size", 256, "PNG size in pixels")
	qrCmd := &ffcli.Command{
		Name:       "qr",
		ShortUsage: "wifijoin qr [-password PASSWORD] [-security TYPE] <ssid>",
		ShortHelp:  "Show a QR code that joins a phone to a network",
		FlagSet:    qrFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("qr requires an ssid")
			}
			return runQR(a.stdout, args[0], qrOpts)
		},
	}

	return &ffcli.Command{
		ShortUsage:  "wifijoin [flags] <subcommand> [args...]",
		ShortHelp:   "Find and join wifi networks",
		FlagSet:     rootFlagSet,
		Subcommands: []*ffcli.Command{listCmd, knownCmd, connectCmd, classifyCmd, statusCmd, qrCmd},
		Options: []ff.Option{
			ff.WithEnvVarPrefix("WIFIJOIN"),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithAllowMissingConfigFile(true),
		},
		Exec: func(ctx context.Context, args []string) error {
			if *version {
				fmt.Fprintln(a.stdout, Version)
				return nil
			}
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q", args[0])
			}
			if err := a.loadTheme(); err != nil {
				return err
			}
			svc, err := a.service(ctx, true)
			if err != nil {
				return err
			}
			return runTUI(svc, tui.Options{AutoScan: a.cfg.AutoScan, ScanInterval: a.cfg.ScanInterval})
		},
	}
}

// main is the entry point of the application
func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	defer a.close()

	root := newRootCommand(a)
	if err := root.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if err := root.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		a.close()
		os.Exit(1)
	}
}
