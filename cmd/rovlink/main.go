// Rovlink — CLI entry point.
//
// This tool drives a small rover over a point-to-point serial link using a
// fixed-size packet protocol with stop-and-wait acknowledgment. It offers a
// line-command console, a realtime keypress drive mode, and a bridge mode
// that exposes the serial port over WebSocket for remote control.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-mode, -port, -baud, -url, -listen).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/rovlink/internal/app"
	"github.com/1ureka/rovlink/internal/config"
	"github.com/1ureka/rovlink/internal/input"
	"github.com/1ureka/rovlink/internal/link"
	"github.com/1ureka/rovlink/internal/transport"
	"github.com/1ureka/rovlink/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	mode := flag.String("mode", "", "Mode: console, drive or bridge")
	port := flag.String("port", "", "Serial device, e.g. /dev/ttyUSB0 or COM3")
	baud := flag.Int("baud", 9600, "Serial baud rate")
	dataBits := flag.Int("databits", 8, "Serial data bits")
	parity := flag.String("parity", "N", "Serial parity: N, E or O")
	stopBits := flag.Int("stopbits", 1, "Serial stop bits: 1 or 2")
	urlFlag := flag.String("url", "", "Bridge URL to control a remote rover (console/drive)")
	listenFlag := flag.String("listen", ":8791", "Listen address (bridge only)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Rovlink — v%s", version))
	pterm.Println()

	cfg := config.Config{
		Mode:      config.Mode(*mode),
		Port:      *port,
		Baud:      *baud,
		DataBits:  *dataBits,
		Parity:    *parity,
		StopBits:  *stopBits,
		RemoteURL: *urlFlag,
		Listen:    *listenFlag,
	}

	switch cfg.Mode {
	case "":
		// No -mode flag → interactive mode.
		runInteractive(ctx, cfg)

	case config.ModeConsole, config.ModeDrive:
		if cfg.Port == "" && cfg.RemoteURL == "" {
			util.LogError("missing -port or -url")
			os.Exit(1)
		}
		runSession(ctx, cfg)

	case config.ModeBridge:
		if cfg.Port == "" {
			util.LogError("missing -port for bridge mode")
			os.Exit(1)
		}
		runBridge(ctx, cfg)

	default:
		util.LogError("invalid -mode: must be 'console', 'drive' or 'bridge'")
		os.Exit(1)
	}

	util.LogInfo("session closed — %s", util.Stats.Summary())
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// runInteractive falls back to interactive prompts when no -mode flag is
// provided.
func runInteractive(ctx context.Context, cfg config.Config) {
	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{
			"Console — Type commands line by line",
			"Drive   — Realtime keypress control",
			"Bridge  — Expose the serial port over WebSocket",
		}).
		WithDefaultText("Select a mode").
		Show()

	pterm.Println()

	switch {
	case strings.HasPrefix(choice, "Console"):
		cfg.Mode = config.ModeConsole
	case strings.HasPrefix(choice, "Drive"):
		cfg.Mode = config.ModeDrive
	default:
		cfg.Mode = config.ModeBridge
	}

	if cfg.Mode == config.ModeBridge {
		cfg.Port = askText("Serial device (e.g. /dev/ttyUSB0)")
		runBridge(ctx, cfg)
		return
	}

	target, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Local serial port", "Remote rover via bridge"}).
		WithDefaultText("Where is the rover connected?").
		Show()

	pterm.Println()

	if strings.HasPrefix(target, "Local") {
		cfg.Port = askText("Serial device (e.g. /dev/ttyUSB0)")
	} else {
		cfg.RemoteURL = askBridgeURL()
	}
	runSession(ctx, cfg)
}

// runSession opens the transport, brings up the link, and runs the chosen
// session loop. Handshake failure is the only fatal path: everything else
// on an established link surfaces as a recoverable warning.
func runSession(ctx context.Context, cfg config.Config) {
	conn, err := openConn(ctx, cfg)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	l := link.New(conn)
	defer l.Close()

	util.StartStatsReporter(ctx)

	if cfg.Mode == config.ModeDrive {
		err = app.RunDrive(ctx, l, input.NewKeyboard(ctx))
	} else {
		err = app.RunConsole(ctx, l)
	}

	if err != nil {
		if errors.Is(err, link.ErrHandshake) {
			util.LogError("cannot bring up the link: %v", err)
		} else {
			util.LogError("session failed: %v", err)
		}
		l.Close()
		os.Exit(1)
	}
}

// runBridge opens the serial port and serves it over WebSocket.
func runBridge(ctx context.Context, cfg config.Config) {
	conn, err := transport.OpenSerial(serialConfig(cfg))
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	defer conn.Close()

	bridge := transport.NewBridge(conn)
	addr, err := bridge.Start(cfg.Listen)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	defer bridge.Close()

	util.LogInfo("bridge ready — controllers can connect to ws://%s/ws", addr)

	if err := bridge.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		util.LogError("bridge failed: %v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// openConn picks the transport leg: a remote bridge when a URL is set,
// otherwise the local serial port.
func openConn(ctx context.Context, cfg config.Config) (transport.Conn, error) {
	if cfg.RemoteURL != "" {
		wsURL, err := normalizeBridgeURL(cfg.RemoteURL)
		if err != nil {
			return nil, err
		}
		return transport.DialRemote(ctx, wsURL)
	}
	return transport.OpenSerial(serialConfig(cfg))
}

func serialConfig(cfg config.Config) transport.SerialConfig {
	return transport.SerialConfig{
		Name:     cfg.Port,
		Baud:     cfg.Baud,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
}

// normalizeBridgeURL validates and normalizes a raw bridge URL string.
// Bare host:port is accepted and upgraded to a ws:// URL.
func normalizeBridgeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid bridge URL: %s", raw)
	}
	scheme := "ws"
	if u.Scheme == "wss" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/ws", scheme, u.Host), nil
}

// askText prompts until a non-empty line is entered.
func askText(prompt string) string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(prompt).
			Show()

		if s := strings.TrimSpace(raw); s != "" {
			pterm.Println()
			return s
		}

		util.LogWarning("a value is required")
		pterm.Println()
	}
}

// askBridgeURL prompts for a valid bridge URL until one is entered.
func askBridgeURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Bridge URL (e.g. ws://192.168.1.20:8791)").
			Show()

		wsURL, err := normalizeBridgeURL(raw)
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}
