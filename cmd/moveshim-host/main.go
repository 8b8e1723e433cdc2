// Command moveshim-host runs the tick loop against the real hardware
// mailbox device. Flag handling follows the teacher's kissutil.go
// pflag idiom: package-level pflag.*P declarations plus a Usage override.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/move-anything/hostrt/internal/clock"
	"github.com/move-anything/hostrt/internal/host"
	"github.com/move-anything/hostrt/internal/logging"
	"github.com/move-anything/hostrt/internal/mailbox"
	"github.com/move-anything/hostrt/internal/modulemgr"
	"github.com/move-anything/hostrt/internal/modulereg"
	"github.com/move-anything/hostrt/internal/pluginabi"
	"github.com/move-anything/hostrt/internal/publisher"
	"github.com/move-anything/hostrt/internal/settings"
	"github.com/move-anything/hostrt/internal/uiscript"
)

var (
	mailboxDevice = pflag.StringP("mailbox-device", "m", "/dev/move-anything", "Mailbox device node")
	mailboxIoctl  = pflag.Uint32P("mailbox-ioctl", "i", 0, "Mailbox swap ioctl request number")
	modulesRoot   = pflag.StringP("modules-root", "r", "/opt/move-anything/modules", "Root directory of module sub-categories")
	initialModule = pflag.StringP("load", "l", "", "Module id to load at startup")
	settingsFile  = pflag.StringP("settings-file", "s", "/opt/move-anything/settings.conf", "Settings file path")
	logFile       = pflag.StringP("log-file", "L", "", "Log file path; empty disables logging")
	logDaily      = pflag.Bool("log-daily", false, "Roll the log file daily")
	logFlagFile   = pflag.String("log-flag-file", "/tmp/move-anything-log-enable", "Presence of this file enables logging")
	uiEngine      = pflag.String("ui-engine", "", "UI script engine binary; empty disables the UI script")
	uiScript      = pflag.String("ui-script", "", "UI script entry point")
	publishAddr   = pflag.StringP("publish-addr", "p", "", "Link-Audio publisher destination host:port; empty disables publishing")
	mdnsName      = pflag.String("mdns-name", "", "Advertise this host name over mDNS; empty disables advertising")
	help          = pflag.Bool("help", false, "Display help text")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "moveshim-host [options]")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "moveshim-host:", err)
		os.Exit(1)
	}
}

func run() error {
	var log *logging.Sink
	if *logFile != "" {
		var err error
		log, err = logging.Open(*logFile, *logDaily, *logFlagFile)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer log.Close()
	}

	s, err := settings.Load(*settingsFile)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	backend, err := mailbox.Open(*mailboxDevice, uint(*mailboxIoctl))
	if err != nil {
		return fmt.Errorf("open mailbox: %w", err)
	}
	defer backend.Close()

	mgr := modulemgr.New(modulereg.New(), pluginabi.HostAPI{
		APIVersion:     1,
		SampleRate:     44100,
		FramesPerBlock: host.FramesPerBlock,
	})
	if err := mgr.Scan(*modulesRoot); err != nil {
		return fmt.Errorf("scan modules: %w", err)
	}
	if *initialModule != "" {
		if err := mgr.LoadByID(*initialModule); err != nil {
			return fmt.Errorf("load module %q: %w", *initialModule, err)
		}
	}

	clk := clock.New(44100, float64(s.TempoBPM))
	h := host.New(mgr, backend, clk, s)

	if *uiEngine != "" {
		proc, err := uiscript.Launch(*uiEngine, *uiScript)
		if err != nil {
			return fmt.Errorf("launch ui script: %w", err)
		}
		defer proc.Close()
		h.UI = proc
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub, closePub, err := wirePublisher(ctx, log)
	if err != nil {
		return fmt.Errorf("wire publisher: %w", err)
	}
	if closePub != nil {
		defer closePub()
	}

	return runTickLoop(ctx, h, pub, log)
}

// udpSender implements publisher.Sender over a connected UDP socket.
type udpSender struct {
	conn *net.UDPConn
}

func (u *udpSender) SendTo(pkt []byte) error {
	_, err := u.conn.Write(pkt)
	return err
}

// wirePublisher dials the configured destination and starts an optional
// mDNS announcement. Returns a nil Publisher when publishing is disabled.
func wirePublisher(ctx context.Context, log *logging.Sink) (*publisher.Publisher, func(), error) {
	if *publishAddr == "" {
		return nil, nil, nil
	}

	addr, err := net.ResolveUDPAddr("udp", *publishAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %q: %w", *publishAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %q: %w", *publishAddr, err)
	}

	logFn := func(string) {}
	if log != nil {
		logFn = func(msg string) { log.Infof("publisher", "%s", msg) }
	}

	var peerID, sessionID [8]byte
	names := [publisher.ShadowChannels]string{"shadow-1", "shadow-2", "shadow-3", "shadow-4"}
	pub := publisher.New(peerID, sessionID, names, &udpSender{conn: conn}, logFn)

	closeFn := func() { conn.Close() }
	if *mdnsName != "" {
		localAddr := conn.LocalAddr().(*net.UDPAddr)
		if _, err := publisher.Announce(ctx, *mdnsName, localAddr.Port, logFn); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("mdns announce: %w", err)
		}
	}
	return pub, closeFn, nil
}

func runTickLoop(ctx context.Context, h *host.Host, pub *publisher.Publisher, log *logging.Sink) error {
	blockDuration := time.Duration(float64(host.FramesPerBlock) / 44100 * float64(time.Second))
	ticker := time.NewTicker(blockDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := h.Tick(); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
			if pub != nil {
				if err := pub.Tick(uint64(now.UnixNano())); err != nil && log != nil {
					log.Warnf("publisher", "tick: %v", err)
				}
			}
		}
	}
}
