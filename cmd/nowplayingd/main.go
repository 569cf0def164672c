// Command nowplayingd is the now-playing adapter daemon. Browser extensions
// connect to it over WebSocket, desktop players are picked up over MPRIS,
// and consumers read the merged state from its HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/nowplaying-redux/adapter-go/internal/adapter"
	"github.com/nowplaying-redux/adapter-go/internal/api"
	"github.com/nowplaying-redux/adapter-go/internal/config"
	"github.com/nowplaying-redux/adapter-go/internal/events"
	"github.com/nowplaying-redux/adapter-go/internal/identity"
	"github.com/nowplaying-redux/adapter-go/internal/logging"
	"github.com/nowplaying-redux/adapter-go/internal/native"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
	"github.com/nowplaying-redux/adapter-go/internal/transport"
	"github.com/nowplaying-redux/adapter-go/internal/zeroconf"
)

func main() {
	var (
		addr     = flag.StringP("addr", "a", ":1234", "listen address for sources and the HTTP API")
		cfgDir   = flag.String("config-dir", "", "config directory (default: <user config dir>/nowplaying-redux)")
		debug    = flag.BoolP("debug", "d", false, "enable debug logging")
		throttle = flag.Bool("throttle-logs", false, "log an identical adapter message at most once per 30s")
		mpris    = flag.Bool("mpris", true, "mirror MPRIS desktop players as native sources")
		mdns     = flag.Bool("zeroconf", true, "advertise the adapter over mDNS")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		*cfgDir = identity.DefaultConfigDir()
		if *cfgDir == "" {
			slog.Error("cannot determine config directory; pass --config-dir")
			os.Exit(1)
		}
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}
	id := identity.Resolve(*cfgDir)

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// adapterRef lets the settings watcher re-arbitrate on external edits.
	var adapterRef atomic.Pointer[adapter.Adapter]
	store, err := config.NewJSONStore(*cfgDir, func(s config.Settings) {
		slog.Info("settings changed on disk", "use_native_apis", s.UseNativeAPIs)
		if a := adapterRef.Load(); a != nil {
			a.Arbitrate()
		}
	})
	if err != nil {
		slog.Error("config store initialization failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	sink := logging.SlogSink(slog.Default())
	if *throttle {
		sink = logging.Throttle(sink, logging.DefaultThrottleWindow)
	}

	bus := events.NewBus()
	a := adapter.New(adapter.Options{
		Version:   id.Version,
		Log:       sink,
		Flags:     store,
		Publisher: bus,
	})
	adapterRef.Store(a)

	sources := transport.NewServer(a, transport.Options{})

	if *mpris {
		startNative(ctx, a)
	}

	if *mdns {
		zc := zeroconf.New(id.Hostname, listenPort(*addr), id.Version, protocol.ProtocolRevision)
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	router := api.NewRouter(a, bus, api.Options{Sources: sources, Hostname: id.Hostname})
	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE and sockets)
		IdleTimeout:  120 * time.Second,
	}

	// A listen failure is reported once and ends the process.
	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		slog.Error("cannot listen", "addr", *addr, "err", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("adapter listening", "addr", ln.Addr().String(), "version", id.Version,
			"revision", protocol.ProtocolRevision, "config", *cfgDir)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()

	// Hijacked source sockets are not tracked by the HTTP server.
	sources.Close()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}
	a.Close()

	slog.Info("shutdown complete")
}

// startNative runs the MPRIS bridge until ctx ends. A missing session bus
// only disables native sources.
func startNative(ctx context.Context, a *adapter.Adapter) {
	bus, err := native.ConnectSessionBus()
	if err != nil {
		slog.Warn("native sources disabled", "err", err)
		return
	}
	bridge := native.NewBridge(bus, a, native.Options{})
	go func() {
		defer bus.Close()
		bridge.Run(ctx)
	}()
}

// listenPort extracts the port from a listen address, or 0 if it has none.
func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}
