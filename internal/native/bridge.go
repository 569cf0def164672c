// Package native bridges desktop media players exposed over MPRIS into the
// adapter. Each player is represented as a native connection that speaks
// the same line protocol as browser sources.
package native

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/nowplaying-redux/adapter-go/internal/protocol"
	"github.com/nowplaying-redux/adapter-go/internal/registry"
)

// ErrUnsupported is returned for commands MPRIS has no equivalent for.
var ErrUnsupported = errors.New("native: command not supported by MPRIS")

const (
	DefaultInterval    = time.Second
	DefaultCallTimeout = 2 * time.Second
)

// Handler receives the bridge's connections. *adapter.Adapter satisfies it.
type Handler interface {
	Connect(id string, peer registry.Peer)
	HandleMessage(id, line string)
	Disconnect(id string)
}

// Options tunes a Bridge. Zero values use the defaults above.
type Options struct {
	Interval    time.Duration
	CallTimeout time.Duration
}

// Bridge polls the bus and mirrors every MPRIS player into the adapter.
type Bridge struct {
	bus      Bus
	handler  Handler
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	players map[string]Player // by bus name, as last polled
}

// NewBridge creates a Bridge. Run starts it.
func NewBridge(bus Bus, h Handler, opts Options) *Bridge {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	return &Bridge{
		bus:      bus,
		handler:  h,
		interval: opts.Interval,
		timeout:  opts.CallTimeout,
		players:  make(map[string]Player),
	}
}

// Run polls until ctx is cancelled, then disconnects every player.
func (b *Bridge) Run(ctx context.Context) {
	slog.Info("native: MPRIS bridge started", "interval", b.interval)
	defer b.disconnectAll()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	failing := false
	for {
		err := b.Poll(ctx)
		switch {
		case err != nil && !failing:
			slog.Warn("native: poll failed", "err", err)
			failing = true
		case err == nil && failing:
			slog.Info("native: poll recovered")
			failing = false
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll runs one pass: new players are connected, changes are fed as
// protocol lines and vanished players are disconnected. Every bus call is
// bounded by the call timeout, so one hung player only loses its own update.
func (b *Bridge) Poll(ctx context.Context) error {
	listCtx, cancel := context.WithTimeout(ctx, b.timeout)
	names, err := b.bus.Players(listCtx)
	cancel()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
		cur, err := b.readPlayer(ctx, name)
		if err != nil {
			slog.Debug("native: skipping player", "bus", name, "err", err)
			continue
		}

		b.mu.Lock()
		prev, known := b.players[name]
		b.players[name] = cur
		b.mu.Unlock()

		id := ConnID(name)
		var lines []string
		if known {
			lines = Lines(&prev, cur)
		} else {
			slog.Info("native: player appeared", "bus", name, "identity", cur.Identity)
			b.handler.Connect(id, &peer{bridge: b, busName: name})
			lines = Lines(nil, cur)
		}
		for _, line := range lines {
			b.handler.HandleMessage(id, line)
		}
	}

	b.mu.Lock()
	var gone []string
	for name := range b.players {
		if !seen[name] {
			gone = append(gone, name)
			delete(b.players, name)
		}
	}
	b.mu.Unlock()

	for _, name := range gone {
		slog.Info("native: player vanished", "bus", name)
		b.handler.Disconnect(ConnID(name))
	}
	return nil
}

func (b *Bridge) readPlayer(ctx context.Context, name string) (Player, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.bus.Player(ctx, name)
}

func (b *Bridge) disconnectAll() {
	b.mu.Lock()
	names := make([]string, 0, len(b.players))
	for name := range b.players {
		names = append(names, name)
	}
	clear(b.players)
	b.mu.Unlock()

	for _, name := range names {
		b.handler.Disconnect(ConnID(name))
	}
}

func (b *Bridge) lastSeen(busName string) (Player, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.players[busName]
	return p, ok
}

// peer turns routed protocol commands into MPRIS calls on one player.
type peer struct {
	bridge  *Bridge
	busName string
}

func (p *peer) Send(line string) error {
	if strings.HasPrefix(line, "ADAPTER_VERSION ") {
		return nil
	}
	cmd, arg, err := protocol.ParseCommand(line)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.bridge.timeout)
	defer cancel()
	bus := p.bridge.bus
	cur, _ := p.bridge.lastSeen(p.busName)

	switch cmd {
	case protocol.CmdTogglePlayPause:
		return bus.Call(ctx, p.busName, "PlayPause")
	case protocol.CmdSkipPrevious:
		return bus.Call(ctx, p.busName, "Previous")
	case protocol.CmdSkipNext:
		return bus.Call(ctx, p.busName, "Next")
	case protocol.CmdSetPosition:
		secs, _, err := protocol.ParseSetPosition(arg)
		if err != nil {
			return err
		}
		target := time.Duration(secs) * time.Second
		if cur.TrackID == "" {
			return bus.Call(ctx, p.busName, "Seek", (target - cur.Position).Microseconds())
		}
		return bus.Call(ctx, p.busName, "SetPosition", dbus.ObjectPath(cur.TrackID), target.Microseconds())
	case protocol.CmdSetVolume:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("native: volume %q: %w", arg, err)
		}
		return bus.SetProperty(ctx, p.busName, "Volume", float64(n)/100)
	case protocol.CmdToggleRepeatMode:
		return bus.SetProperty(ctx, p.busName, "LoopStatus", nextLoopStatus(cur.LoopStatus))
	case protocol.CmdToggleShuffleActive:
		return bus.SetProperty(ctx, p.busName, "Shuffle", !cur.Shuffle)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, cmd)
	}
}

// Close is a no-op: the player's lifetime belongs to the desktop session.
func (p *peer) Close() error { return nil }
