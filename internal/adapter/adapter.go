// Package adapter is the arbitration engine. It owns the connection
// registry, applies inbound protocol messages to per-connection state,
// decides which connection is the published "now playing" source and
// routes control commands back to exactly that connection.
package adapter

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nowplaying-redux/adapter-go/internal/clock"
	"github.com/nowplaying-redux/adapter-go/internal/config"
	"github.com/nowplaying-redux/adapter-go/internal/logging"
	"github.com/nowplaying-redux/adapter-go/internal/models"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
	"github.com/nowplaying-redux/adapter-go/internal/registry"
)

// Publisher receives every newly published merged state.
type Publisher interface {
	Publish(models.MediaInfo) bool
}

// Options configures an Adapter. Zero values pick usable defaults.
type Options struct {
	// Version is announced to sources in the handshake (major.minor.patch).
	Version string
	Clock   clock.Clock
	Log     logging.Sink
	Flags   config.FlagStore
	// Publisher is optional.
	Publisher Publisher
}

// Adapter is one isolated arbitration engine instance.
type Adapter struct {
	reg     *registry.Registry
	version string
	clock   clock.Clock
	log     logging.Sink
	flags   config.FlagStore
	pub     Publisher

	// arbMu serializes arbitration passes so the last pass to finish is
	// also the one computed from the newest snapshot.
	arbMu   sync.Mutex
	media   atomic.Pointer[models.MediaInfo]
	clients atomic.Int64
}

// New creates an Adapter.
func New(opts Options) *Adapter {
	a := &Adapter{
		reg:     registry.New(),
		version: opts.Version,
		clock:   opts.Clock,
		log:     opts.Log,
		flags:   opts.Flags,
		pub:     opts.Publisher,
	}
	if a.version == "" {
		a.version = "0.0.0"
	}
	if a.clock == nil {
		a.clock = clock.Real{}
	}
	if a.log == nil {
		a.log = logging.SlogSink(nil)
	}
	if a.flags == nil {
		a.flags = config.NewMemStore(config.DefaultSettings())
	}
	def := models.DefaultMediaInfo()
	a.media.Store(&def)
	return a
}

// MediaInfo returns the currently published merged state.
func (a *Adapter) MediaInfo() models.MediaInfo {
	return *a.media.Load()
}

// Clients returns the number of connected sources.
func (a *Adapter) Clients() int {
	return int(a.clients.Load())
}

// Version returns the adapter version announced in the handshake.
func (a *Adapter) Version() string { return a.version }

// NativeAPIsEnabled reports whether native sources may be selected.
func (a *Adapter) NativeAPIsEnabled() bool {
	return a.flags.NativeAPIsEnabled()
}

// SetNativeAPIsEnabled persists the native opt-in and re-arbitrates, so a
// native source becomes eligible (or ineligible) without a new message.
func (a *Adapter) SetNativeAPIsEnabled(enabled bool) error {
	err := a.flags.SetNativeAPIsEnabled(enabled)
	if err != nil {
		a.log(logging.Error, fmt.Sprintf("adapter: failed to persist native API flag: %v", err))
	}
	a.Arbitrate()
	return err
}

// Connect admits a connection. Its default state exists before any message
// is handled, and the handshake is sent to it alone.
func (a *Adapter) Connect(id string, peer registry.Peer) {
	a.reg.UpsertDefault(id, peer)
	a.clients.Add(1)
	if peer == nil {
		return
	}
	if err := peer.Send(protocol.Handshake(a.version, protocol.ProtocolRevision)); err != nil {
		a.log(logging.Error, fmt.Sprintf("adapter: %s: failed to send handshake", id))
		a.log(logging.Debug, fmt.Sprintf("adapter: %s: handshake error: %v", id, err))
	}
}

// Disconnect removes a connection. If it was the published source the
// merged state is recomputed before Disconnect returns.
func (a *Adapter) Disconnect(id string) {
	removed, ok := a.reg.Remove(id)
	if !ok {
		return
	}
	a.clients.Add(-1)

	// Checked under arbMu: a pass that snapshotted before the removal has
	// either published already (and is caught here) or has not started.
	a.arbMu.Lock()
	defer a.arbMu.Unlock()
	if removed.ID == a.MediaInfo().ID {
		a.arbitrateLocked()
	}
}

// HandleMessage decodes and applies one inbound line from connection id.
// Every failure is logged and contained; the connection's prior state is
// kept when a message cannot be applied.
func (a *Adapter) HandleMessage(id, line string) {
	msg, err := protocol.Decode(line)
	switch {
	case errors.Is(err, protocol.ErrUnknownField):
		a.log(logging.Warning, fmt.Sprintf("adapter: %s: unknown message type: %s", id, msg.Field))
		return
	case err != nil:
		a.log(logging.Error, fmt.Sprintf("adapter: %s: error parsing data from source", id))
		a.log(logging.Debug, fmt.Sprintf("adapter: %s: %v", id, err))
		return
	}

	switch msg.Field {
	case protocol.FieldError:
		a.log(logging.Error, fmt.Sprintf("adapter: %s: error from source: %s", id, msg.Value))
	case protocol.FieldErrorDebug:
		a.log(logging.Debug, fmt.Sprintf("adapter: %s: source debug error: %s", id, msg.Value))
	case protocol.FieldUseNativeAPIs:
		enabled, err := msg.Bool()
		if err != nil {
			a.logParseFailure(id, err)
			return
		}
		_ = a.SetNativeAPIsEnabled(enabled)
		return
	}

	nowMs := clock.Millis(a.clock.Now())
	st, err := a.reg.Mutate(id, func(c *models.ConnectionState) error {
		return apply(c, msg, nowMs)
	})
	if err != nil {
		a.logParseFailure(id, err)
		return
	}

	published := a.MediaInfo().ID == id
	switch {
	case msg.Field == protocol.FieldPositionSeconds:
		// Position ticks are too frequent to re-select on; only keep the
		// published copy current.
		if published {
			a.refresh(id)
		}
	case st.Title != "" || published:
		a.Arbitrate()
	}
}

func (a *Adapter) logParseFailure(id string, err error) {
	a.log(logging.Error, fmt.Sprintf("adapter: %s: error parsing data from source", id))
	a.log(logging.Debug, fmt.Sprintf("adapter: %s: trace: %v", id, err))
}

// Arbitrate recomputes the published merged state from the registry.
func (a *Adapter) Arbitrate() {
	a.arbMu.Lock()
	defer a.arbMu.Unlock()
	a.arbitrateLocked()
}

func (a *Adapter) arbitrateLocked() {
	snap := a.reg.SnapshotByFreshness()
	info := models.DefaultMediaInfo()
	if st, ok := Select(snap, a.flags.NativeAPIsEnabled()); ok {
		info = models.MediaInfo(st)
	}
	a.store(info)
}

// refresh republishes the current state of id if it is still the published one.
func (a *Adapter) refresh(id string) {
	a.arbMu.Lock()
	defer a.arbMu.Unlock()

	if a.MediaInfo().ID != id {
		return
	}
	st, ok := a.reg.Get(id)
	if !ok {
		return
	}
	a.store(models.MediaInfo(st))
}

// store swaps the published value. Caller holds arbMu.
func (a *Adapter) store(info models.MediaInfo) {
	a.media.Store(&info)
	if a.pub != nil {
		a.pub.Publish(info)
	}
}

// Close resets the published state. Connections are closed by their transports.
func (a *Adapter) Close() {
	a.arbMu.Lock()
	defer a.arbMu.Unlock()
	a.store(models.DefaultMediaInfo())
}
