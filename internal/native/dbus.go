package native

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisPath       = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisRoot       = "org.mpris.MediaPlayer2"
	mprisPlayer     = "org.mpris.MediaPlayer2.Player"
	propertiesIface = "org.freedesktop.DBus.Properties"
)

// Bus is the slice of the D-Bus session bus the bridge needs.
type Bus interface {
	// Players lists the bus names of every MPRIS player.
	Players(ctx context.Context) ([]string, error)
	// Player reads the current properties of one player.
	Player(ctx context.Context, busName string) (Player, error)
	// Call invokes a method on the player's Player interface.
	Call(ctx context.Context, busName, method string, args ...any) error
	// SetProperty writes one property of the player's Player interface.
	SetProperty(ctx context.Context, busName, property string, value any) error
	Close() error
}

// SessionBus is a Bus backed by a private session bus connection.
type SessionBus struct {
	conn *dbus.Conn
}

// ConnectSessionBus opens a private connection to the D-Bus session bus.
func ConnectSessionBus() (*SessionBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("native: session bus: %w", err)
	}
	return &SessionBus{conn: conn}, nil
}

func (b *SessionBus) Players(ctx context.Context) ([]string, error) {
	var names []string
	obj := b.conn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus")
	if err := obj.CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("native: list names: %w", err)
	}
	players := names[:0]
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}
	return players, nil
}

func (b *SessionBus) Player(ctx context.Context, busName string) (Player, error) {
	obj := b.conn.Object(busName, mprisPath)

	var root map[string]dbus.Variant
	if err := obj.CallWithContext(ctx, propertiesIface+".GetAll", 0, mprisRoot).Store(&root); err != nil {
		return Player{}, fmt.Errorf("native: %s: root properties: %w", busName, err)
	}
	var props map[string]dbus.Variant
	if err := obj.CallWithContext(ctx, propertiesIface+".GetAll", 0, mprisPlayer).Store(&props); err != nil {
		return Player{}, fmt.Errorf("native: %s: player properties: %w", busName, err)
	}
	return playerFromProps(busName, asString(root["Identity"]), props), nil
}

func (b *SessionBus) Call(ctx context.Context, busName, method string, args ...any) error {
	call := b.conn.Object(busName, mprisPath).CallWithContext(ctx, mprisPlayer+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("native: %s: %s: %w", busName, method, call.Err)
	}
	return nil
}

func (b *SessionBus) SetProperty(ctx context.Context, busName, property string, value any) error {
	call := b.conn.Object(busName, mprisPath).CallWithContext(ctx, propertiesIface+".Set", 0,
		mprisPlayer, property, dbus.MakeVariant(value))
	if call.Err != nil {
		return fmt.Errorf("native: %s: set %s: %w", busName, property, call.Err)
	}
	return nil
}

func (b *SessionBus) Close() error { return b.conn.Close() }

// playerFromProps decodes a Player from the Player interface's properties.
func playerFromProps(busName, identity string, props map[string]dbus.Variant) Player {
	if identity == "" {
		identity = strings.TrimPrefix(busName, mprisPrefix)
	}
	p := Player{
		BusName:       busName,
		Identity:      identity,
		Status:        asString(props["PlaybackStatus"]),
		Position:      time.Duration(asInt64(props["Position"])) * time.Microsecond,
		Volume:        asFloat(props["Volume"]),
		LoopStatus:    asString(props["LoopStatus"]),
		Shuffle:       asBool(props["Shuffle"]),
		CanControl:    asBool(props["CanControl"]),
		CanPlay:       asBool(props["CanPlay"]),
		CanPause:      asBool(props["CanPause"]),
		CanGoNext:     asBool(props["CanGoNext"]),
		CanGoPrevious: asBool(props["CanGoPrevious"]),
		CanSeek:       asBool(props["CanSeek"]),
	}
	_, p.HasShuffle = props["Shuffle"]
	if _, ok := props["Volume"]; !ok {
		p.Volume = 1
	}

	if meta, ok := props["Metadata"].Value().(map[string]dbus.Variant); ok {
		p.Title = asString(meta["xesam:title"])
		p.Artist = firstString(meta["xesam:artist"])
		p.Album = asString(meta["xesam:album"])
		p.ArtURL = asString(meta["mpris:artUrl"])
		p.TrackID = asString(meta["mpris:trackid"])
		p.Length = time.Duration(asInt64(meta["mpris:length"])) * time.Microsecond
	}
	return p
}

func asString(v dbus.Variant) string {
	switch val := v.Value().(type) {
	case string:
		return val
	case dbus.ObjectPath:
		return string(val)
	}
	return ""
}

func asBool(v dbus.Variant) bool {
	b, _ := v.Value().(bool)
	return b
}

func asFloat(v dbus.Variant) float64 {
	switch val := v.Value().(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	}
	return 0
}

func asInt64(v dbus.Variant) int64 {
	switch val := v.Value().(type) {
	case int64:
		return val
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case uint32:
		return int64(val)
	}
	return 0
}

func firstString(v dbus.Variant) string {
	switch val := v.Value().(type) {
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case string:
		return val
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return ""
}
