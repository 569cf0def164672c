package native

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestPlayerFromProps(t *testing.T) {
	props := map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Paused"),
		"Position":       dbus.MakeVariant(int64(12_500_000)),
		"Volume":         dbus.MakeVariant(0.25),
		"LoopStatus":     dbus.MakeVariant("Playlist"),
		"Shuffle":        dbus.MakeVariant(true),
		"CanControl":     dbus.MakeVariant(true),
		"CanGoNext":      dbus.MakeVariant(true),
		"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:title":   dbus.MakeVariant("Title"),
			"xesam:artist":  dbus.MakeVariant([]string{"First", "Second"}),
			"xesam:album":   dbus.MakeVariant("Album"),
			"mpris:artUrl":  dbus.MakeVariant("file:///art.png"),
			"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/track/7")),
			"mpris:length":  dbus.MakeVariant(uint64(180_000_000)),
		}),
	}

	p := playerFromProps("org.mpris.MediaPlayer2.vlc", "", props)
	want := Player{
		BusName:    "org.mpris.MediaPlayer2.vlc",
		Identity:   "vlc",
		Status:     "Paused",
		Title:      "Title",
		Artist:     "First",
		Album:      "Album",
		ArtURL:     "file:///art.png",
		TrackID:    "/track/7",
		Length:     3 * time.Minute,
		Position:   12500 * time.Millisecond,
		Volume:     0.25,
		LoopStatus: "Playlist",
		Shuffle:    true,
		HasShuffle: true,
		CanControl: true,
		CanGoNext:  true,
	}
	if p != want {
		t.Errorf("playerFromProps =\n%+v\nwant\n%+v", p, want)
	}
}

func TestPlayerFromPropsMissing(t *testing.T) {
	p := playerFromProps("org.mpris.MediaPlayer2.x", "X Player", nil)
	if p.Identity != "X Player" || p.Volume != 1 || p.HasShuffle || p.Title != "" {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestNextLoopStatus(t *testing.T) {
	for cur, want := range map[string]string{"None": "Playlist", "": "Playlist", "Playlist": "Track", "Track": "None"} {
		if got := nextLoopStatus(cur); got != want {
			t.Errorf("nextLoopStatus(%q) = %q, want %q", cur, got, want)
		}
	}
}
