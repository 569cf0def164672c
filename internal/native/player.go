package native

import (
	"math"
	"strconv"
	"time"

	"github.com/nowplaying-redux/adapter-go/internal/models"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
)

// IDPrefix marks connection IDs owned by the bridge.
const IDPrefix = "native:"

// Player is one poll of an MPRIS player's properties.
type Player struct {
	BusName    string
	Identity   string
	Status     string // Playing, Paused or Stopped
	Title      string
	Artist     string
	Album      string
	ArtURL     string
	TrackID    string
	Length     time.Duration
	Position   time.Duration
	Volume     float64 // 0..1
	LoopStatus string  // None, Track or Playlist; empty when unsupported
	Shuffle    bool
	HasShuffle bool

	CanControl    bool
	CanPlay       bool
	CanPause      bool
	CanGoNext     bool
	CanGoPrevious bool
	CanSeek       bool
}

// ConnID is the adapter connection ID for a player bus name.
func ConnID(busName string) string { return IDPrefix + busName }

// State maps PlaybackStatus onto the protocol's playback state.
func (p Player) State() models.PlaybackState {
	switch p.Status {
	case "Playing":
		return models.StatePlaying
	case "Paused":
		return models.StatePaused
	default:
		return models.StateStopped
	}
}

// Repeat maps LoopStatus onto a repeat mode.
func (p Player) Repeat() models.RepeatMode {
	switch p.LoopStatus {
	case "Track":
		return models.RepeatOne
	case "Playlist":
		return models.RepeatAll
	default:
		return models.RepeatNone
	}
}

// VolumePercent is the player volume on the protocol's 0..100 scale.
func (p Player) VolumePercent() int {
	return models.ClampVolume(int(math.Round(p.Volume * 100)))
}

// Controls derives the capability set from the Can* properties.
func (p Player) Controls() models.PlayerControls {
	return models.PlayerControls{
		SupportsPlayPause:           p.CanControl && (p.CanPlay || p.CanPause),
		SupportsSkipPrevious:        p.CanControl && p.CanGoPrevious,
		SupportsSkipNext:            p.CanControl && p.CanGoNext,
		SupportsSetPosition:         p.CanControl && p.CanSeek,
		SupportsSetVolume:           p.CanControl,
		SupportsToggleRepeatMode:    p.CanControl && p.LoopStatus != "",
		SupportsToggleShuffleActive: p.CanControl && p.HasShuffle,
		RatingSystem:                models.RatingNone,
	}
}

// nextLoopStatus cycles the way browser sources do: NONE, ALL, ONE.
func nextLoopStatus(current string) string {
	switch current {
	case "Playlist":
		return "Track"
	case "Track":
		return "None"
	default:
		return "Playlist"
	}
}

// Lines returns the protocol lines that move a connection from prev to cur.
// A nil prev yields the full announcement of a newly seen player.
// Metadata precedes TITLE and STATE so the arbitration pass they trigger
// sees complete state, and position follows duration, which resets it.
func Lines(prev *Player, cur Player) []string {
	var out []string
	add := func(f protocol.Field, v string) {
		out = append(out, protocol.Message{Field: f, Value: v}.String())
	}
	first := prev == nil
	if first {
		prev = &Player{}
		add(protocol.FieldIsNative, "true")
	}

	if first || prev.Identity != cur.Identity {
		add(protocol.FieldPlayerName, cur.Identity)
	}
	if first || prev.Controls() != cur.Controls() {
		add(protocol.FieldPlayerControls, protocol.EncodeControls(cur.Controls()))
	}
	if first || prev.Artist != cur.Artist {
		add(protocol.FieldArtist, cur.Artist)
	}
	if first || prev.Album != cur.Album {
		add(protocol.FieldAlbum, cur.Album)
	}
	if first || prev.ArtURL != cur.ArtURL {
		add(protocol.FieldCoverURL, cur.ArtURL)
	}
	durationChanged := first || seconds(prev.Length) != seconds(cur.Length)
	if durationChanged {
		add(protocol.FieldDurationSeconds, strconv.Itoa(seconds(cur.Length)))
	}
	if first || prev.VolumePercent() != cur.VolumePercent() {
		add(protocol.FieldVolume, strconv.Itoa(cur.VolumePercent()))
	}
	if first || prev.Repeat() != cur.Repeat() {
		add(protocol.FieldRepeatMode, cur.Repeat().String())
	}
	if first || prev.Shuffle != cur.Shuffle {
		add(protocol.FieldShuffleActive, strconv.FormatBool(cur.Shuffle))
	}
	if first || prev.Title != cur.Title {
		add(protocol.FieldTitle, cur.Title)
	}
	if first || prev.State() != cur.State() {
		add(protocol.FieldState, cur.State().String())
	}
	if durationChanged || seconds(prev.Position) != seconds(cur.Position) {
		add(protocol.FieldPositionSeconds, strconv.Itoa(seconds(cur.Position)))
	}
	return out
}

func seconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
