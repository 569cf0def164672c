package models

import (
	"fmt"
	"math"
)

// PlayerControls is the capability set a source advertises through
// PLAYER_CONTROLS. Fields missing from the payload stay false / RatingNone.
type PlayerControls struct {
	SupportsPlayPause           bool         `json:"supports_play_pause"`
	SupportsSkipPrevious        bool         `json:"supports_skip_previous"`
	SupportsSkipNext            bool         `json:"supports_skip_next"`
	SupportsSetPosition         bool         `json:"supports_set_position"`
	SupportsSetVolume           bool         `json:"supports_set_volume"`
	SupportsToggleRepeatMode    bool         `json:"supports_toggle_repeat_mode"`
	SupportsToggleShuffleActive bool         `json:"supports_toggle_shuffle_active"`
	SupportsSetRating           bool         `json:"supports_set_rating"`
	RatingSystem                RatingSystem `json:"rating_system"`
}

// ConnectionState is the media state of one connected source.
// It is owned by the registry; every mutation goes through the update
// methods below so timestamp side effects are explicit at the call site.
type ConnectionState struct {
	ID                     string         `json:"id"`
	PlayerName             string         `json:"player_name"`
	IsNative               bool           `json:"is_native"`
	TimestampOffsetSeconds int            `json:"timestamp_offset_seconds"`
	State                  PlaybackState  `json:"state"`
	Title                  string         `json:"title"`
	Artist                 string         `json:"artist"`
	Album                  string         `json:"album"`
	CoverURL               string         `json:"cover_url"`
	Duration               string         `json:"duration"`
	DurationSeconds        int            `json:"duration_seconds"`
	Position               string         `json:"position"`
	PositionSeconds        int            `json:"position_seconds"`
	PositionPercent        float64        `json:"position_percent"`
	Volume                 int            `json:"volume"`
	Rating                 int            `json:"rating"`
	RepeatMode             RepeatMode     `json:"repeat_mode"`
	ShuffleActive          bool           `json:"shuffle_active"`
	Controls               PlayerControls `json:"controls"`
	// Timestamp orders sources by recency of a meaningful update, in
	// milliseconds since the epoch. Zero means the source has no title.
	Timestamp int64 `json:"timestamp"`
}

// NewConnectionState returns the default state for a freshly admitted connection.
func NewConnectionState(id string) ConnectionState {
	return ConnectionState{
		ID:       id,
		State:    StateStopped,
		Duration: FormatClock(0),
		Position: FormatClock(0),
		Volume:   100,
	}
}

// freshness is the timestamp a meaningful update at nowMs produces. The
// offset saturates instead of wrapping, so a huge positive offset sorts
// newest and a huge negative one oldest.
func (c *ConnectionState) freshness(nowMs int64) int64 {
	const maxOffset = math.MaxInt64 / 1000
	offMs := min(max(int64(c.TimestampOffsetSeconds), -maxOffset), maxOffset) * 1000
	var ts int64
	switch {
	case offMs > 0 && nowMs > math.MaxInt64-offMs:
		ts = math.MaxInt64
	case offMs < 0 && nowMs < math.MinInt64-offMs:
		ts = math.MinInt64
	default:
		ts = nowMs + offMs
	}
	if ts <= 0 {
		// zero is reserved for "no title"
		ts = 1
	}
	return ts
}

func (c *ConnectionState) touch(nowMs int64) {
	if c.Title != "" {
		c.Timestamp = c.freshness(nowMs)
	}
}

// SetState stores the playback state and refreshes the timestamp.
// A source without a title keeps timestamp 0.
func (c *ConnectionState) SetState(s PlaybackState, nowMs int64) {
	c.State = s
	c.touch(nowMs)
}

// SetTitle stores the title. An empty title makes the source unselectable
// by recency (timestamp 0); a non-empty one refreshes the timestamp.
func (c *ConnectionState) SetTitle(title string, nowMs int64) {
	c.Title = title
	if title == "" {
		c.Timestamp = 0
		return
	}
	c.Timestamp = c.freshness(nowMs)
}

// SetDurationSeconds stores the duration. A duration change signals a new
// media item, so the position percentage is reset.
func (c *ConnectionState) SetDurationSeconds(seconds int) {
	seconds = max(seconds, 0)
	c.DurationSeconds = seconds
	c.Duration = FormatClock(seconds)
	c.PositionPercent = 0
}

// SetPositionSeconds stores the position and derives the percentage.
// With an unknown duration the percentage reads 100.
func (c *ConnectionState) SetPositionSeconds(seconds int) {
	seconds = max(seconds, 0)
	c.PositionSeconds = seconds
	c.Position = FormatClock(seconds)
	if c.DurationSeconds > 0 {
		c.PositionPercent = float64(seconds) / float64(c.DurationSeconds) * 100
	} else {
		c.PositionPercent = 100
	}
}

// SetVolume stores the clamped volume. A volume change while playing counts
// as a meaningful update.
func (c *ConnectionState) SetVolume(volume int, nowMs int64) {
	c.Volume = ClampVolume(volume)
	if c.State == StatePlaying {
		c.touch(nowMs)
	}
}

// MediaInfo is the published merged state: a value copy of exactly one
// ConnectionState, or the default state when nothing qualifies.
type MediaInfo ConnectionState

// DefaultMediaInfo is the merged state published when no source qualifies.
func DefaultMediaInfo() MediaInfo {
	return MediaInfo(NewConnectionState(""))
}

// Empty reports whether the merged state belongs to no connection.
func (m MediaInfo) Empty() bool { return m.ID == "" }

// ClampVolume limits v to [0,100].
func ClampVolume(v int) int {
	return min(max(v, 0), 100)
}

// FormatClock renders seconds as M:SS, or H:MM:SS once hours are non-zero.
func FormatClock(seconds int) string {
	seconds = max(seconds, 0)
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
