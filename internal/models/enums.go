package models

import (
	"fmt"
	"strings"
)

// PlaybackState is the playback status reported by a source.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

var playbackStateNames = [...]string{"STOPPED", "PLAYING", "PAUSED"}

func (s PlaybackState) String() string {
	if s < 0 || int(s) >= len(playbackStateNames) {
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
	return playbackStateNames[s]
}

// ParsePlaybackState parses a state name case-insensitively.
func ParsePlaybackState(s string) (PlaybackState, error) {
	i, err := parseName(playbackStateNames[:], s)
	if err != nil {
		return StateStopped, fmt.Errorf("playback state: %w", err)
	}
	return PlaybackState(i), nil
}

func (s PlaybackState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *PlaybackState) UnmarshalText(b []byte) error {
	v, err := ParsePlaybackState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// RepeatMode is the repeat setting reported by a source.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

var repeatModeNames = [...]string{"NONE", "ONE", "ALL"}

func (r RepeatMode) String() string {
	if r < 0 || int(r) >= len(repeatModeNames) {
		return fmt.Sprintf("RepeatMode(%d)", int(r))
	}
	return repeatModeNames[r]
}

// ParseRepeatMode parses a repeat mode name case-insensitively.
func ParseRepeatMode(s string) (RepeatMode, error) {
	i, err := parseName(repeatModeNames[:], s)
	if err != nil {
		return RepeatNone, fmt.Errorf("repeat mode: %w", err)
	}
	return RepeatMode(i), nil
}

func (r RepeatMode) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *RepeatMode) UnmarshalText(b []byte) error {
	v, err := ParseRepeatMode(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// RatingSystem describes how a source rates media.
type RatingSystem int

const (
	RatingNone RatingSystem = iota
	RatingLike
	RatingLikeDislike
	RatingScale
)

var ratingSystemNames = [...]string{"NONE", "LIKE", "LIKE_DISLIKE", "SCALE"}

func (r RatingSystem) String() string {
	if r < 0 || int(r) >= len(ratingSystemNames) {
		return fmt.Sprintf("RatingSystem(%d)", int(r))
	}
	return ratingSystemNames[r]
}

// ParseRatingSystem parses a rating system name case-insensitively.
func ParseRatingSystem(s string) (RatingSystem, error) {
	i, err := parseName(ratingSystemNames[:], s)
	if err != nil {
		return RatingNone, fmt.Errorf("rating system: %w", err)
	}
	return RatingSystem(i), nil
}

func (r RatingSystem) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *RatingSystem) UnmarshalText(b []byte) error {
	v, err := ParseRatingSystem(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func parseName(names []string, s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q", s)
}
