package adapter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nowplaying-redux/adapter-go/internal/logging"
	"github.com/nowplaying-redux/adapter-go/internal/models"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
)

var (
	// ErrTargetGone is returned when the published connection disappeared
	// between reading the merged state and sending to it.
	ErrTargetGone = errors.New("target connection is gone")
	// ErrUnknownCommand is returned by Execute for an unknown command name.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingValue is returned by Execute when a command needs a value.
	ErrMissingValue = errors.New("command requires a value")
	// ErrNoThumbs is returned by the thumbs toggles for a source that rates
	// on a numeric scale.
	ErrNoThumbs = errors.New("source has no thumbs rating")
)

// sendTo delivers line to the connection behind info. An empty merged
// state means there is nothing to control and is not an error.
// Failures are logged and returned, never retried: the next arbitration
// pass will pick a new target.
func (a *Adapter) sendTo(info models.MediaInfo, line string) error {
	if info.Empty() {
		return nil
	}
	peer, ok := a.reg.Peer(info.ID)
	if !ok {
		a.log(logging.Warning, fmt.Sprintf("adapter: %s: cannot send %q, connection is gone", info.ID, line))
		return fmt.Errorf("%w: %s", ErrTargetGone, info.ID)
	}
	if err := peer.Send(line); err != nil {
		a.log(logging.Error, fmt.Sprintf("adapter: %s: failed to send %q: %v", info.ID, line, err))
		return fmt.Errorf("send to %s: %w", info.ID, err)
	}
	return nil
}

func (a *Adapter) send(line string) error {
	return a.sendTo(a.MediaInfo(), line)
}

// TogglePlayPause toggles playback of the current media.
func (a *Adapter) TogglePlayPause() error {
	return a.send(protocol.Encode(protocol.CmdTogglePlayPause))
}

// SkipPrevious skips to the previous media or section if supported.
func (a *Adapter) SkipPrevious() error {
	return a.send(protocol.Encode(protocol.CmdSkipPrevious))
}

// SkipNext skips to the next media or section if supported.
func (a *Adapter) SkipNext() error {
	return a.send(protocol.Encode(protocol.CmdSkipNext))
}

// SetPositionSeconds seeks to seconds, clamped to [0, duration].
func (a *Adapter) SetPositionSeconds(seconds int) error {
	info := a.MediaInfo()
	return a.seek(info, float64(seconds))
}

// RevertPositionSeconds seeks back by seconds.
func (a *Adapter) RevertPositionSeconds(seconds int) error {
	info := a.MediaInfo()
	return a.seek(info, float64(info.PositionSeconds)-float64(seconds))
}

// ForwardPositionSeconds seeks forward by seconds.
func (a *Adapter) ForwardPositionSeconds(seconds int) error {
	info := a.MediaInfo()
	return a.seek(info, float64(info.PositionSeconds)+float64(seconds))
}

// SetPositionPercent seeks to percent of the duration.
func (a *Adapter) SetPositionPercent(percent float64) error {
	info := a.MediaInfo()
	return a.seek(info, percentOf(percent, info.DurationSeconds))
}

// RevertPositionPercent seeks back by percent of the duration.
func (a *Adapter) RevertPositionPercent(percent float64) error {
	info := a.MediaInfo()
	return a.seek(info, float64(info.PositionSeconds)-percentOf(percent, info.DurationSeconds))
}

// ForwardPositionPercent seeks forward by percent of the duration.
func (a *Adapter) ForwardPositionPercent(percent float64) error {
	info := a.MediaInfo()
	return a.seek(info, float64(info.PositionSeconds)+percentOf(percent, info.DurationSeconds))
}

// seek works in float64 so that huge offsets saturate at the track ends
// instead of wrapping.
func (a *Adapter) seek(info models.MediaInfo, target float64) error {
	seconds := ClampPosition(target, info.DurationSeconds)
	fraction := 0.0
	if info.DurationSeconds > 0 {
		fraction = float64(seconds) / float64(info.DurationSeconds)
	}
	return a.sendTo(info, protocol.EncodeSetPosition(seconds, fraction))
}

// SetVolume sets the volume, clamped to [0,100].
func (a *Adapter) SetVolume(volume int) error {
	return a.send(protocol.EncodeInt(protocol.CmdSetVolume, models.ClampVolume(volume)))
}

// ToggleRepeatMode cycles the repeat mode if supported.
func (a *Adapter) ToggleRepeatMode() error {
	return a.send(protocol.Encode(protocol.CmdToggleRepeatMode))
}

// ToggleShuffleActive toggles shuffle if supported.
func (a *Adapter) ToggleShuffleActive() error {
	return a.send(protocol.Encode(protocol.CmdToggleShuffleActive))
}

// SetRating sets the rating on the source's own scale (commonly 0-5).
// Sources with a like/dislike system map 0 to no rating, 1-2 to
// thumbs down and 3-5 to thumbs up.
func (a *Adapter) SetRating(rating int) error {
	return a.send(protocol.EncodeInt(protocol.CmdSetRating, rating))
}

// ToggleThumbsUp rates 5, or clears the rating when it already is 5.
// Sources that rate on a numeric scale are refused with ErrNoThumbs.
func (a *Adapter) ToggleThumbsUp() error {
	info := a.MediaInfo()
	if err := a.checkThumbs(info); err != nil {
		return err
	}
	rating := 5
	if info.Rating == 5 {
		rating = 0
	}
	return a.sendTo(info, protocol.EncodeInt(protocol.CmdSetRating, rating))
}

// ToggleThumbsDown rates 1, or clears the rating when it already is 1.
// Sources that rate on a numeric scale are refused with ErrNoThumbs.
func (a *Adapter) ToggleThumbsDown() error {
	info := a.MediaInfo()
	if err := a.checkThumbs(info); err != nil {
		return err
	}
	rating := 1
	if info.Rating == 1 {
		rating = 0
	}
	return a.sendTo(info, protocol.EncodeInt(protocol.CmdSetRating, rating))
}

// checkThumbs rejects SCALE sources. Sources that never declared a rating
// system get the thumbs mapping.
func (a *Adapter) checkThumbs(info models.MediaInfo) error {
	if info.Empty() || info.Controls.RatingSystem != models.RatingScale {
		return nil
	}
	a.log(logging.Debug, fmt.Sprintf("adapter: %s: thumbs ignored, source rates on a scale", info.ID))
	return fmt.Errorf("%w: %s", ErrNoThumbs, info.ID)
}

// ClampPosition rounds seconds to whole seconds within [0, duration].
// NaN counts as 0.
func ClampPosition(seconds float64, duration int) int {
	if math.IsNaN(seconds) {
		return 0
	}
	end := float64(max(duration, 0))
	return int(math.Min(math.Max(math.Round(seconds), 0), end))
}

func percentOf(percent float64, duration int) float64 {
	return percent / 100 * float64(duration)
}

// Execute runs a command by name. value is required by the commands that
// take a number and ignored by the rest.
func (a *Adapter) Execute(name, value string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "toggle_play_pause", "play_pause":
		return a.TogglePlayPause()
	case "skip_previous", "previous":
		return a.SkipPrevious()
	case "skip_next", "next":
		return a.SkipNext()
	case "toggle_repeat_mode":
		return a.ToggleRepeatMode()
	case "toggle_shuffle_active":
		return a.ToggleShuffleActive()
	case "toggle_thumbs_up":
		return a.ToggleThumbsUp()
	case "toggle_thumbs_down":
		return a.ToggleThumbsDown()
	}

	intCmds := map[string]func(int) error{
		"set_position_seconds":     a.SetPositionSeconds,
		"revert_position_seconds":  a.RevertPositionSeconds,
		"forward_position_seconds": a.ForwardPositionSeconds,
		"set_volume":               a.SetVolume,
		"set_rating":               a.SetRating,
	}
	floatCmds := map[string]func(float64) error{
		"set_position_percent":     a.SetPositionPercent,
		"revert_position_percent":  a.RevertPositionPercent,
		"forward_position_percent": a.ForwardPositionPercent,
	}

	if fn, ok := intCmds[name]; ok {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingValue, name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w: %w", name, protocol.ErrInvalidValue, err)
		}
		return fn(n)
	}
	if fn, ok := floatCmds[name]; ok {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingValue, name)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", name, protocol.ErrInvalidValue, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%s: %w: %q", name, protocol.ErrInvalidValue, value)
		}
		return fn(f)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}
