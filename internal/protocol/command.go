package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Command names an outbound control request. Sources treat every command as
// a best-effort attempt, hence the TRY_ prefix.
type Command string

const (
	CmdTogglePlayPause     Command = "TRY_TOGGLE_PLAY_PAUSE"
	CmdSkipPrevious        Command = "TRY_SKIP_PREVIOUS"
	CmdSkipNext            Command = "TRY_SKIP_NEXT"
	CmdSetPosition         Command = "TRY_SET_POSITION"
	CmdSetVolume           Command = "TRY_SET_VOLUME"
	CmdToggleRepeatMode    Command = "TRY_TOGGLE_REPEAT_MODE"
	CmdToggleShuffleActive Command = "TRY_TOGGLE_SHUFFLE_ACTIVE"
	CmdSetRating           Command = "TRY_SET_RATING"
)

var knownCommands = map[Command]struct{}{
	CmdTogglePlayPause: {}, CmdSkipPrevious: {}, CmdSkipNext: {},
	CmdSetPosition: {}, CmdSetVolume: {}, CmdToggleRepeatMode: {},
	CmdToggleShuffleActive: {}, CmdSetRating: {},
}

// Encode renders a command line. Arguments are joined with single spaces.
func Encode(cmd Command, args ...string) string {
	if len(args) == 0 {
		return string(cmd)
	}
	return string(cmd) + " " + strings.Join(args, " ")
}

// EncodeInt renders a command with one integer argument.
func EncodeInt(cmd Command, n int) string {
	return Encode(cmd, strconv.Itoa(n))
}

// EncodeSetPosition renders "TRY_SET_POSITION <seconds>:<fraction>".
// The fraction is in [0,1] and always uses '.' as decimal separator.
func EncodeSetPosition(seconds int, fraction float64) string {
	return Encode(CmdSetPosition, strconv.Itoa(seconds)+":"+strconv.FormatFloat(fraction, 'f', -1, 64))
}

// ParseCommand splits an outbound command line back into its parts.
func ParseCommand(line string) (Command, string, error) {
	name, arg, _ := strings.Cut(strings.TrimRight(line, "\r\n"), " ")
	cmd := Command(strings.ToUpper(name))
	if _, ok := knownCommands[cmd]; !ok {
		return "", "", fmt.Errorf("%w: command %q", ErrMalformed, name)
	}
	return cmd, arg, nil
}

// ParseSetPosition parses the argument of TRY_SET_POSITION.
func ParseSetPosition(arg string) (int, float64, error) {
	secStr, fracStr, ok := strings.Cut(arg, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: position %q", ErrInvalidValue, arg)
	}
	seconds, err := strconv.Atoi(secStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: position seconds: %w", ErrInvalidValue, err)
	}
	fraction, err := strconv.ParseFloat(fracStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: position fraction: %w", ErrInvalidValue, err)
	}
	return seconds, fraction, nil
}
