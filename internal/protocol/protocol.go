// Package protocol implements the line-oriented wire format spoken between
// the adapter and its sources. Inbound lines are "<FIELD> <value>", outbound
// commands are "<COMMAND>" or "<COMMAND> <args>". Everything here is a pure
// function of its input.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nowplaying-redux/adapter-go/internal/models"
)

// ProtocolRevision is sent in the handshake. Bump it whenever a wire-format
// change breaks compatibility with existing sources.
const ProtocolRevision = 2

var (
	// ErrMalformed is returned for a line without a field/value separator.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownField is returned for a field outside the vocabulary.
	ErrUnknownField = errors.New("unknown message type")
	// ErrInvalidValue is returned when a value cannot be parsed for its field.
	ErrInvalidValue = errors.New("invalid value")
)

// Field names an inbound message type.
type Field string

const (
	FieldPlayerName             Field = "PLAYER_NAME"
	FieldIsNative               Field = "IS_NATIVE"
	FieldTimestampOffsetSeconds Field = "TIMESTAMP_OFFSET_SECONDS"
	FieldPlayerControls         Field = "PLAYER_CONTROLS"
	FieldState                  Field = "STATE"
	FieldTitle                  Field = "TITLE"
	FieldArtist                 Field = "ARTIST"
	FieldAlbum                  Field = "ALBUM"
	FieldCoverURL               Field = "COVER_URL"
	FieldDurationSeconds        Field = "DURATION_SECONDS"
	FieldPositionSeconds        Field = "POSITION_SECONDS"
	FieldVolume                 Field = "VOLUME"
	FieldRating                 Field = "RATING"
	FieldRepeatMode             Field = "REPEAT_MODE"
	FieldShuffleActive          Field = "SHUFFLE_ACTIVE"
	FieldError                  Field = "ERROR"
	FieldErrorDebug             Field = "ERRORDEBUG"
	FieldUseNativeAPIs          Field = "USE_NATIVE_APIS"
)

var knownFields = map[Field]struct{}{
	FieldPlayerName: {}, FieldIsNative: {}, FieldTimestampOffsetSeconds: {},
	FieldPlayerControls: {}, FieldState: {}, FieldTitle: {}, FieldArtist: {},
	FieldAlbum: {}, FieldCoverURL: {}, FieldDurationSeconds: {},
	FieldPositionSeconds: {}, FieldVolume: {}, FieldRating: {},
	FieldRepeatMode: {}, FieldShuffleActive: {}, FieldError: {},
	FieldErrorDebug: {}, FieldUseNativeAPIs: {},
}

// Message is one decoded inbound line.
type Message struct {
	Field Field
	Value string
}

// Decode parses "<FIELD> <value>". The field is matched case-insensitively,
// the value is everything after the first space and may contain spaces.
// An unknown field still yields its Message alongside ErrUnknownField.
func Decode(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	name, value, ok := strings.Cut(line, " ")
	if !ok || name == "" {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	msg := Message{Field: Field(strings.ToUpper(name)), Value: value}
	if _, known := knownFields[msg.Field]; !known {
		return msg, fmt.Errorf("%w: %s", ErrUnknownField, msg.Field)
	}
	return msg, nil
}

// String renders the message back into its wire form.
func (m Message) String() string {
	return string(m.Field) + " " + m.Value
}

// Int parses the value as a base-10 integer.
func (m Message) Int() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(m.Value))
	if err != nil {
		return 0, m.invalid(err)
	}
	return n, nil
}

// Bool parses the value as a boolean ("true"/"false", case-insensitive).
func (m Message) Bool() (bool, error) {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(m.Value)))
	if err != nil {
		return false, m.invalid(err)
	}
	return b, nil
}

// State parses the value as a playback state.
func (m Message) State() (models.PlaybackState, error) {
	s, err := models.ParsePlaybackState(m.Value)
	if err != nil {
		return s, m.invalid(err)
	}
	return s, nil
}

// Repeat parses the value as a repeat mode.
func (m Message) Repeat() (models.RepeatMode, error) {
	r, err := models.ParseRepeatMode(m.Value)
	if err != nil {
		return r, m.invalid(err)
	}
	return r, nil
}

// Controls decodes the value as a PLAYER_CONTROLS payload.
func (m Message) Controls() (models.PlayerControls, error) {
	c, err := DecodeControls(m.Value)
	if err != nil {
		return c, m.invalid(err)
	}
	return c, nil
}

func (m Message) invalid(err error) error {
	return fmt.Errorf("%s: %w: %w", m.Field, ErrInvalidValue, err)
}

// DecodeControls decodes the capability payload into its fixed shape.
// Unknown keys are ignored and missing keys keep their zero value.
func DecodeControls(payload string) (models.PlayerControls, error) {
	var c models.PlayerControls
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return models.PlayerControls{}, err
	}
	return c, nil
}

// Handshake is the line unicast to a newly admitted connection.
func Handshake(adapterVersion string, revision int) string {
	return fmt.Sprintf("ADAPTER_VERSION %s;PROTOCOL_REVISION %d", adapterVersion, revision)
}

// EncodeControls renders a capability set as a PLAYER_CONTROLS payload.
func EncodeControls(c models.PlayerControls) string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}
