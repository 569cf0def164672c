package protocol_test

import (
	"errors"
	"testing"

	"github.com/nowplaying-redux/adapter-go/internal/models"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		line      string
		wantField protocol.Field
		wantValue string
		wantErr   error
	}{
		{"TITLE Song A", protocol.FieldTitle, "Song A", nil},
		{"title Song With  Spaces", protocol.FieldTitle, "Song With  Spaces", nil},
		{"State PLAYING\r\n", protocol.FieldState, "PLAYING", nil},
		{"TITLE ", protocol.FieldTitle, "", nil},
		{"ERRORDEBUG stack: a b c", protocol.FieldErrorDebug, "stack: a b c", nil},
		{"NOSPACE", "", "", protocol.ErrMalformed},
		{"", "", "", protocol.ErrMalformed},
		{" leading", "", "", protocol.ErrMalformed},
		{"BOGUS 12", "BOGUS", "12", protocol.ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, err := protocol.Decode(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode(%q) err = %v, want %v", tt.line, err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tt.line, err)
			}
			if msg.Field != tt.wantField || msg.Value != tt.wantValue {
				t.Errorf("Decode(%q) = {%q %q}, want {%q %q}", tt.line, msg.Field, msg.Value, tt.wantField, tt.wantValue)
			}
		})
	}
}

func TestMessageTypedValues(t *testing.T) {
	msg := protocol.Message{Field: protocol.FieldVolume, Value: " 42 "}
	if n, err := msg.Int(); err != nil || n != 42 {
		t.Errorf("Int() = %d, %v; want 42", n, err)
	}

	bad := protocol.Message{Field: protocol.FieldVolume, Value: "loud"}
	if _, err := bad.Int(); !errors.Is(err, protocol.ErrInvalidValue) {
		t.Errorf("Int() on %q err = %v, want ErrInvalidValue", bad.Value, err)
	}

	b := protocol.Message{Field: protocol.FieldShuffleActive, Value: "True"}
	if v, err := b.Bool(); err != nil || !v {
		t.Errorf("Bool() = %v, %v; want true", v, err)
	}

	st := protocol.Message{Field: protocol.FieldState, Value: "paused"}
	if v, err := st.State(); err != nil || v != models.StatePaused {
		t.Errorf("State() = %v, %v; want PAUSED", v, err)
	}
	if _, err := (protocol.Message{Field: protocol.FieldState, Value: "BUFFERING"}).State(); !errors.Is(err, protocol.ErrInvalidValue) {
		t.Errorf("State() on BUFFERING err = %v, want ErrInvalidValue", err)
	}

	rp := protocol.Message{Field: protocol.FieldRepeatMode, Value: "ALL"}
	if v, err := rp.Repeat(); err != nil || v != models.RepeatAll {
		t.Errorf("Repeat() = %v, %v; want ALL", v, err)
	}
}

func TestDecodeControls(t *testing.T) {
	c, err := protocol.DecodeControls(`{"supports_play_pause":true,"supports_set_volume":true,"rating_system":"LIKE_DISLIKE","extra":1}`)
	if err != nil {
		t.Fatalf("DecodeControls: %v", err)
	}
	want := models.PlayerControls{
		SupportsPlayPause: true,
		SupportsSetVolume: true,
		RatingSystem:      models.RatingLikeDislike,
	}
	if c != want {
		t.Errorf("DecodeControls = %+v, want %+v", c, want)
	}

	empty, err := protocol.DecodeControls(`{}`)
	if err != nil {
		t.Fatalf("DecodeControls({}): %v", err)
	}
	if empty != (models.PlayerControls{}) {
		t.Errorf("missing fields should default, got %+v", empty)
	}

	if _, err := protocol.DecodeControls(`{"rating_system":"STARS"}`); err == nil {
		t.Error("expected error for unknown rating system")
	}
	if _, err := (protocol.Message{Field: protocol.FieldPlayerControls, Value: "not json"}).Controls(); !errors.Is(err, protocol.ErrInvalidValue) {
		t.Errorf("Controls() err = %v, want ErrInvalidValue", err)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"bare", protocol.Encode(protocol.CmdTogglePlayPause), "TRY_TOGGLE_PLAY_PAUSE"},
		{"int", protocol.EncodeInt(protocol.CmdSetVolume, 42), "TRY_SET_VOLUME 42"},
		{"position", protocol.EncodeSetPosition(30, 0.25), "TRY_SET_POSITION 30:0.25"},
		{"position zero", protocol.EncodeSetPosition(0, 0), "TRY_SET_POSITION 0:0"},
		{"position end", protocol.EncodeSetPosition(200, 1), "TRY_SET_POSITION 200:1"},
		{"handshake", protocol.Handshake("1.2.3", protocol.ProtocolRevision), "ADAPTER_VERSION 1.2.3;PROTOCOL_REVISION 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	cmd, arg, err := protocol.ParseCommand("TRY_SET_POSITION 30:0.25")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if cmd != protocol.CmdSetPosition || arg != "30:0.25" {
		t.Errorf("ParseCommand = %q %q", cmd, arg)
	}
	sec, frac, err := protocol.ParseSetPosition(arg)
	if err != nil || sec != 30 || frac != 0.25 {
		t.Errorf("ParseSetPosition = %d %v %v", sec, frac, err)
	}

	if cmd, arg, err := protocol.ParseCommand("TRY_SKIP_NEXT"); err != nil || cmd != protocol.CmdSkipNext || arg != "" {
		t.Errorf("ParseCommand(TRY_SKIP_NEXT) = %q %q %v", cmd, arg, err)
	}
	if _, _, err := protocol.ParseCommand("EXPLODE now"); !errors.Is(err, protocol.ErrMalformed) {
		t.Errorf("ParseCommand unknown err = %v", err)
	}
	if _, _, err := protocol.ParseSetPosition("30"); !errors.Is(err, protocol.ErrInvalidValue) {
		t.Errorf("ParseSetPosition(30) err = %v", err)
	}
}

func TestEncodeControlsRoundTrip(t *testing.T) {
	in := models.PlayerControls{SupportsSkipNext: true, SupportsSetPosition: true, RatingSystem: models.RatingScale}
	out, err := protocol.DecodeControls(protocol.EncodeControls(in))
	if err != nil {
		t.Fatalf("DecodeControls: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}
