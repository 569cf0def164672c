package adapter

import (
	"github.com/nowplaying-redux/adapter-go/internal/models"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
)

// apply performs the state update for one decoded message. A parse error
// is returned before anything is written.
func apply(c *models.ConnectionState, msg protocol.Message, nowMs int64) error {
	switch msg.Field {
	case protocol.FieldPlayerName:
		c.PlayerName = msg.Value
	case protocol.FieldIsNative:
		v, err := msg.Bool()
		if err != nil {
			return err
		}
		c.IsNative = v
	case protocol.FieldTimestampOffsetSeconds:
		v, err := msg.Int()
		if err != nil {
			return err
		}
		c.TimestampOffsetSeconds = v
	case protocol.FieldPlayerControls:
		v, err := msg.Controls()
		if err != nil {
			return err
		}
		c.Controls = v
	case protocol.FieldState:
		v, err := msg.State()
		if err != nil {
			return err
		}
		c.SetState(v, nowMs)
	case protocol.FieldTitle:
		c.SetTitle(msg.Value, nowMs)
	case protocol.FieldArtist:
		c.Artist = msg.Value
	case protocol.FieldAlbum:
		c.Album = msg.Value
	case protocol.FieldCoverURL:
		c.CoverURL = msg.Value
	case protocol.FieldDurationSeconds:
		v, err := msg.Int()
		if err != nil {
			return err
		}
		c.SetDurationSeconds(v)
	case protocol.FieldPositionSeconds:
		v, err := msg.Int()
		if err != nil {
			return err
		}
		c.SetPositionSeconds(v)
	case protocol.FieldVolume:
		v, err := msg.Int()
		if err != nil {
			return err
		}
		c.SetVolume(v, nowMs)
	case protocol.FieldRating:
		v, err := msg.Int()
		if err != nil {
			return err
		}
		c.Rating = v
	case protocol.FieldRepeatMode:
		v, err := msg.Repeat()
		if err != nil {
			return err
		}
		c.RepeatMode = v
	case protocol.FieldShuffleActive:
		v, err := msg.Bool()
		if err != nil {
			return err
		}
		c.ShuffleActive = v
	}
	return nil
}
