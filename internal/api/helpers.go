// Package api implements the consumer-facing HTTP API: the merged media
// state, command execution and a server-sent event stream.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nowplaying-redux/adapter-go/internal/adapter"
	"github.com/nowplaying-redux/adapter-go/internal/models"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl     Controller
	events   EventBus
	hostname string
}

// Controller is the interface the handlers use to read and drive the adapter.
// *adapter.Adapter satisfies it.
type Controller interface {
	MediaInfo() models.MediaInfo
	Clients() int
	Version() string
	NativeAPIsEnabled() bool
	SetNativeAPIsEnabled(enabled bool) error
	Execute(name, value string) error
}

// EventBus is the interface for subscribing to merged state changes.
type EventBus interface {
	Subscribe(id string) <-chan models.MediaInfo
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// commandError maps an Execute failure onto the API error envelope.
func commandError(err error) *models.AppError {
	switch {
	case errors.Is(err, adapter.ErrUnknownCommand),
		errors.Is(err, adapter.ErrMissingValue),
		errors.Is(err, protocol.ErrInvalidValue):
		return models.ErrBadRequest(err.Error())
	case errors.Is(err, adapter.ErrTargetGone),
		errors.Is(err, adapter.ErrNoThumbs):
		return models.ErrConflict(err.Error())
	default:
		return models.ErrUnavailable(err.Error())
	}
}
