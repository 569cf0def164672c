package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nowplaying-redux/adapter-go/internal/models"
	"github.com/nowplaying-redux/adapter-go/internal/protocol"
)

func (h *Handlers) getMedia(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.MediaInfo())
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info())
}

func (h *Handlers) info() models.Info {
	return models.Info{
		Version:          h.ctrl.Version(),
		ProtocolRevision: protocol.ProtocolRevision,
		Hostname:         h.hostname,
		Clients:          h.ctrl.Clients(),
		NativeAPIs:       h.ctrl.NativeAPIsEnabled(),
	}
}

// execCommand routes a command to the published source. Commands that take
// a number read it from the "value" query parameter.
func (h *Handlers) execCommand(w http.ResponseWriter, r *http.Request) {
	cmd := chi.URLParam(r, "command")
	if err := h.ctrl.Execute(cmd, r.URL.Query().Get("value")); err != nil {
		writeError(w, commandError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) getNative(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.ctrl.NativeAPIsEnabled()})
}

func (h *Handlers) setNative(w http.ResponseWriter, r *http.Request) {
	var upd models.NativeUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	if upd.Enabled == nil {
		writeError(w, &models.AppError{Code: "BAD_REQUEST", Message: "enabled is required", Field: "enabled", Status: http.StatusBadRequest})
		return
	}
	if err := h.ctrl.SetNativeAPIsEnabled(*upd.Enabled); err != nil {
		writeError(w, models.ErrInternal("failed to persist setting: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.info())
}
