package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/nowplaying-redux/adapter-go/internal/models"
)

// sseEvents handles the SSE (Server-Sent Events) endpoint.
// Clients receive the current merged state immediately, then every change.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	id := uuid.New().String()
	ch := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id)

	last := h.ctrl.MediaInfo()
	sendSSE(w, flusher, last)

	for {
		select {
		case info, ok := <-ch:
			if !ok {
				return
			}
			// The bus primes new subscribers with its latest value,
			// which is usually what was just sent.
			if info == last {
				continue
			}
			last = info
			sendSSE(w, flusher, info)
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, info models.MediaInfo) {
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
