package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options carries the optional parts of the router.
type Options struct {
	// Sources, when set, is mounted at "/" to accept source connections.
	Sources http.Handler
	// Hostname is reported by /api/info.
	Hostname string
}

// NewRouter creates and returns the main HTTP router.
func NewRouter(ctrl Controller, bus EventBus, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus, hostname: opts.Hostname}

	if opts.Sources != nil {
		r.Handle("/", opts.Sources)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Logger)

		r.Get("/media", h.getMedia)
		r.Post("/media/{command}", h.execCommand)
		r.Get("/info", h.getInfo)
		r.Get("/native", h.getNative)
		r.Put("/native", h.setNative)

		// SSE
		r.Get("/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
