// Package logging defines the pluggable log sink the adapter core reports
// through, a slog-backed default and an optional duplicate throttle.
package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Severity is the level of a core log message.
type Severity int

const (
	Debug Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "DEBUG"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Sink receives core log messages.
type Sink func(Severity, string)

// Discard drops every message.
func Discard(Severity, string) {}

// SlogSink forwards messages to l, or the default logger when l is nil.
func SlogSink(l *slog.Logger) Sink {
	return func(sev Severity, msg string) {
		logger := l
		if logger == nil {
			logger = slog.Default()
		}
		logger.Log(context.Background(), sev.level(), msg)
	}
}

func (s Severity) level() slog.Level {
	switch s {
	case Debug:
		return slog.LevelDebug
	case Warning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// DefaultThrottleWindow is how long an identical message stays suppressed.
const DefaultThrottleWindow = 30 * time.Second

type throttleKey struct {
	sev Severity
	msg string
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttler passes each distinct (severity, message) pair at most once per
// window. Expired keys are pruned on the write path; nothing sleeps.
type Throttler struct {
	mu      sync.Mutex
	next    Sink
	window  time.Duration
	now     func() time.Time
	entries map[throttleKey]*throttleEntry
}

// NewThrottler wraps next. A non-positive window uses DefaultThrottleWindow.
func NewThrottler(next Sink, window time.Duration) *Throttler {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	return &Throttler{
		next:    next,
		window:  window,
		now:     time.Now,
		entries: make(map[throttleKey]*throttleEntry),
	}
}

// Throttle is a convenience returning the throttled Sink directly.
func Throttle(next Sink, window time.Duration) Sink {
	return NewThrottler(next, window).Log
}

// Log forwards msg unless the same message was forwarded within the window.
func (t *Throttler) Log(sev Severity, msg string) {
	now := t.now()
	key := throttleKey{sev: sev, msg: msg}

	t.mu.Lock()
	t.prune(now)
	e, ok := t.entries[key]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(rate.Every(t.window), 1)}
		t.entries[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)
	t.mu.Unlock()

	if allowed {
		t.next(sev, msg)
	}
}

// prune drops keys idle for longer than the window. Caller holds t.mu.
func (t *Throttler) prune(now time.Time) {
	for k, e := range t.entries {
		if now.Sub(e.lastSeen) >= t.window {
			delete(t.entries, k)
		}
	}
}
