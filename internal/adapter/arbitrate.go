package adapter

import "github.com/nowplaying-redux/adapter-go/internal/models"

// Select picks the connection to publish from a snapshot ordered newest
// first. Native sources are skipped unless nativeEnabled. The first
// audibly playing source (PLAYING, volume > 0) wins; otherwise the newest
// remaining source does. ok is false when nothing is eligible.
//
// A paused source that was touched last must not eclipse one that is
// actually playing, hence the two criteria instead of recency alone.
func Select(snapshot []models.ConnectionState, nativeEnabled bool) (models.ConnectionState, bool) {
	fallback := -1
	for i := range snapshot {
		c := &snapshot[i]
		if c.IsNative && !nativeEnabled {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		if c.State == models.StatePlaying && c.Volume > 0 {
			return *c, true
		}
	}
	if fallback < 0 {
		return models.ConnectionState{}, false
	}
	return snapshot[fallback], true
}
