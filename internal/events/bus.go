// Package events fans merged media state out to consumers (SSE clients,
// bridges). Each subscriber gets its own buffered channel.
package events

import (
	"sync"

	"github.com/nowplaying-redux/adapter-go/internal/models"
)

const subBufferSize = 8

// Bus delivers MediaInfo snapshots without ever blocking the publisher.
// When a subscriber's buffer is full its oldest pending snapshot is
// discarded, so the newest one is always the last it receives.
// Consecutive identical snapshots are collapsed.
type Bus struct {
	mu      sync.Mutex
	subs    map[string]chan models.MediaInfo
	last    models.MediaInfo
	hasLast bool
	dropped uint64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan models.MediaInfo),
	}
}

// Subscribe registers id and returns its channel. If anything was published
// before, the latest snapshot is already waiting in the channel.
func (b *Bus) Subscribe(id string) <-chan models.MediaInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subs[id]; ok {
		close(old)
	}
	ch := make(chan models.MediaInfo, subBufferSize)
	if b.hasLast {
		ch <- b.last
	}
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish hands info to every subscriber. It reports false when info equals
// the previous snapshot and nothing was sent.
func (b *Bus) Publish(info models.MediaInfo) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hasLast && b.last == info {
		return false
	}
	b.last, b.hasLast = info, true
	for _, ch := range b.subs {
		select {
		case ch <- info:
		default:
			select {
			case <-ch:
			default:
			}
			b.dropped++
			select {
			case ch <- info:
			default:
			}
		}
	}
	return true
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many pending snapshots were discarded for full subscribers.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
