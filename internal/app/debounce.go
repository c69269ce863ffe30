package app

import (
	"sync"
	"time"
)

// KeyedDebouncer drops repeats of a key seen within a window. Keys never
// debounce each other.
type KeyedDebouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewKeyedDebouncer creates a debouncer with the given window.
func NewKeyedDebouncer(window time.Duration) *KeyedDebouncer {
	return &KeyedDebouncer{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether key may pass and records it. A key passes when it
// was not allowed within the window.
func (d *KeyedDebouncer) Allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if t, ok := d.last[key]; ok && now.Sub(t) < d.window {
		return false
	}
	d.last[key] = now

	if len(d.last) > 64 {
		for k, t := range d.last {
			if now.Sub(t) >= d.window {
				delete(d.last, k)
			}
		}
	}
	return true
}
