package memory

import (
	"context"
	"sync"
	"time"
)

var now = func() time.Time { return time.Now().UTC() }

// LoginLimiter is a fixed-window attempt counter used when Redis is not
// configured. Counts are lost on restart. Expired windows are swept at most
// once per window, so the map holds only keys seen in the last two windows.
type LoginLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	now       func() time.Time
	hits      map[string]window
	nextSweep time.Time
}

type window struct {
	count   int
	expires time.Time
}

// NewLoginLimiter allows max attempts per key and window. A max of zero or
// less disables the limit.
func NewLoginLimiter(max int, windowSize time.Duration) *LoginLimiter {
	return &LoginLimiter{max: max, window: windowSize, now: now, hits: make(map[string]window)}
}

func (l *LoginLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.now()
	if !t.Before(l.nextSweep) {
		l.sweep(t)
		l.nextSweep = t.Add(l.window)
	}
	w := l.hits[key]
	if !t.Before(w.expires) {
		w = window{expires: t.Add(l.window)}
	}
	w.count++
	l.hits[key] = w
	return w.count <= l.max, nil
}

func (l *LoginLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
	return nil
}

func (l *LoginLimiter) sweep(t time.Time) {
	for key, w := range l.hits {
		if !t.Before(w.expires) {
			delete(l.hits, key)
		}
	}
}
