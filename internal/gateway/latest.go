package gateway

import "sync"

// Latest remembers the most recent snapshot for readers that poll, such as HTTP handlers.
// Its Apply method is meant to be passed to Subscribe.
type Latest struct {
	mu    sync.RWMutex
	snap  Snapshot
	ready bool
}

// Apply stores snap.
func (l *Latest) Apply(snap Snapshot) {
	l.mu.Lock()
	l.snap, l.ready = snap, true
	l.mu.Unlock()
}

// Snapshot returns the latest snapshot, or an empty one before the first delivery.
// Callers must not modify it.
func (l *Latest) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.snap == nil {
		return Snapshot{}
	}
	return l.snap
}

// Ready reports whether a snapshot has been delivered yet.
func (l *Latest) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}
