package server

import (
	"sync"
	"time"
)

const (
	defaultIdempotencyTTL = 5 * time.Minute
	idempotencyCacheSize  = 1000
)

// idempotencyKey identifies one request of one session
type idempotencyKey struct {
	SessionID string
	RequestID string
}

// idempotencyEntry stores a cached reply with timestamp
type idempotencyEntry struct {
	reply     Envelope
	createdAt time.Time
}

// IdempotencyManager caches the reply to each (session, requestId) so a
// retried request is answered without running it twice.
type IdempotencyManager struct {
	cache map[idempotencyKey]*idempotencyEntry
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
}

// NewIdempotencyManager creates a new idempotency manager
func NewIdempotencyManager(ttl time.Duration) *IdempotencyManager {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyManager{
		cache: make(map[idempotencyKey]*idempotencyEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Check returns the cached reply for the request, if any
func (im *IdempotencyManager) Check(sessionID, requestID string) (Envelope, bool) {
	if requestID == "" {
		return Envelope{}, false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	entry, exists := im.cache[idempotencyKey{SessionID: sessionID, RequestID: requestID}]
	if !exists || im.now().Sub(entry.createdAt) > im.ttl {
		return Envelope{}, false
	}
	return entry.reply, true
}

// Store caches the reply for the request
func (im *IdempotencyManager) Store(sessionID, requestID string, reply Envelope) {
	if requestID == "" {
		return
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	im.cache[idempotencyKey{SessionID: sessionID, RequestID: requestID}] = &idempotencyEntry{
		reply:     reply,
		createdAt: im.now(),
	}

	if len(im.cache) > idempotencyCacheSize {
		im.cleanupOldEntriesLocked()
	}
}

// Forget drops every entry of a closed session
func (im *IdempotencyManager) Forget(sessionID string) {
	im.mu.Lock()
	defer im.mu.Unlock()

	for key := range im.cache {
		if key.SessionID == sessionID {
			delete(im.cache, key)
		}
	}
}

// Len returns the number of cached replies
func (im *IdempotencyManager) Len() int {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return len(im.cache)
}

// cleanupOldEntriesLocked removes expired entries.
// Must be called with mu held
func (im *IdempotencyManager) cleanupOldEntriesLocked() {
	cutoff := im.now().Add(-im.ttl)
	for key, entry := range im.cache {
		if entry.createdAt.Before(cutoff) {
			delete(im.cache, key)
		}
	}
}
