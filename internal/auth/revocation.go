package auth

import (
	"sync"
	"time"
)

// Revocations tracks tokens logged out before their natural expiry.
// Entries are keyed by jti and never need to outlive the token's original
// expiry, so GC drops them once that point passes. The registry is
// process-local; a multi-instance deployment must swap in a shared store
// behind the same methods.
type Revocations struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> token expiry
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRevocations() *Revocations {
	return &Revocations{
		revoked: make(map[string]time.Time),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// Revoke marks a jti as logged out. Idempotent; expiresAt bounds how long
// the entry must be retained.
func (r *Revocations) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = expiresAt
}

// IsRevoked reports whether the jti has been revoked. An entry whose token
// has already expired is dropped lazily; the expiry check upstream rejects
// such tokens anyway.
func (r *Revocations) IsRevoked(jti string) bool {
	r.mu.RLock()
	expiresAt, ok := r.revoked[jti]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	if r.now().After(expiresAt) {
		r.mu.Lock()
		delete(r.revoked, jti)
		r.mu.Unlock()
		return false
	}
	return true
}

// GC removes entries whose token would have expired by now.
func (r *Revocations) GC(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for jti, expiresAt := range r.revoked {
		if now.After(expiresAt) {
			delete(r.revoked, jti)
		}
	}
}

// StartGC runs GC on the given interval until Stop is called.
func (r *Revocations) StartGC(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.GC(r.now())
			case <-r.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the background GC worker.
func (r *Revocations) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
