package core

import "sync"

// --------------------------------------------------------------------------
// Advisory locks
// --------------------------------------------------------------------------

// VLock is an advisory lock over a resource that lives outside the
// in-memory hierarchy, typically a file maintained by the persistence
// layer. It protects nothing inside this package; the hierarchy's own
// consistency comes from the atomic map primitives alone.
//
// The lock is binary and not reentrant. Lock blocks the calling goroutine
// until the lock is free; there is no try variant, no timeout and no
// cancellation, since holders are expected to perform short, bounded work.
//
// The zero value is ready to use.
type VLock struct {
	mu sync.Mutex
}

// Lock acquires the lock, blocking until it is free, and returns the guard
// that releases it. Callers defer the guard's Release immediately so the
// lock is given up on every exit path, including panics:
//
//	guard := lock.Lock()
//	defer guard.Release()
func (l *VLock) Lock() *Guard {
	l.mu.Lock()
	return &Guard{lock: l}
}

// Guard represents a held VLock. Release is idempotent, so releasing early
// on one path and again via defer is safe.
type Guard struct {
	lock *VLock
	once sync.Once
}

// Release gives the lock back. Calls after the first are no-ops.
func (g *Guard) Release() {
	g.once.Do(func() { g.lock.mu.Unlock() })
}
