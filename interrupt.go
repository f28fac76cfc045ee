package threadcore

import (
	"sync"
	"sync/atomic"
)

// Condition is the opaque value carried by an interrupt request. Its meaning
// belongs to the collaborators on either side of the router; this package
// only guarantees that a consumer observing the target also observes the
// condition published with it.
type Condition uint64

// interruptSlot holds the Core's single interrupt target. Cache-line padded:
// it is loaded by every safepoint check on every worker, and must not share
// a line with anything the spawner writes.
type interruptSlot struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte // Cache line padding (before value) //nolint:unused

	target atomic.Pointer[Task]
	cond   atomic.Uint64

	_ [sizeOfCacheLine - sizeOfAtomicPointer - sizeOfAtomicUint64]byte // Pad to complete cache line //nolint:unused
}

// RequestInterrupt publishes an asynchronous interrupt for the given task,
// replacing any prior undelivered request.
//
// Critical Ordering: Write Condition → Store Target (Release). A consumer
// that observes the target (Acquire) therefore observes the paired
// condition. Single writer assumed per target at a time; concurrent
// requesters must serialize externally.
//
// The request stays pending until the target task reaches a safepoint and
// consumes it via [Core.CheckInterrupt]. A task stuck in a non-preemptible
// region leaves it pending indefinitely: delivery is cooperative, never
// forced.
func (c *Core) RequestInterrupt(target *Task, cond Condition) error {
	if target == nil {
		return ErrNilTask
	}
	c.intr.cond.Store(uint64(cond))
	c.intr.target.Store(target)
	c.metrics.recordInterruptRequested()
	c.logger.Debug().
		Uint64("task", target.ID()).
		Uint64("condition", uint64(cond)).
		Log("interrupt requested")
	return nil
}

// CheckInterrupt is the safepoint check: if the task currently running on
// the calling worker is the pending interrupt target and the worker's
// defer-count is zero, it atomically consumes the request and returns the
// condition published with it. In every other case it returns false and, for
// a deferred hit, leaves the request pending.
//
// tls must be the calling worker's own state block. Lock-free and
// non-blocking; safe to poll at any frequency the caller chooses.
func (c *Core) CheckInterrupt(tls *TLS) (Condition, bool) {
	if tls == nil {
		return 0, false
	}
	cur := tls.CurrentTask()
	if cur == nil {
		return 0, false
	}
	// Critical Ordering: Load Target (Acquire) → compare → CAS to clear →
	// Read Condition (visible per the request's write order).
	target := c.intr.target.Load()
	if target != cur {
		return 0, false
	}
	if tls.deferDepth.Load() > 0 {
		// Pending but suppressed; the request stays in place.
		c.metrics.recordInterruptSuppressed()
		c.logger.Trace().
			Int("thread", tls.Index()).
			Uint64("task", cur.ID()).
			Log("interrupt suppressed")
		return 0, false
	}
	if !c.intr.target.CompareAndSwap(target, nil) {
		// Lost to a concurrent consumer or an overlapping re-request.
		return 0, false
	}
	cond := Condition(c.intr.cond.Load())
	c.metrics.recordInterruptDelivered()
	c.logger.Debug().
		Int("thread", tls.Index()).
		Uint64("task", cur.ID()).
		Uint64("condition", uint64(cond)).
		Log("interrupt delivered")
	return cond, true
}

// PendingInterrupt returns the current interrupt target and condition
// without consuming them, or false when no request is pending. Intended for
// diagnostics; the answer may be stale by the time it returns.
func (c *Core) PendingInterrupt() (*Task, Condition, bool) {
	target := c.intr.target.Load()
	if target == nil {
		return nil, 0, false
	}
	return target, Condition(c.intr.cond.Load()), true
}

// DeferInterrupts increments the worker's interrupt defer-count and returns
// the matching resume function. While the count is above zero,
// [Core.CheckInterrupt] on this worker suppresses delivery; pending requests
// stay pending.
//
// The resume function is idempotent, so the recommended shape guarantees
// release on every exit path, including panics:
//
//	resume := tls.DeferInterrupts()
//	defer resume()
//
// Defer/resume pairs must nest strictly and must only be used by the owning
// worker; there is no cross-thread resume.
func (t *TLS) DeferInterrupts() (resume func()) {
	t.deferDepth.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			t.deferDepth.Add(-1)
		})
	}
}

// WithInterruptsDeferred runs fn with interrupt delivery deferred, restoring
// the previous depth when fn returns or panics.
func (t *TLS) WithInterruptsDeferred(fn func()) {
	resume := t.DeferInterrupts()
	defer resume()
	fn()
}

// InterruptsDeferred reports whether delivery is currently suppressed on
// this worker.
func (t *TLS) InterruptsDeferred() bool {
	return t.deferDepth.Load() > 0
}

// DeferDepth returns the current nesting depth of interrupt deferral.
func (t *TLS) DeferDepth() int {
	return int(t.deferDepth.Load())
}
