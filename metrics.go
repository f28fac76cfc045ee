package threadcore

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks spawn, bootstrap-timing, and interrupt statistics for a
// [Core]. Collection is optional: it is attached via WithMetrics(true), and
// a nil *Metrics is a valid receiver for which every recorder is a no-op, so
// call sites never branch on whether metrics are enabled.
//
// Thread Safety:
//   - All recorders use atomics or a short critical section and are safe
//     from any goroutine.
//   - [Metrics.Snapshot] returns a copy, safe for concurrent reads.
//
// Example:
//
//	core, _ := New(WithMetrics(true))
//	_, _ = core.StartWorkers(roles...)
//	snap := core.Metrics().Snapshot()
//	fmt.Printf("spawned: %d, tls init p99: %v\n",
//		snap.Spawned.Total(), snap.TLSInit.P99)
type Metrics struct {
	spawned [roleKindCount]atomic.Int64
	exited  [roleKindCount]atomic.Int64

	interruptsRequested  atomic.Int64
	interruptsDelivered  atomic.Int64
	interruptsSuppressed atomic.Int64

	// Bootstrap timing: one sample of each per worker.
	tlsInit     LatencyMetrics
	barrierWait LatencyMetrics
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordSpawn(k RoleKind) {
	if m == nil {
		return
	}
	m.spawned[k].Add(1)
}

func (m *Metrics) recordExit(k RoleKind) {
	if m == nil {
		return
	}
	m.exited[k].Add(1)
}

func (m *Metrics) recordInterruptRequested() {
	if m == nil {
		return
	}
	m.interruptsRequested.Add(1)
}

func (m *Metrics) recordInterruptDelivered() {
	if m == nil {
		return
	}
	m.interruptsDelivered.Add(1)
}

func (m *Metrics) recordInterruptSuppressed() {
	if m == nil {
		return
	}
	m.interruptsSuppressed.Add(1)
}

func (m *Metrics) recordTLSInit(d time.Duration) {
	if m == nil {
		return
	}
	m.tlsInit.Record(d)
}

func (m *Metrics) recordBarrierWait(d time.Duration) {
	if m == nil {
		return
	}
	m.barrierWait.Record(d)
}

// RoleCounts is a per-role counter vector indexed by [RoleKind].
type RoleCounts [roleKindCount]int64

// Of returns the count for the given role kind.
func (c RoleCounts) Of(k RoleKind) int64 {
	if int(k) >= len(c) {
		return 0
	}
	return c[k]
}

// Total returns the sum across all role kinds.
func (c RoleCounts) Total() int64 {
	var total int64
	for _, v := range c {
		total += v
	}
	return total
}

// MetricsSnapshot is a point-in-time copy of a Core's metrics.
type MetricsSnapshot struct {
	// Spawned counts workers spawned, by role.
	Spawned RoleCounts
	// Exited counts workers whose role loop has returned, by role.
	Exited RoleCounts

	// InterruptsRequested counts RequestInterrupt calls.
	InterruptsRequested int64
	// InterruptsDelivered counts CheckInterrupt calls that consumed a
	// pending request.
	InterruptsDelivered int64
	// InterruptsSuppressed counts safepoint checks that matched the target
	// but were deferred.
	InterruptsSuppressed int64

	// TLSInit is the distribution of per-worker state construction time.
	TLSInit LatencySnapshot
	// BarrierWait is the distribution of per-worker barrier wait time.
	BarrierWait LatencySnapshot
}

// Snapshot returns a copy of the current values. Safe on a nil receiver,
// which yields the zero snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var snap MetricsSnapshot
	if m == nil {
		return snap
	}
	for i := range snap.Spawned {
		snap.Spawned[i] = m.spawned[i].Load()
		snap.Exited[i] = m.exited[i].Load()
	}
	snap.InterruptsRequested = m.interruptsRequested.Load()
	snap.InterruptsDelivered = m.interruptsDelivered.Load()
	snap.InterruptsSuppressed = m.interruptsSuppressed.Load()
	snap.TLSInit = m.tlsInit.Snapshot()
	snap.BarrierWait = m.barrierWait.Snapshot()
	return snap
}

// LatencyMetrics tracks a duration distribution with streaming quantile
// estimators, so recording stays O(1) regardless of how many samples
// arrive. The zero value is ready to use.
type LatencyMetrics struct {
	mu     sync.Mutex
	digest latencyDigest
}

// Record folds one duration sample into the distribution.
func (l *LatencyMetrics) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.digest.observe(d)
}

// LatencySnapshot holds summary statistics for a recorded distribution.
// Count, Max, and Mean are exact; the percentiles are P-Square streaming
// estimates.
type LatencySnapshot struct {
	Count int
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

// Snapshot returns the current summary statistics.
func (l *LatencyMetrics) Snapshot() LatencySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.digest.snapshot()
}
