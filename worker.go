package threadcore

import (
	"runtime"
	"strconv"
	"time"
)

// startupDescriptor carries everything a worker goroutine needs to
// bootstrap: its pre-allocated registry slot, the startup barrier, and the
// role whose loop it will run.
type startupDescriptor struct {
	slot    *Slot
	barrier *Barrier
	role    Role
}

// workerMain is the entry point shared by every worker role. It drives the
// bootstrap pipeline:
//
//	Spawned -> TLSInitializing -> BarrierWaiting -> RoleRunning -> Exited
//
// Critical Ordering (bootstrap):
//  1. The state block is fully constructed before it is published to the
//     registry slot (Release).
//  2. The slot is published before the worker arrives at the barrier.
//  3. The barrier releases no one until everyone arrives, so any goroutine
//     whose Wait has returned observes every participant's entry.
//
// Role loop panics are not recovered. A worker represents a runtime-managed
// thread whose loop is trusted code; unwinding it is a runtime bug and the
// default crash, with this goroutine's stack intact, beats limping on with
// a silently missing worker.
func (c *Core) workerMain(d *startupDescriptor) {
	if c.lockOSThreads {
		// Held for the worker's lifetime: role loops may cache
		// thread-affine state (signal handlers, foreign-call contexts).
		runtime.LockOSThread()
	}

	mustTransition(d.slot, PhaseSpawned, PhaseTLSInitializing)

	start := time.Now()
	tls := newTLS(d.slot.index, d.role.Kind())
	initDur := time.Since(start)
	c.metrics.recordTLSInit(initDur)

	d.slot.publish(tls)
	workerFields(c.logger.Debug(), c.id, tls).
		Uint64("os_tid", tls.OSThreadID()).
		Uint64("goroutine", tls.GoroutineID()).
		Dur("took", initDur).
		Log("thread state published")

	mustTransition(d.slot, PhaseTLSInitializing, PhaseBarrierWaiting)

	start = time.Now()
	d.barrier.Wait()
	c.metrics.recordBarrierWait(time.Since(start))

	mustTransition(d.slot, PhaseBarrierWaiting, PhaseRoleRunning)
	workerFields(c.logger.Debug(), c.id, tls).Log("role loop starting")

	defer func() {
		d.slot.retire()
		d.slot.phase.Store(PhaseExited)
		c.metrics.recordExit(d.role.Kind())
		c.trackExit()
		workerFields(c.logger.Debug(), c.id, tls).Log("worker exited")
	}()
	d.role.run(tls)
}

// mustTransition advances a slot through the worker state machine. Each
// phase has exactly one legal successor during bootstrap, so a failed
// transition is always a bug in this package, never a caller error.
func mustTransition(slot *Slot, from, to WorkerPhase) {
	if !slot.phase.TryTransition(from, to) {
		panic("threadcore: invalid worker phase transition for thread " +
			strconv.Itoa(slot.index) + ": " + from.String() + " -> " + to.String())
	}
}
