// Package threadcore provides the threading bootstrap layer of a managed
// runtime: a lock-free thread registry, a single-use startup barrier,
// role-typed worker entry points, and a cooperative interrupt router.
//
// # Architecture
//
// The package is built around a [Core] that owns a [Registry] of
// per-thread state blocks ([TLS]), spawns workers through a shared
// bootstrap pipeline ([Core.SpawnWorker], [Core.StartWorkers]), and routes
// asynchronous interrupts to tasks at safepoints ([Core.RequestInterrupt],
// [Core.CheckInterrupt]).
//
// Workers are typed by [Role]: [General] workers run scheduler loops,
// [ParallelGC] workers assist stop-the-world collection phases, and
// [ConcurrentGC] workers run background collection. All roles share the
// same bootstrap pipeline and differ only in the loop they are released
// into.
//
// # Bootstrap Pipeline
//
// Every worker advances through the same phases, tracked per registry
// slot:
//
//	Spawned -> TLSInitializing -> BarrierWaiting -> RoleRunning -> Exited
//
// A worker builds its own [TLS] on its own goroutine, publishes it to its
// pre-allocated registry slot, then arrives at the startup [Barrier]. The
// spawner participates in the same barrier, so by the time
// [Core.StartWorkers] returns, every worker's state block is registered
// and visible and every worker has been released into its role loop.
//
// # Thread Safety
//
// The package is designed for concurrent access:
//   - [Registry.Lookup] and [Registry.Snapshot] are lock-free reads,
//     safe from any goroutine at any time, including during table growth
//   - [Core.CheckInterrupt] is a lock-free safepoint check, intended to be
//     polled from role loops at arbitrary frequency
//   - [Core.RequestInterrupt] may be called from any goroutine; concurrent
//     requests for the same target must serialize externally
//   - [TLS.DeferInterrupts] and its resume function are owned by the
//     worker itself and must not be called cross-thread
//
// # Usage
//
//	core, err := threadcore.New(
//	    threadcore.WithMetrics(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := core.StartWorkers(
//	    threadcore.General{Loop: schedulerLoop},
//	    threadcore.General{Loop: schedulerLoop},
//	    threadcore.ParallelGC{Loop: gcAssistLoop},
//	); err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, entry := range core.Registry().Snapshot() {
//	    fmt.Printf("thread %d: %s\n", entry.Index, entry.State.Role())
//	}
//
//	if err := core.Join(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Errors
//
// Constructor and spawn paths return sentinel errors matched with
// [errors.Is]:
//   - [ErrNilRole], [ErrNilRoleLoop]: a role or its loop was nil
//   - [ErrNilBarrier]: a worker was spawned without a startup barrier
//   - [ErrNilTask]: an interrupt was requested for no task
//   - [ErrInvalidSlotCapacity]: a non-positive registry capacity option
//
// Protocol violations that can only arise from package-internal bugs or
// barrier misuse (waiting on a released single-use barrier, publishing a
// slot twice) panic instead of returning errors.
package threadcore
