package threadcore

import (
	"fmt"
)

// RoleKind identifies which of the closed set of worker roles a worker runs.
type RoleKind uint8

const (
	// RoleGeneral workers run the task scheduler's loop.
	RoleGeneral RoleKind = iota
	// RoleParallelGC workers participate in parallel marking and sweeping
	// during collection phases.
	RoleParallelGC
	// RoleConcurrentGC workers run background concurrent collection.
	RoleConcurrentGC
)

// roleKindCount sizes per-role accounting arrays.
const roleKindCount = 3

// String returns the role kind's wire-stable name.
func (k RoleKind) String() string {
	switch k {
	case RoleGeneral:
		return "general"
	case RoleParallelGC:
		return "parallel-gc"
	case RoleConcurrentGC:
		return "concurrent-gc"
	default:
		return "unknown"
	}
}

// Role is one of the closed set of worker role variants: [General],
// [ParallelGC], or [ConcurrentGC]. All variants share the same bootstrap
// (TLS construction, registry publication, barrier wait) and diverge only in
// the loop that runs afterwards.
//
// The set is sealed: the dispatch methods are unexported, so external
// packages cannot add variants.
type Role interface {
	// Kind returns the variant's tag.
	Kind() RoleKind

	// validate reports whether the variant is well-formed for spawning.
	validate() error

	// run enters the role loop. Invoked only after TLS publication and
	// barrier release.
	run(tls *TLS)
}

// General is the role of workers that execute scheduled tasks.
type General struct {
	// Loop is the task scheduler's run loop. It receives the worker's own
	// state block and is invoked only after the worker has published its
	// state and the startup barrier has released. The worker exits when it
	// returns, e.g. on shutdown request.
	Loop func(tls *TLS)
}

// Kind returns RoleGeneral.
func (r General) Kind() RoleKind { return RoleGeneral }

func (r General) validate() error {
	if r.Loop == nil {
		return fmt.Errorf("%w: general", ErrNilRoleLoop)
	}
	return nil
}

func (r General) run(tls *TLS) { r.Loop(tls) }

// ParallelGC is the role of workers that wait for collection-phase signals
// and participate in parallel marking and sweeping. The collector supplies
// the algorithm; this package guarantees the worker has valid,
// registry-visible state before Loop runs.
type ParallelGC struct {
	// Loop is the collector's parallel worker loop.
	Loop func(tls *TLS)
}

// Kind returns RoleParallelGC.
func (r ParallelGC) Kind() RoleKind { return RoleParallelGC }

func (r ParallelGC) validate() error {
	if r.Loop == nil {
		return fmt.Errorf("%w: parallel-gc", ErrNilRoleLoop)
	}
	return nil
}

func (r ParallelGC) run(tls *TLS) { r.Loop(tls) }

// ConcurrentGC is the role of workers dedicated to background concurrent
// collection work, with the same state-validity guarantee as [ParallelGC].
type ConcurrentGC struct {
	// Loop is the collector's concurrent worker loop.
	Loop func(tls *TLS)
}

// Kind returns RoleConcurrentGC.
func (r ConcurrentGC) Kind() RoleKind { return RoleConcurrentGC }

func (r ConcurrentGC) validate() error {
	if r.Loop == nil {
		return fmt.Errorf("%w: concurrent-gc", ErrNilRoleLoop)
	}
	return nil
}

func (r ConcurrentGC) run(tls *TLS) { r.Loop(tls) }
