package threadcore

import (
	"sync/atomic"
)

// WorkerPhase represents the bootstrap progress of a single worker thread.
//
// State Machine (linear, one-way):
//
//	PhaseSpawned (0) → PhaseTLSInitializing (1)    [goroutine start]
//	PhaseTLSInitializing (1) → PhaseBarrierWaiting (2) [state published]
//	PhaseBarrierWaiting (2) → PhaseRoleRunning (3)     [barrier released]
//	PhaseRoleRunning (3) → PhaseExited (4)             [role loop returned]
//	PhaseExited (4) → (terminal)
//
// Transition Rules:
//   - Use TryTransition() (CAS) for forward steps; each worker owns its own
//     machine, so a failed CAS indicates a bootstrap protocol bug.
//   - Use Store() only for the terminal transition to PhaseExited, which must
//     land even when the role loop unwinds abruptly.
//
// The zero value is PhaseSpawned, so a slot is observable from the moment it
// is allocated, before its worker goroutine has started running.
type WorkerPhase uint64

const (
	// PhaseSpawned indicates the slot has been allocated and the worker
	// launch requested, but the worker goroutine has not started running.
	PhaseSpawned WorkerPhase = 0
	// PhaseTLSInitializing indicates the worker is constructing its private
	// state block.
	PhaseTLSInitializing WorkerPhase = 1
	// PhaseBarrierWaiting indicates the worker has published its state into
	// the registry and is blocked on the startup barrier.
	PhaseBarrierWaiting WorkerPhase = 2
	// PhaseRoleRunning indicates the barrier has released and the worker is
	// inside its role loop.
	PhaseRoleRunning WorkerPhase = 3
	// PhaseExited indicates the role loop has returned. Terminal.
	PhaseExited WorkerPhase = 4
)

// String returns a human-readable representation of the phase.
func (p WorkerPhase) String() string {
	switch p {
	case PhaseSpawned:
		return "Spawned"
	case PhaseTLSInitializing:
		return "TLSInitializing"
	case PhaseBarrierWaiting:
		return "BarrierWaiting"
	case PhaseRoleRunning:
		return "RoleRunning"
	case PhaseExited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// PhaseState is a lock-free phase tracker with cache-line padding.
//
// PERFORMANCE: Uses pure atomic CAS operations with no mutex.
// Cache-line padding prevents false sharing between the owning worker
// (writer) and diagnostic observers on other cores.
type PhaseState struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte // Cache line padding (before value) //nolint:unused

	v atomic.Uint64 // Phase value

	_ [sizeOfCacheLine - sizeOfAtomicUint64]byte // Pad to complete cache line //nolint:unused
}

// Load returns the current phase atomically.
// PERFORMANCE: No validation, trusts the stored value.
func (s *PhaseState) Load() WorkerPhase {
	return WorkerPhase(s.v.Load())
}

// Store atomically stores a new phase.
// PERFORMANCE: No transition validation. Reserved for the terminal
// transition; use TryTransition for everything else.
func (s *PhaseState) Store(phase WorkerPhase) {
	s.v.Store(uint64(phase))
}

// TryTransition attempts to atomically transition from one phase to another.
// Returns true if the transition was successful.
// PERFORMANCE: Pure CAS, no validation of transition validity.
func (s *PhaseState) TryTransition(from, to WorkerPhase) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// IsTerminal returns true if the current phase is terminal (Exited).
func (s *PhaseState) IsTerminal() bool {
	return s.Load() == PhaseExited
}
