package threadcore

import (
	"sync/atomic"
)

// Barrier is a single-use counting rendezvous for worker startup: it is
// created with the expected participant count (workers + 1 for the spawner),
// every participant calls [Barrier.Wait] exactly once, and all of them are
// released together when the last one arrives.
//
// A fresh Barrier must be constructed for every spawn batch. Reuse is a
// protocol violation: once released, any further Wait panics, which removes
// the "has everyone passed through this round" ambiguity a recycled barrier
// would reintroduce.
//
// Memory ordering: everything a participant wrote before its Wait is visible
// to every participant after release. In particular, the spawner observes
// all worker state published before the workers arrived.
type Barrier struct {
	// Prevent copying
	_ [0]func()

	total   int32
	arrived atomic.Int32
	release chan struct{}
}

// NewBarrier creates a barrier for the given participant count. For a spawn
// batch of N workers the count is N+1: the workers plus the spawner.
//
// Panics if participants < 1; a barrier nobody can release is a
// construction bug, not a runtime condition.
func NewBarrier(participants int) *Barrier {
	if participants < 1 {
		panic("threadcore: barrier requires at least one participant")
	}
	return &Barrier{
		total:   int32(participants),
		release: make(chan struct{}),
	}
}

// Participants returns the configured participant count.
func (b *Barrier) Participants() int {
	return int(b.total)
}

// Wait blocks the calling participant until all configured participants have
// called Wait, then releases them together. Each participant must call Wait
// exactly once; an over-subscribed barrier (any call beyond the configured
// count) panics.
//
// There is no timeout and no cancellation: a worker that dies before
// arriving stalls the remaining participants forever, a fatal startup
// condition that belongs to an external supervisor, not to this core.
func (b *Barrier) Wait() {
	n := b.arrived.Add(1)
	switch {
	case n < b.total:
		<-b.release
	case n == b.total:
		close(b.release)
	default:
		panic("threadcore: wait on a released barrier (single-use)")
	}
}

// Released reports whether all participants have arrived and the barrier has
// released. Intended for diagnostics and tests; it does not participate.
func (b *Barrier) Released() bool {
	select {
	case <-b.release:
		return true
	default:
		return false
	}
}
