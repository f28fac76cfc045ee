package threadcore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// coreIDCounter assigns process-unique Core identifiers, used in logs.
var coreIDCounter atomic.Uint64

// Core owns the thread registry, the interrupt router, and the machinery
// that spawns role-running workers through the bootstrap pipeline. It is
// the root object of this package: a managed runtime embeds one Core and
// drives it from its main thread.
//
// Core must not be copied after first use.
type Core struct {
	_ [0]func() // Prevent copying

	id       uint64
	registry *Registry
	metrics  *Metrics
	logger   *logiface.Logger[logiface.Event]

	// intr is the single-consumer interrupt mailbox. See interrupt.go.
	intr interruptSlot

	lockOSThreads bool

	// mu guards the live-worker count and its idle notification channel.
	mu          sync.Mutex
	liveWorkers int
	idleCh      chan struct{}
}

// New creates a Core with the given options.
func New(opts ...CoreOption) (*Core, error) {
	cfg, err := resolveCoreOptions(opts)
	if err != nil {
		return nil, err
	}
	c := &Core{
		id:            coreIDCounter.Add(1),
		registry:      newRegistry(cfg.initialSlotCapacity),
		logger:        cfg.logger,
		lockOSThreads: cfg.lockOSThreads,
	}
	if cfg.metricsEnabled {
		c.metrics = newMetrics()
	}
	c.logger.Debug().
		Uint64("core", c.id).
		Int("slot_capacity", cfg.initialSlotCapacity).
		Bool("lock_os_threads", cfg.lockOSThreads).
		Log("core initialized")
	return c, nil
}

// ID returns the process-unique identifier of this Core.
func (c *Core) ID() uint64 { return c.id }

// Registry returns the thread registry owned by this Core.
func (c *Core) Registry() *Registry { return c.registry }

// Metrics returns the metrics collector, or nil when metrics are disabled.
// A nil *Metrics is safe to use; see [Metrics].
func (c *Core) Metrics() *Metrics { return c.metrics }

// SpawnWorker allocates a registry slot and launches a worker goroutine
// that runs the bootstrap pipeline for the given role, joining the given
// barrier after registering its thread-local state. It returns the
// worker's registry index immediately, without waiting for the worker to
// start.
//
// The caller owns barrier coordination: the barrier must have capacity for
// this worker, and the caller typically participates too, so that its own
// Wait returning implies the worker is registered. [Core.StartWorkers]
// packages that protocol; use SpawnWorker directly only for bespoke
// topologies.
func (c *Core) SpawnWorker(role Role, barrier *Barrier) (int, error) {
	if role == nil {
		return 0, ErrNilRole
	}
	if err := role.validate(); err != nil {
		return 0, err
	}
	if barrier == nil {
		return 0, ErrNilBarrier
	}

	slot := c.registry.allocate()
	c.metrics.recordSpawn(role.Kind())
	c.trackSpawn()
	c.logger.Debug().
		Uint64("core", c.id).
		Int("thread", slot.index).
		Stringer("role", role.Kind()).
		Log("worker spawned")

	go c.workerMain(&startupDescriptor{slot: slot, barrier: barrier, role: role})
	return slot.index, nil
}

// StartWorkers spawns one worker per role and blocks until every worker
// has registered its thread-local state and reached the shared startup
// barrier. On return, [Registry.Snapshot] observes one fully initialized
// entry per role, and every worker has been released into its role loop.
// The returned indices correspond positionally to roles.
//
// All roles are validated before anything is spawned: the barrier is sized
// to len(roles)+1 counting the caller, so a partial spawn would strand the
// already-spawned workers. Validation failures leave the Core untouched.
//
// Calling with no roles is a no-op.
func (c *Core) StartWorkers(roles ...Role) ([]int, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	for i, role := range roles {
		if role == nil {
			return nil, fmt.Errorf("%w (role %d)", ErrNilRole, i)
		}
		if err := role.validate(); err != nil {
			return nil, fmt.Errorf("role %d: %w", i, err)
		}
	}

	barrier := NewBarrier(len(roles) + 1)
	indices := make([]int, len(roles))
	for i, role := range roles {
		index, err := c.SpawnWorker(role, barrier)
		if err != nil {
			// Unreachable: SpawnWorker repeats only checks that passed above.
			return nil, err
		}
		indices[i] = index
	}

	barrier.Wait()
	c.logger.Info().
		Uint64("core", c.id).
		Int("workers", len(roles)).
		Log("startup barrier released")
	return indices, nil
}

// LiveWorkers returns the number of workers spawned but not yet exited.
func (c *Core) LiveWorkers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveWorkers
}

// Join blocks until the live-worker count reaches zero, or until ctx is
// done, in which case it returns ctx.Err(). Workers spawned while Join
// blocks extend the wait; once it returns, later spawns do not affect it.
// Workers exit only when their role loops return, so Join is useful for
// bounded role loops, draining during shutdown, and tests.
func (c *Core) Join(ctx context.Context) error {
	c.mu.Lock()
	if c.liveWorkers == 0 {
		c.mu.Unlock()
		return nil
	}
	idle := c.idleCh
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// trackSpawn transitions the live-worker count, arming a fresh idle
// channel on the 0 -> 1 edge.
func (c *Core) trackSpawn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.liveWorkers == 0 {
		c.idleCh = make(chan struct{})
	}
	c.liveWorkers++
}

// trackExit transitions the live-worker count, closing the idle channel
// on the 1 -> 0 edge to release joiners.
func (c *Core) trackExit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveWorkers--
	if c.liveWorkers == 0 {
		close(c.idleCh)
	}
}
