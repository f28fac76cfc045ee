package threadcore

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

// coreOptions holds configuration options for Core creation.
type coreOptions struct {
	logger              *logiface.Logger[logiface.Event]
	metricsEnabled      bool
	lockOSThreads       bool
	initialSlotCapacity int
}

// --- Core Options ---

// CoreOption configures a Core instance.
type CoreOption interface {
	applyCore(*coreOptions) error
}

// coreOptionImpl implements CoreOption.
type coreOptionImpl struct {
	applyCoreFunc func(*coreOptions) error
}

func (c *coreOptionImpl) applyCore(opts *coreOptions) error {
	return c.applyCoreFunc(opts)
}

// WithLogger sets the logger used for worker lifecycle and interrupt
// events. A nil logger (the default) disables logging entirely, as every
// logiface call site is nil-safe.
func WithLogger(logger *logiface.Logger[logiface.Event]) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables runtime metrics collection on the Core.
// When enabled, metrics can be accessed via Core.Metrics().
// This adds minimal overhead (e.g., a few atomic increments per worker
// bootstrap and per interrupt check).
func WithMetrics(enabled bool) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithLockOSThreads sets whether each worker goroutine wires itself to a
// dedicated OS thread via runtime.LockOSThread before building its
// thread-local state. Runtimes that rely on OS thread identity (signal
// delivery, thread-affine foreign calls) should enable this; the lock is
// held for the lifetime of the worker.
func WithLockOSThreads(enabled bool) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.lockOSThreads = enabled
		return nil
	}}
}

// WithInitialSlotCapacity sets the initial capacity of the thread registry
// table. The table grows automatically; this only tunes how many workers
// may register before the first growth. Must be at least 1.
func WithInitialSlotCapacity(capacity int) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		if capacity < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidSlotCapacity, capacity)
		}
		opts.initialSlotCapacity = capacity
		return nil
	}}
}

// resolveCoreOptions applies CoreOption instances to coreOptions.
func resolveCoreOptions(opts []CoreOption) (*coreOptions, error) {
	cfg := &coreOptions{
		initialSlotCapacity: defaultSlotCapacity, // default
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyCore(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
