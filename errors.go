package threadcore

import (
	"errors"
)

// Standard errors.
var (
	// ErrNilRole is returned when a worker spawn is requested with a nil role.
	ErrNilRole = errors.New("threadcore: role must not be nil")

	// ErrNilRoleLoop is returned when a role value carries no loop function.
	// Every role variant requires its collaborator-supplied loop.
	ErrNilRoleLoop = errors.New("threadcore: role loop must not be nil")

	// ErrNilBarrier is returned when a worker spawn is requested without a
	// startup barrier.
	ErrNilBarrier = errors.New("threadcore: startup barrier must not be nil")

	// ErrNilTask is returned when an interrupt is requested for a nil task.
	ErrNilTask = errors.New("threadcore: interrupt target task must not be nil")

	// ErrInvalidSlotCapacity is returned by New when the configured initial
	// slot capacity is not positive.
	ErrInvalidSlotCapacity = errors.New("threadcore: initial slot capacity must be positive")
)
