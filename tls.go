package threadcore

import (
	"runtime"
	"sync/atomic"
	"time"
)

var taskIDCounter atomic.Uint64

// Task is an opaque handle identifying a schedulable unit of work.
//
// The task scheduler (an external collaborator) allocates one Task per
// logical task it manages. This package only ever compares Task pointers for
// identity: a Task carries no behavior, just a process-unique id used for
// log correlation. Tasks may migrate between worker threads; the interrupt
// router follows the task, not the thread.
type Task struct {
	// Prevent copying
	_ [0]func()

	id uint64
}

// NewTask allocates a task handle with a process-unique id.
func NewTask() *Task {
	return &Task{id: taskIDCounter.Add(1)}
}

// ID returns the task's process-unique id.
func (t *Task) ID() uint64 {
	return t.id
}

// TLS is the private, exclusively-owned state block of a single worker
// thread; the runtime analogue of a thread control block. It is allocated by
// the worker itself during bootstrap and published into the registry exactly
// once via a release-ordered write, after which other threads may safely
// read it through [Registry.Lookup] or [Registry.Snapshot].
//
// Thread Safety:
//   - Index, Role, OSThreadID, GoroutineID, and Started are immutable after
//     construction and safe to read from any goroutine.
//   - CurrentTask and SetCurrentTask are atomic; SetCurrentTask must only be
//     called on the owning worker (by the scheduler's task switch).
//   - The interrupt defer-count is owned by the worker; see
//     [TLS.DeferInterrupts].
type TLS struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	index   int
	role    RoleKind
	osTID   uint64
	gid     uint64
	started time.Time

	// currentTask is the task the scheduler is presently running on this
	// worker, or nil when idle. Written by the owning worker, read by the
	// interrupt router and diagnostics.
	currentTask atomic.Pointer[Task]

	// deferDepth suppresses interrupt delivery while > 0. Incremented and
	// decremented only by the owning worker, in strictly nested fashion;
	// atomic so observers may read it without tearing.
	deferDepth atomic.Int32
}

// newTLS constructs a worker's state block. Must be called on the worker's
// own goroutine so the recorded thread and goroutine ids are its own.
func newTLS(index int, role RoleKind) *TLS {
	return &TLS{
		index:   index,
		role:    role,
		osTID:   osThreadID(),
		gid:     getGoroutineID(),
		started: time.Now(),
	}
}

// Index returns the worker's registry index.
func (t *TLS) Index() int {
	return t.index
}

// Role returns the worker's role kind.
func (t *TLS) Role() RoleKind {
	return t.role
}

// OSThreadID returns the native thread id recorded during bootstrap, or 0
// when the platform provides none. The value is stable for the worker's
// lifetime only when OS-thread locking is enabled; see [WithLockOSThreads].
func (t *TLS) OSThreadID() uint64 {
	return t.osTID
}

// GoroutineID returns the id of the goroutine that ran the bootstrap.
func (t *TLS) GoroutineID() uint64 {
	return t.gid
}

// Started returns the time at which TLS construction began.
func (t *TLS) Started() time.Time {
	return t.started
}

// CurrentTask returns the task currently running on this worker, or nil.
func (t *TLS) CurrentTask() *Task {
	return t.currentTask.Load()
}

// SetCurrentTask records the task now running on this worker. The scheduler
// calls this on every task switch; pass nil when the worker goes idle.
func (t *TLS) SetCurrentTask(task *Task) {
	t.currentTask.Store(task)
}

// getGoroutineID extracts the current goroutine ID from the runtime stack.
// Called once per worker during bootstrap; not a hot path.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Parse "goroutine N [running]:"
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
