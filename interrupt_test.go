package threadcore

import (
	"errors"
	"testing"
)

func newTestCore(t *testing.T, opts ...CoreOption) *Core {
	t.Helper()
	core, err := New(opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return core
}

// Test_RequestInterrupt_nilTask tests target validation.
func Test_RequestInterrupt_nilTask(t *testing.T) {
	t.Parallel()

	core := newTestCore(t)
	if err := core.RequestInterrupt(nil, 1); !errors.Is(err, ErrNilTask) {
		t.Errorf("RequestInterrupt(nil) = %v, want ErrNilTask", err)
	}
}

// Test_CheckInterrupt_consumeOnce tests that a matching safepoint check
// delivers the condition exactly once.
func Test_CheckInterrupt_consumeOnce(t *testing.T) {
	t.Parallel()

	core := newTestCore(t)
	tls := newTLS(0, RoleGeneral)
	task := NewTask()
	tls.SetCurrentTask(task)

	if err := core.RequestInterrupt(task, 7); err != nil {
		t.Fatalf("RequestInterrupt failed: %v", err)
	}

	cond, ok := core.CheckInterrupt(tls)
	if !ok || cond != 7 {
		t.Fatalf("first check = (%d, %v), want (7, true)", cond, ok)
	}
	if cond, ok := core.CheckInterrupt(tls); ok {
		t.Errorf("second check = (%d, %v), want not delivered", cond, ok)
	}
	if _, _, ok := core.PendingInterrupt(); ok {
		t.Error("PendingInterrupt() = true after delivery")
	}
}

// Test_CheckInterrupt_wrongTask tests that a non-target worker leaves the
// request pending, and that the request follows the task across a switch.
func Test_CheckInterrupt_wrongTask(t *testing.T) {
	t.Parallel()

	core := newTestCore(t)
	tls := newTLS(0, RoleGeneral)
	running, target := NewTask(), NewTask()
	tls.SetCurrentTask(running)

	if err := core.RequestInterrupt(target, 3); err != nil {
		t.Fatalf("RequestInterrupt failed: %v", err)
	}
	if cond, ok := core.CheckInterrupt(tls); ok {
		t.Fatalf("check on wrong task delivered (%d, %v)", cond, ok)
	}
	if task, cond, ok := core.PendingInterrupt(); !ok || task != target || cond != 3 {
		t.Fatalf("PendingInterrupt() = (%v, %d, %v), want (target, 3, true)", task, cond, ok)
	}

	// The interrupt follows the task: once the target is scheduled here,
	// the same check delivers.
	tls.SetCurrentTask(target)
	if cond, ok := core.CheckInterrupt(tls); !ok || cond != 3 {
		t.Errorf("check after switch = (%d, %v), want (3, true)", cond, ok)
	}
}

// Test_CheckInterrupt_idle tests that an idle worker never consumes.
func Test_CheckInterrupt_idle(t *testing.T) {
	t.Parallel()

	core := newTestCore(t)
	tls := newTLS(0, RoleGeneral)
	task := NewTask()

	if err := core.RequestInterrupt(task, 1); err != nil {
		t.Fatalf("RequestInterrupt failed: %v", err)
	}
	if _, ok := core.CheckInterrupt(tls); ok {
		t.Error("idle worker consumed an interrupt")
	}
	if _, ok := core.CheckInterrupt(nil); ok {
		t.Error("nil state block consumed an interrupt")
	}
	if _, _, ok := core.PendingInterrupt(); !ok {
		t.Error("request no longer pending after non-matching checks")
	}
}

// Test_RequestInterrupt_replacement tests that a newer request supersedes
// the previous undelivered one.
func Test_RequestInterrupt_replacement(t *testing.T) {
	t.Parallel()

	core := newTestCore(t)
	tls := newTLS(0, RoleGeneral)
	task := NewTask()
	tls.SetCurrentTask(task)

	if err := core.RequestInterrupt(task, 1); err != nil {
		t.Fatalf("RequestInterrupt failed: %v", err)
	}
	if err := core.RequestInterrupt(task, 2); err != nil {
		t.Fatalf("RequestInterrupt failed: %v", err)
	}

	cond, ok := core.CheckInterrupt(tls)
	if !ok || cond != 2 {
		t.Fatalf("check = (%d, %v), want the superseding (2, true)", cond, ok)
	}
	if _, ok := core.CheckInterrupt(tls); ok {
		t.Error("superseded request delivered twice")
	}
}

// Test_DeferInterrupts_nesting tests strictly nested defer/resume pairs and
// resume idempotence.
func Test_DeferInterrupts_nesting(t *testing.T) {
	t.Parallel()

	tls := newTLS(0, RoleGeneral)

	resume1 := tls.DeferInterrupts()
	resume2 := tls.DeferInterrupts()
	resume3 := tls.DeferInterrupts()
	if got := tls.DeferDepth(); got != 3 {
		t.Fatalf("DeferDepth() = %d, want 3", got)
	}

	resume3()
	resume2()
	if got := tls.DeferDepth(); got != 1 {
		t.Fatalf("DeferDepth() = %d, want 1", got)
	}
	if !tls.InterruptsDeferred() {
		t.Error("InterruptsDeferred() = false at depth 1")
	}

	resume2() // idempotent: a second call must not double-decrement
	if got := tls.DeferDepth(); got != 1 {
		t.Fatalf("DeferDepth() = %d after repeated resume, want 1", got)
	}

	resume1()
	if got := tls.DeferDepth(); got != 0 {
		t.Fatalf("DeferDepth() = %d, want 0", got)
	}
	if tls.InterruptsDeferred() {
		t.Error("InterruptsDeferred() = true at depth 0")
	}
}

// Test_CheckInterrupt_deferred tests that deferral suppresses delivery
// without dropping the request.
func Test_CheckInterrupt_deferred(t *testing.T) {
	t.Parallel()

	core := newTestCore(t, WithMetrics(true))
	tls := newTLS(0, RoleGeneral)
	task := NewTask()
	tls.SetCurrentTask(task)

	if err := core.RequestInterrupt(task, 9); err != nil {
		t.Fatalf("RequestInterrupt failed: %v", err)
	}

	resume := tls.DeferInterrupts()
	if cond, ok := core.CheckInterrupt(tls); ok {
		t.Fatalf("deferred check delivered (%d, %v)", cond, ok)
	}
	if _, _, ok := core.PendingInterrupt(); !ok {
		t.Fatal("request dropped while deferred")
	}

	resume()
	if cond, ok := core.CheckInterrupt(tls); !ok || cond != 9 {
		t.Fatalf("check after resume = (%d, %v), want (9, true)", cond, ok)
	}

	snap := core.Metrics().Snapshot()
	if snap.InterruptsRequested != 1 || snap.InterruptsSuppressed != 1 || snap.InterruptsDelivered != 1 {
		t.Errorf("counters = requested %d suppressed %d delivered %d, want 1/1/1",
			snap.InterruptsRequested, snap.InterruptsSuppressed, snap.InterruptsDelivered)
	}
}

// Test_WithInterruptsDeferred tests the scoped guard, including release on
// panic.
func Test_WithInterruptsDeferred(t *testing.T) {
	t.Parallel()

	t.Run("scoped", func(t *testing.T) {
		t.Parallel()

		tls := newTLS(0, RoleGeneral)
		tls.WithInterruptsDeferred(func() {
			if !tls.InterruptsDeferred() {
				t.Error("InterruptsDeferred() = false inside the guard")
			}
			tls.WithInterruptsDeferred(func() {
				if got := tls.DeferDepth(); got != 2 {
					t.Errorf("DeferDepth() = %d inside nested guard, want 2", got)
				}
			})
			if got := tls.DeferDepth(); got != 1 {
				t.Errorf("DeferDepth() = %d after nested guard, want 1", got)
			}
		})
		if got := tls.DeferDepth(); got != 0 {
			t.Errorf("DeferDepth() = %d after guard, want 0", got)
		}
	})

	t.Run("released on panic", func(t *testing.T) {
		t.Parallel()

		tls := newTLS(0, RoleGeneral)
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected the panic to propagate")
				}
			}()
			tls.WithInterruptsDeferred(func() {
				panic("boom")
			})
		}()
		if got := tls.DeferDepth(); got != 0 {
			t.Errorf("DeferDepth() = %d after panic, want 0", got)
		}
	})
}
