package threadcore

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Test_NewBarrier_validation tests the construction contract.
func Test_NewBarrier_validation(t *testing.T) {
	t.Parallel()

	t.Run("zero participants panics", func(t *testing.T) {
		t.Parallel()

		defer func() {
			if recover() == nil {
				t.Error("NewBarrier(0) did not panic")
			}
		}()
		NewBarrier(0)
	})

	t.Run("negative participants panics", func(t *testing.T) {
		t.Parallel()

		defer func() {
			if recover() == nil {
				t.Error("NewBarrier(-1) did not panic")
			}
		}()
		NewBarrier(-1)
	})

	t.Run("participants accessor", func(t *testing.T) {
		t.Parallel()

		if got := NewBarrier(6).Participants(); got != 6 {
			t.Errorf("Participants() = %d, want 6", got)
		}
	})
}

// Test_Barrier_singleParticipant tests the degenerate rendezvous.
func Test_Barrier_singleParticipant(t *testing.T) {
	t.Parallel()

	b := NewBarrier(1)
	if b.Released() {
		t.Error("Released() = true before Wait")
	}
	b.Wait() // must not block
	if !b.Released() {
		t.Error("Released() = false after the only participant arrived")
	}
}

// Test_Barrier_releaseTogether tests the core property: no participant gets
// past Wait until every participant has arrived, and then all of them do.
func Test_Barrier_releaseTogether(t *testing.T) {
	t.Parallel()

	const workers = 4
	b := NewBarrier(workers + 1)

	var passed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			b.Wait()
			passed.Add(1)
		}()
	}

	// No waiter may get through while the last participant is missing.
	// Zero is the only sound assertion here: a nonzero count can only mean
	// the barrier released early.
	time.Sleep(20 * time.Millisecond)
	if got := passed.Load(); got != 0 {
		t.Fatalf("%d participants passed before the last arrival", got)
	}
	if b.Released() {
		t.Fatal("Released() = true before the last arrival")
	}

	b.Wait() // the final participant
	wg.Wait()

	if got := passed.Load(); got != workers {
		t.Errorf("passed = %d, want %d", got, workers)
	}
	if !b.Released() {
		t.Error("Released() = false after all participants arrived")
	}
}

// Test_Barrier_oversubscribed tests that a Wait beyond the configured count
// panics rather than silently recycling the barrier.
func Test_Barrier_oversubscribed(t *testing.T) {
	t.Parallel()

	b := NewBarrier(1)
	b.Wait()
	defer func() {
		if recover() == nil {
			t.Error("Wait on a released barrier did not panic")
		}
	}()
	b.Wait()
}

// Test_Barrier_publishesWrites tests that writes made before Wait are
// visible to other participants after release.
func Test_Barrier_publishesWrites(t *testing.T) {
	t.Parallel()

	b := NewBarrier(2)
	var payload int
	go func() {
		payload = 42 // plain write, published by the barrier
		b.Wait()
	}()
	b.Wait()
	if payload != 42 {
		t.Errorf("payload = %d, want 42 (pre-Wait writes must be visible after release)", payload)
	}
}
