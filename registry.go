package threadcore

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// defaultSlotCapacity is the initial backing capacity of a Registry table.
// Growth doubles from here, so the first few spawns never reallocate.
const defaultSlotCapacity = 4

// Slot is one worker thread's entry in the [Registry]. It is allocated by
// the spawning thread before the worker goroutine starts, so the worker's
// bootstrap phase is observable from the moment of allocation.
//
// A slot's published state pointer is written exactly once, by the owning
// worker, and never retracted: worker exit drops the liveness flag but keeps
// the state readable (mirroring how a runtime keeps exited threads visible
// to the collector).
type Slot struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	index int

	// state is the worker's published TLS block, nil until the owning
	// worker completes construction.
	//
	// Critical Ordering (publish): the worker fully constructs the TLS
	// block, then Stores the pointer (Release). Any reader that Loads a
	// non-nil pointer (Acquire) therefore observes a fully-constructed
	// block. The pointer is never overwritten after the first publish.
	state atomic.Pointer[TLS]

	// live is true from publish until the role loop returns.
	live atomic.Bool

	// phase tracks bootstrap progress; written only by the owning worker.
	phase PhaseState
}

// Index returns the slot's thread index.
func (s *Slot) Index() int {
	return s.index
}

// State returns the published TLS block, or nil if the owning worker has not
// finished constructing it. Lock-free.
func (s *Slot) State() *TLS {
	return s.state.Load()
}

// Live reports whether the owning worker has published its state and not yet
// exited. A true result implies State returns non-nil.
func (s *Slot) Live() bool {
	return s.live.Load()
}

// Phase returns the owning worker's current bootstrap phase. Lock-free.
func (s *Slot) Phase() WorkerPhase {
	return s.phase.Load()
}

// publish installs the worker's fully-constructed state block. Called
// exactly once, by the owning worker; a second publish is a bootstrap
// protocol violation and panics.
func (s *Slot) publish(tls *TLS) {
	if tls == nil {
		panic("threadcore: publish of nil thread state for slot " + strconv.Itoa(s.index))
	}
	if !s.state.CompareAndSwap(nil, tls) {
		panic("threadcore: thread state already published for slot " + strconv.Itoa(s.index))
	}
	// Store after the state CAS so observers of live == true also observe
	// the published state.
	s.live.Store(true)
}

// retire drops the liveness flag at role-loop exit. The published state
// remains readable; registry entries are never retracted.
func (s *Slot) retire() {
	s.live.Store(false)
}

// slotTable is one immutable-once-published version of the registry table.
// The slots slice header is never modified after the table is stored; growth
// or append publishes a fresh slotTable value.
type slotTable struct {
	slots []*Slot
}

// SnapshotEntry is one element of a [Registry.Snapshot] result.
type SnapshotEntry struct {
	// Index is the thread index of the entry.
	Index int
	// State is the fully-initialized state block. Never nil.
	State *TLS
}

// Registry is the thread-local state table: a dense, append-mostly mapping
// of thread index → published TLS block, designed for lock-free reads
// concurrent with growth.
//
// Architecture: the table is held behind an atomic pointer to an immutable
// slotTable version. Allocation (single writer, the spawning thread) appends
// within spare capacity or copies into a doubled backing array, then
// publishes a fresh table version. Readers load one version and work with
// it; they observe either the old or the new table, never a torn one.
// Because slot objects are shared across table versions, indices handed out
// and states already published remain valid through any number of growths.
//
// Thread Safety:
//   - [Registry.Lookup], [Registry.Snapshot], [Registry.Len], and
//     [Registry.Slot] are lock-free and callable from any goroutine.
//   - allocate is serialized by a mutex; it is intended for the single
//     spawning thread, and the lock makes misuse harmless rather than
//     corrupting.
//
// Critical Ordering (growth): cells of the next table version are written
// before the version pointer is Stored (Release); a reader that Loads the
// new version (Acquire) therefore observes every cell, including the one
// appended last.
type Registry struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	table atomic.Pointer[slotTable]

	// mu serializes allocate (growth is single-writer).
	mu sync.Mutex

	// growths counts backing-array reallocations, for diagnostics.
	growths atomic.Int64
}

// NewRegistry creates an empty registry with the default initial capacity.
func NewRegistry() *Registry {
	return newRegistry(defaultSlotCapacity)
}

func newRegistry(capacity int) *Registry {
	r := &Registry{}
	r.table.Store(&slotTable{slots: make([]*Slot, 0, capacity)})
	return r
}

// allocate reserves the next thread index and returns its slot. Indices are
// dense, 0-based, unique, and monotonically increasing; they are never
// reused. Called by the spawning thread only.
func (r *Registry) allocate() *Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.table.Load()
	n := len(cur.slots)
	slot := &Slot{index: n}

	var next []*Slot
	if n < cap(cur.slots) {
		// Append in place: the cell at index n is invisible to every
		// published table version (all have len <= n) until the fresh
		// version below is stored.
		next = cur.slots[:n+1]
		next[n] = slot
	} else {
		// Double the backing array. Slot pointers are copied, so entries
		// already handed out stay valid; readers holding the old version
		// keep a consistent (shorter) view.
		grown := make([]*Slot, n+1, cap(cur.slots)*2)
		copy(grown, cur.slots)
		grown[n] = slot
		next = grown
		r.growths.Add(1)
	}

	r.table.Store(&slotTable{slots: next})
	return slot
}

// Lookup returns the published state block for the given thread index, or
// nil when the index is out of range or the owning worker has not yet
// published. Lock-free; safe from any goroutine at any time.
func (r *Registry) Lookup(index int) *TLS {
	t := r.table.Load()
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index].state.Load()
}

// Slot returns the slot for the given thread index, or nil when out of
// range. Lock-free. The slot remains valid for the registry's lifetime.
func (r *Registry) Slot(index int) *Slot {
	t := r.table.Load()
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index]
}

// Len returns the number of allocated slots. Lock-free. The value is a lower
// bound under concurrent allocation.
func (r *Registry) Len() int {
	return len(r.table.Load().slots)
}

// Growths returns the number of backing-array reallocations performed.
func (r *Registry) Growths() int64 {
	return r.growths.Load()
}

// Snapshot returns the published thread states, ordered by ascending index,
// for use by garbage-collection root enumeration and diagnostics.
//
// The result is consistent in the sense the collector needs: it is built
// from a single table version, contains no duplicate or out-of-order
// indices, skips no index published before the call began, and every entry's
// state is fully constructed. Entries whose publish races the scan are
// either included fully-formed or omitted; never half-observed.
func (r *Registry) Snapshot() []SnapshotEntry {
	t := r.table.Load()
	entries := make([]SnapshotEntry, 0, len(t.slots))
	for _, s := range t.slots {
		if tls := s.state.Load(); tls != nil {
			entries = append(entries, SnapshotEntry{Index: s.index, State: tls})
		}
	}
	return entries
}
